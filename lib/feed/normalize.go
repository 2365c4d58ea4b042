package feed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fiffu/indexwatch/lib/models"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"
)

const magnetPrefix = "magnet:"

// Normalize maps a raw RSS item, including its torznab:attr extensions, into a
// FeedItem.
func Normalize(raw *rss.Item) (models.FeedItem, error) {
	title := strings.TrimSpace(raw.Title)

	pub, err := itemPubDate(raw)
	if err != nil {
		return models.FeedItem{}, fmt.Errorf("item %q: %w", title, err)
	}

	attrs := torznabAttrs(raw.Extensions)

	item := models.FeedItem{
		PubDate:  pub,
		Title:    title,
		Seeders:  firstOf(attrs["seeders"], models.Placeholder),
		Peers:    firstOf(attrs["peers"], models.Placeholder),
		Grabs:    firstOf(raw.Custom["grabs"], attrs["grabs"], models.Placeholder),
		Files:    firstOf(raw.Custom["files"], attrs["files"], models.Placeholder),
		CoverURL: attrs["coverurl"],

		CommentsURL: strings.TrimSpace(raw.Comments),
	}

	item.CategoryCode = categoryCode(raw, attrs)
	item.Category = ParseCategory(item.CategoryCode)
	item.Size = itemSize(raw, attrs)

	if v, ok := parseFactor(attrs["downloadvolumefactor"]); ok {
		item.Freeleech = v == 0
		item.HalfDownload = v == 0.5
	}
	if v, ok := parseFactor(attrs["uploadvolumefactor"]); ok && v > 1 {
		item.UploadBonus = int(v * 100)
	}

	guid := ""
	if raw.GUID != nil {
		guid = strings.TrimSpace(raw.GUID.Value)
	}
	link := strings.TrimSpace(raw.Link)
	item.GUID = firstOf(guid, link, title)

	switch {
	case strings.HasPrefix(guid, magnetPrefix):
		item.MagnetURL = guid
	case strings.HasPrefix(link, magnetPrefix):
		item.MagnetURL = link
	}
	if link != "" && !strings.HasPrefix(link, magnetPrefix) {
		item.Link = link
	} else if raw.Enclosure != nil && !strings.HasPrefix(raw.Enclosure.URL, magnetPrefix) {
		item.Link = strings.TrimSpace(raw.Enclosure.URL)
	}
	if item.MagnetURL == "" {
		item.MagnetURL = attrs["magneturl"]
	}

	item.ExternalLinks = externalLinks(item.Category, attrs)
	return item, nil
}

// ParseCategory buckets a Newznab category code by its thousands.
func ParseCategory(code string) models.Category {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.CategoryAbsent
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return models.CategoryUnknown
	}
	bucket := models.Category(n / 1000)
	if bucket < models.CategoryConsole || bucket > models.CategoryUnknown {
		return models.CategoryUnknown
	}
	return bucket
}

func itemPubDate(raw *rss.Item) (models.PubDate, error) {
	if raw.PubDateParsed != nil {
		return models.NewPubDate(*raw.PubDateParsed), nil
	}
	pub, err := models.ParsePubDate(strings.TrimSpace(raw.PubDate))
	if err != nil {
		return models.PubDate{}, fmt.Errorf("unparseable pubDate %q", raw.PubDate)
	}
	return pub, nil
}

func categoryCode(raw *rss.Item, attrs map[string]string) string {
	for _, c := range raw.Categories {
		if c != nil && strings.TrimSpace(c.Value) != "" {
			return strings.TrimSpace(c.Value)
		}
	}
	return attrs["category"]
}

func itemSize(raw *rss.Item, attrs map[string]string) int64 {
	candidates := []string{raw.Custom["size"], attrs["size"]}
	if raw.Enclosure != nil {
		candidates = append(candidates, raw.Enclosure.Length)
	}
	for _, s := range candidates {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func parseFactor(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func externalLinks(cat models.Category, attrs map[string]string) []models.ExternalLink {
	var links []models.ExternalLink
	if id := attrs["imdbid"]; id != "" && id != "0" {
		if !strings.HasPrefix(id, "tt") {
			id = "tt" + id
		}
		links = append(links, models.ExternalLink{Name: "IMDb", URL: "https://www.imdb.com/title/" + id})
	}
	if id := attrs["tmdbid"]; id != "" && id != "0" {
		kind := ""
		switch cat {
		case models.CategoryMovies:
			kind = "movie"
		case models.CategoryTV:
			kind = "tv"
		}
		if kind != "" {
			links = append(links, models.ExternalLink{Name: "TMDb", URL: fmt.Sprintf("https://www.themoviedb.org/%s/%s", kind, id)})
		}
	}
	return links
}

// torznabAttrs flattens <torznab:attr name=".." value=".."/> elements. The
// first occurrence of a name wins. newznab:attr is read as a fallback.
func torznabAttrs(exts ext.Extensions) map[string]string {
	attrs := make(map[string]string)
	for _, prefix := range []string{"torznab", "newznab"} {
		for _, e := range exts[prefix]["attr"] {
			name := strings.ToLower(e.Attrs["name"])
			if _, seen := attrs[name]; name == "" || seen {
				continue
			}
			attrs[name] = strings.TrimSpace(e.Attrs["value"])
		}
	}
	return attrs
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
