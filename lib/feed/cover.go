package feed

import (
	"context"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/carlmjohnson/requests"
	"golang.org/x/net/html"
)

// FindCover fetches an item's comments page and returns the image it
// advertises for link previews, if any.
func (c *Client) FindCover(ctx context.Context, pageURL string) (string, error) {
	if err := validateURL(pageURL); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var page string
	err := requests.URL(pageURL).
		Transport(c.transport).
		ToString(&page).
		Fetch(ctx)
	if err != nil {
		return "", &TransportError{pageURL, err}
	}

	doc, err := htmlquery.Parse(strings.NewReader(page))
	if err != nil {
		return "", err
	}
	return ExtractImageURL(doc), nil
}

func ExtractImageURL(n *html.Node) string {
	if url := extractOpengraphImage(n); url != "" {
		return url
	}
	if url := extractTwitterImage(n); url != "" {
		return url
	}
	return ""
}

func extractOpengraphImage(n *html.Node) string {
	elem := htmlquery.FindOne(n, "//meta[@property = 'og:image']")
	if elem == nil {
		return ""
	}
	return htmlquery.SelectAttr(elem, "content")
}

func extractTwitterImage(n *html.Node) string {
	elem := htmlquery.FindOne(n, "//meta[@name = 'twitter:image']")
	if elem == nil {
		return ""
	}
	return htmlquery.SelectAttr(elem, "content")
}
