package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/fiffu/indexwatch/config"
	"github.com/fiffu/indexwatch/lib/models"
	"github.com/mmcdole/gofeed/rss"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

var errNoChannel = errors.New("document has no channel element")

// Client fetches Torznab RSS feeds.
type Client struct {
	log       *zap.Logger
	transport http.RoundTripper
	timeout   time.Duration
}

func NewClient(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *Client {
	return &Client{log, transport, cfg.FetchTimeout()}
}

// Fetch downloads and parses the feed at link. Items are returned in document
// order.
func (c *Client) Fetch(ctx context.Context, link string) (*models.Feed, error) {
	if err := validateURL(link); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body, errBody bytes.Buffer
	err := requests.URL(link).
		Transport(c.transport).
		AddValidator(requests.ValidatorHandler(requests.DefaultValidator, requests.ToBytesBuffer(&errBody))).
		ToBytesBuffer(&body).
		Fetch(ctx)
	if err != nil {
		// Indexers may serve their error document with a non-2xx status.
		if root, sniffErr := sniffRoot(errBody.Bytes()); sniffErr == nil && root.providerErr != nil {
			return nil, root.providerErr
		}
		return nil, &TransportError{link, err}
	}

	return parse(link, body.Bytes())
}

func validateURL(link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return &MalformedURLError{link, err}
	}
	if !u.IsAbs() || u.Host == "" {
		return &MalformedURLError{link, errors.New("not an absolute url")}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &MalformedURLError{link, fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	return nil
}

func parse(link string, data []byte) (*models.Feed, error) {
	root, err := sniffRoot(data)
	if err != nil {
		return nil, &FormatError{link, err}
	}
	if root.providerErr != nil {
		return nil, root.providerErr
	}
	if !root.hasChannel {
		return nil, &FormatError{link, errNoChannel}
	}

	var p rss.Parser
	doc, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{link, err}
	}

	feed := &models.Feed{
		Title: strings.TrimSpace(doc.Title),
		Items: make([]models.FeedItem, 0, len(doc.Items)),
	}
	for _, raw := range doc.Items {
		item, err := Normalize(raw)
		if err != nil {
			return nil, &FormatError{link, err}
		}
		feed.Items = append(feed.Items, item)
	}
	return feed, nil
}

type rootInfo struct {
	hasChannel  bool
	providerErr *ProviderError
}

// sniffRoot reads just enough of the document to tell a feed from an indexer
// error document.
func sniffRoot(data []byte) (*rootInfo, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	info := &rootInfo{}
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errors.New("empty document")
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				switch strings.ToLower(el.Name.Local) {
				case "error":
					info.providerErr = &ProviderError{
						Code:        attr(el, "code"),
						Description: attr(el, "description"),
					}
					return info, nil
				case "rss", "rdf":
				default:
					return nil, fmt.Errorf("unexpected root element <%s>", el.Name.Local)
				}
			}
			if depth == 2 && el.Name.Local == "channel" {
				info.hasChannel = true
				return info, nil
			}
		case xml.EndElement:
			depth--
			if depth == 0 {
				return info, nil
			}
		}
	}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
