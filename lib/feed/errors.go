package feed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// GoneCode is the provider error code for a feed that was removed for good.
const GoneCode = "410"

type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetching %s: %s", RedactURL(e.URL), redactErr(e.URL, e.Err))
}

func (e *TransportError) Unwrap() error { return e.Err }

type FormatError struct {
	URL string
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s is not a supported Torznab RSS feed: %s", RedactURL(e.URL), redactErr(e.URL, e.Err))
}

func (e *FormatError) Unwrap() error { return e.Err }

type MalformedURLError struct {
	URL string
	Err error
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("feed url %q is malformed: %s", RedactURL(e.URL), redactErr(e.URL, e.Err))
}

func (e *MalformedURLError) Unwrap() error { return e.Err }

// ProviderError is an <error code=".." description=".."/> document served in
// place of a feed.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("indexer error %s: %s", e.Code, e.Description)
}

func (e *ProviderError) Gone() bool {
	return e.Code == GoneCode
}

func IsGone(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Gone()
}

// RedactURL drops the userinfo, query and fragment of link. Jackett and
// Prowlarr carry their api keys in the query.
func RedactURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		if i := strings.IndexAny(link, "?#"); i >= 0 {
			return link[:i]
		}
		return link
	}
	u.User = nil
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// redactErr renders err without the request url that net/http embeds in it.
func redactErr(link string, err error) string {
	if err == nil {
		return ""
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	msg := err.Error()
	if link != "" {
		msg = strings.ReplaceAll(msg, link, RedactURL(link))
	}
	return msg
}
