package feed

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImageURL(t *testing.T) {
	tests := map[string]string{
		`<html><head><meta property="og:image" content="https://img.example/og.jpg"></head></html>`:   "https://img.example/og.jpg",
		`<html><head><meta name="twitter:image" content="https://img.example/tw.jpg"></head></html>`: "https://img.example/tw.jpg",
		`<html><head><title>nothing</title></head></html>`:                                            "",
	}
	for page, want := range tests {
		doc, err := htmlquery.Parse(strings.NewReader(page))
		require.NoError(t, err)
		assert.Equal(t, want, ExtractImageURL(doc))
	}
}

func TestFindCover(t *testing.T) {
	srv := serve(http.StatusOK, `<html><head>
		<meta name="twitter:image" content="https://img.example/tw.jpg">
		<meta property="og:image" content="https://img.example/og.jpg">
	</head></html>`)
	defer srv.Close()

	cover, err := newTestClient().FindCover(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/og.jpg", cover)
}
