package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fiffu/indexwatch/config"
	"github.com/fiffu/indexwatch/lib"
	"github.com/fiffu/indexwatch/lib/blackhole"
	"github.com/fiffu/indexwatch/lib/feed"
	"github.com/fiffu/indexwatch/lib/models"
	"github.com/fiffu/indexwatch/lib/poller"
	"github.com/fiffu/indexwatch/lib/store"
	"github.com/fiffu/indexwatch/senders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

const feedBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Foo Tracker</title>
<item><title>Some.Movie</title><guid>1</guid><pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate><category>2000</category></item>
</channel></rss>`

type nopSender struct{}

func (nopSender) SendItem(ctx context.Context, n *models.Notification) (string, error) {
	return "1", nil
}

func (nopSender) SendText(ctx context.Context, text string) (string, error) {
	return "1", nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BASIC_AUTH_CREDS", "admin:secret")
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "rss.db"))
	t.Setenv("BLACKHOLE_DIR", filepath.Join(dir, "blackhole"))
	t.Setenv("NOTIFIER_PLATFORM", "nop")

	log := zap.NewNop()
	lc := fxtest.NewLifecycle(t)
	cfg := config.NewConfig(lc, log)

	st := store.NewStore(log, NewDatabase(lc, cfg, log))
	notifier, err := senders.NewNotifier(cfg, log, senders.Registry{"nop": nopSender{}})
	require.NoError(t, err)
	client := feed.NewClient(cfg, log, http.DefaultTransport)
	p := poller.New(log, st, client, notifier, poller.Options{Interval: time.Hour})
	bh := blackhole.NewWriter(cfg, log, http.DefaultTransport)

	return router(cfg, log, lib.NewService(lc, cfg, log, st, client, p, notifier, bh))
}

func do(h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresAuth(t *testing.T) {
	h := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/indexers", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIndexerRoundTrip(t *testing.T) {
	h := newTestRouter(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	rec := do(h, http.MethodPost, "/api/indexers", url.Values{"name": {"Foo"}, "url": {srv.URL}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var added IndexerView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.Equal(t, IndexerView{
		Name:        "Foo",
		Link:        srv.URL,
		LastPubDate: "Mon, 01 Jan 2024 00:00:00 +0000",
		Status:      "up",
		RecentItems: 1,
	}, added)

	rec = do(h, http.MethodGet, "/api/indexers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []IndexerView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Foo", listed[0].Name)

	rec = do(h, http.MethodGet, "/api/indexers/Foo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/api/indexers/test", url.Values{"url": {srv.URL}})
	require.Equal(t, http.StatusOK, rec.Code)
	var item ItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "Some.Movie", item.Title)
	assert.Equal(t, "movie", item.Category)

	rec = do(h, http.MethodDelete, "/api/indexers/Foo", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodDelete, "/api/indexers/Foo", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodGet, "/api/indexers/Foo", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddIndexerValidation(t *testing.T) {
	h := newTestRouter(t)

	rec := do(h, http.MethodPost, "/api/indexers", url.Values{"name": {"Foo"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/indexers", url.Values{"name": {"Foo Bar"}, "url": {"https://foo.example/rss"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/indexers", url.Values{"name": {"Foo"}, "url": {"foo.example/rss"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlackholeRejectsMagnets(t *testing.T) {
	h := newTestRouter(t)

	rec := do(h, http.MethodPost, "/api/blackhole", url.Values{"url": {"magnet:?xt=urn:btih:abc"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{lib.ErrIndexerNotFound, http.StatusNotFound},
		{lib.ErrInvalidName, http.StatusBadRequest},
		{&feed.MalformedURLError{URL: "x", Err: errors.New("bad")}, http.StatusBadRequest},
		{&feed.FormatError{URL: "x", Err: errors.New("bad")}, http.StatusBadRequest},
		{lib.ErrEmptyFeed, http.StatusUnprocessableEntity},
		{blackhole.ErrMagnet, http.StatusUnprocessableEntity},
		{&feed.ProviderError{Code: "410"}, http.StatusBadGateway},
		{&feed.TransportError{URL: "x", Err: errors.New("refused")}, http.StatusBadGateway},
		{&store.PersistenceError{Op: "load", Err: errors.New("locked")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}
