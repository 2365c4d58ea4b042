package blackhole

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fiffu/indexwatch/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanFilename(t *testing.T) {
	tests := map[string]string{
		"Some Movie (2023).torrent":        "Some_Movie_(2023).torrent",
		"Café Éclair.torrent":              "Cafe_Eclair.torrent",
		"a/b\\c:d*e?f\"g<h>i|j.torrent":    "abcdefghij.torrent",
		"ﬁle①.torrent":                     "file1.torrent",
		"日本語.torrent":                      ".torrent",
		"already_clean-name.v2.torrent":    "already_clean-name.v2.torrent",
		"":                                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanFilename(in, zap.NewNop()), "input %q", in)
	}
}

func TestCleanFilename_Properties(t *testing.T) {
	inputs := []string{
		"Some Movie (2023).torrent",
		"Ünïcödé   spaces\t.torrent",
		strings.Repeat("x", 300) + ".torrent",
		strings.Repeat("é", 400),
		"../../etc/passwd",
	}
	for _, in := range inputs {
		once := CleanFilename(in, zap.NewNop())
		assert.Equal(t, once, CleanFilename(once, zap.NewNop()), "idempotent for %q", in)
		assert.LessOrEqual(t, len(once), MaxFilenameLength)
		for _, r := range once {
			assert.True(t, strings.ContainsRune(allowedChars, r) && r != ' ', "unexpected %q in %q", r, once)
		}
	}
}

func newTestWriter(t *testing.T) (*Writer, string) {
	dir := filepath.Join(t.TempDir(), "blackhole")
	return NewWriter(&config.Config{BlackholeDir: dir}, zap.NewNop(), http.DefaultTransport), dir
}

func TestStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("d8:announce...e"))
	}))
	defer srv.Close()

	w, dir := newTestWriter(t)
	path, err := w.Store(context.Background(), "Some Movie.torrent", srv.URL+"/dl/1")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Some_Movie.torrent"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "d8:announce...e", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_Magnet(t *testing.T) {
	w, _ := newTestWriter(t)

	_, err := w.Store(context.Background(), "x.torrent", "magnet:?xt=urn:btih:abc")
	assert.ErrorIs(t, err, ErrMagnet)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "magnet:?xt=urn:btih:abc", http.StatusFound)
	}))
	defer srv.Close()

	_, err = w.Store(context.Background(), "x.torrent", srv.URL)
	assert.ErrorIs(t, err, ErrMagnet)
}

func TestStore_EmptyDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	w, dir := newTestWriter(t)
	_, err := w.Store(context.Background(), "x.torrent", srv.URL)
	assert.ErrorIs(t, err, ErrEmptyDownload)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_EmptyFilename(t *testing.T) {
	w, _ := newTestWriter(t)

	for _, hint := range []string{"", "日本語", "..", "日本語.torrent"} {
		_, err := w.Store(context.Background(), hint, "http://unused.example/dl")
		assert.ErrorIs(t, err, ErrEmptyFilename, "hint %q", hint)
	}
}

func TestStore_ErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	link := srv.URL + "/dl/foo/?jackett_apikey=SECRETKEY123&path=x"
	srv.Close()

	w, _ := newTestWriter(t)
	_, err := w.Store(context.Background(), "x.torrent", link)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRETKEY123")
}
