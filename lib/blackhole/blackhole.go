package blackhole

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/fiffu/indexwatch/config"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// MaxFilenameLength is the longest name CleanFilename returns.
const MaxFilenameLength = 255

var (
	ErrMagnet        = errors.New("the torrent is a magnet link, it can't be added using blackhole")
	ErrEmptyDownload = errors.New("can't obtain .torrent file data")
	ErrEmptyFilename = errors.New("can't obtain .torrent file name")
)

const allowedChars = "-_.() abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Writer drops downloaded .torrent files into the directory watched by the
// torrent client.
type Writer struct {
	log       *zap.Logger
	dir       string
	transport http.RoundTripper
}

func NewWriter(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *Writer {
	return &Writer{log, cfg.BlackholeDir, transport}
}

// Store downloads downloadURL into the blackhole under a cleaned version of
// filenameHint and returns the saved path.
func (w *Writer) Store(ctx context.Context, filenameHint, downloadURL string) (string, error) {
	if strings.HasPrefix(downloadURL, "magnet:") {
		return "", ErrMagnet
	}

	name := CleanFilename(filenameHint, w.log)
	if strings.Trim(strings.TrimSuffix(name, ".torrent"), "._") == "" {
		return "", ErrEmptyFilename
	}

	var data bytes.Buffer
	err := requests.URL(downloadURL).
		Transport(w.transport).
		ToBytesBuffer(&data).
		Fetch(ctx)
	if err != nil {
		// Indexers answer with a redirect to the magnet link when there is no file.
		if strings.Contains(err.Error(), "magnet:?") {
			return "", ErrMagnet
		}
		// The url error repeats the link along with its api key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("downloading %s: %w", name, err)
	}
	if data.Len() == 0 {
		return "", ErrEmptyDownload
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(w.dir, name)
	if err := writeFileAtomic(path, data.Bytes()); err != nil {
		return "", err
	}

	w.log.Sugar().Infow("Saved torrent to blackhole", "path", path, "bytes", data.Len())
	return path, nil
}

// writeFileAtomic writes through a hidden temp file so the watcher never
// picks up a partial torrent.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".incoming-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// CleanFilename makes filename safe to drop into the blackhole: ASCII only,
// spaces as underscores, nothing outside [A-Za-z0-9-_.() ], at most
// MaxFilenameLength characters. Applying it twice changes nothing.
func CleanFilename(filename string, log *zap.Logger) string {
	decomposed := norm.NFKD.String(filename)

	var b strings.Builder
	for _, r := range decomposed {
		if r == ' ' {
			r = '_'
		}
		if r < 0x80 && strings.ContainsRune(allowedChars, r) {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if len(cleaned) > MaxFilenameLength {
		if log != nil {
			log.Sugar().Warnf("Filename truncated because it was over %d. Filenames may no longer be unique.", MaxFilenameLength)
		}
		cleaned = cleaned[:MaxFilenameLength]
	}
	return cleaned
}
