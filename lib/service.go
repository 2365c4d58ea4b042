package lib

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fiffu/indexwatch/config"
	"github.com/fiffu/indexwatch/lib/blackhole"
	"github.com/fiffu/indexwatch/lib/feed"
	"github.com/fiffu/indexwatch/lib/models"
	"github.com/fiffu/indexwatch/lib/poller"
	"github.com/fiffu/indexwatch/lib/store"
	"github.com/fiffu/indexwatch/senders"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrIndexerNotFound = errors.New("indexer not found")
	ErrInvalidName     = errors.New("indexer title must be a single non-empty word")
	ErrEmptyFeed       = errors.New("feed has no items")
)

// Service is the operator-facing surface for managing indexers.
type Service struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *store.Store
	poller    *poller.Poller
	blackhole *blackhole.Writer

	*addIndexer
	*testFeed
}

func NewService(
	lc fx.Lifecycle, cfg *config.Config, log *zap.Logger,
	st *store.Store, client *feed.Client, p *poller.Poller,
	notifier *senders.Notifier, bh *blackhole.Writer,
) *Service {
	return &Service{
		cfg, log, st, p, bh,
		&addIndexer{log, st, client, p},
		&testFeed{cfg, log, client, notifier},
	}
}

func (svc *Service) RemoveIndexer(ctx context.Context, name string) error {
	found, err := svc.store.Remove(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("can't remove %s: %w", name, ErrIndexerNotFound)
	}
	svc.poller.Refresh(ctx)
	svc.log.Sugar().Infow("Indexer removed", "indexer", name)
	return nil
}

func (svc *Service) ListIndexers(ctx context.Context) (models.Indexers, error) {
	return svc.store.LoadAll(ctx)
}

func (svc *Service) GetIndexer(ctx context.Context, name string) (*models.Indexer, error) {
	rec, found, err := svc.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", name, ErrIndexerNotFound)
	}
	return rec, nil
}

// Blackhole saves the torrent behind downloadURL into the blackhole folder.
func (svc *Service) Blackhole(ctx context.Context, downloadURL string) (string, error) {
	return svc.blackhole.Store(ctx, torrentFilename(downloadURL), downloadURL)
}

// torrentFilename takes the name Jackett puts in the "file" query parameter of
// its download links, or makes one up.
func torrentFilename(downloadURL string) string {
	const suffix = ".torrent"

	name := ""
	if u, err := url.Parse(downloadURL); err == nil {
		name = blackhole.CleanFilename(strings.TrimSpace(u.Query().Get("file")), nil)
	}
	if max := blackhole.MaxFilenameLength - len(suffix); len(name) > max {
		name = name[:max]
	}
	// Titles in non-Latin scripts clean down to nothing.
	if strings.Trim(name, "._") == "" {
		name = uuid.NewString()
	}
	return name + suffix
}
