package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fiffu/indexwatch/config"
	"github.com/fiffu/indexwatch/lib/feed"
	"github.com/fiffu/indexwatch/lib/models"
	"github.com/fiffu/indexwatch/lib/store"
	"github.com/fiffu/indexwatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Store interface {
	LoadAll(ctx context.Context) (models.Indexers, error)
	Save(ctx context.Context, rec *models.Indexer) (bool, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, link string) (*models.Feed, error)
	FindCover(ctx context.Context, pageURL string) (string, error)
}

type Notifier interface {
	NotifyItem(ctx context.Context, indexer string, item *models.FeedItem) error
	NotifyDown(ctx context.Context, indexer string, cause error) error
	NotifyText(ctx context.Context, text string) error
}

type Options struct {
	Interval          time.Duration // time between the start of two sweeps
	Concurrency       int           // indexers polled at the same time
	CoverFromComments bool          // look up covers on the comments page when the feed has none
}

func NewPoller(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, st *store.Store, client *feed.Client, notifier *senders.Notifier) *Poller {
	p := New(log, st, client, notifier, Options{
		Interval:          cfg.PollInterval(),
		Concurrency:       cfg.Concurrency(),
		CoverFromComments: cfg.CoverFromComments,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop poller")
			return p.Stop(ctx)
		},
	})

	return p
}

// Poller sweeps every tracked indexer once per interval.
type Poller struct {
	log      *zap.Logger
	store    Store
	fetcher  Fetcher
	notifier Notifier
	opts     Options

	// Replaced wholesale after every sweep and on Refresh, never mutated.
	snapshot atomic.Pointer[models.Indexers]

	cancel context.CancelFunc
	done   chan struct{}
}

func New(log *zap.Logger, st Store, fetcher Fetcher, notifier Notifier, opts Options) *Poller {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Poller{log: log, store: st, fetcher: fetcher, notifier: notifier, opts: opts}
}

func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)
}

// Stop cancels the running sweep and waits for it to return, or for ctx to
// expire.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	select {
	case <-p.done:
		p.log.Sugar().Info("Poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.Refresh(ctx)
	p.announce(ctx)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.Sweep(ctx, time.Now().UTC())
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			p.Sweep(ctx, t.UTC())
		}
	}
}

// Snapshot returns the indexers the next sweep will poll.
func (p *Poller) Snapshot() models.Indexers {
	if snap := p.snapshot.Load(); snap != nil {
		return *snap
	}
	return nil
}

// Refresh reloads the snapshot from the store. On failure the previous
// snapshot is kept.
func (p *Poller) Refresh(ctx context.Context) {
	recs, err := p.store.LoadAll(ctx)
	if err != nil {
		p.log.Sugar().Errorw("Failed to reload indexers", "err", err)
		return
	}
	p.snapshot.Store(&recs)
}

func (p *Poller) announce(ctx context.Context) {
	msg := fmt.Sprintf(
		"Indexwatch has started.\nRSS Indexers: %d\nDelay: %d seconds",
		len(p.Snapshot()), int(p.opts.Interval.Seconds()),
	)
	if err := p.notifier.NotifyText(ctx, msg); err != nil {
		p.log.Sugar().Warnw("Failed to send startup message", "err", err)
	}
}
