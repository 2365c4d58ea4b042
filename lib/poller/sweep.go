package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fiffu/indexwatch/lib/feed"
	"github.com/fiffu/indexwatch/lib/models"
	"go.uber.org/zap"
)

// Sweep polls every indexer of the current snapshot once, then refreshes the
// snapshot. Failures are contained per indexer.
func (p *Poller) Sweep(ctx context.Context, sweepStartTime time.Time) {
	snap := p.Snapshot()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		metrics = &sweepMetrics{}
		sem     = make(chan struct{}, p.opts.Concurrency)
	)
	collect := func(m *sweepMetrics) {
		mu.Lock()
		defer mu.Unlock()
		metrics.Add(m)
	}

dispatch:
	for _, rec := range snap {
		if rec.Health == models.HealthDisabled {
			collect(&sweepMetrics{skipped: 1})
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		wg.Add(1)
		go func(rec models.Indexer) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					p.log.Sugar().Errorw("Panic while polling indexer", "indexer", rec.Name, "panic", r)
					collect(&sweepMetrics{polled: 1, errored: 1})
				}
			}()
			collect(p.pollIndexer(ctx, rec))
		}(rec)
	}
	wg.Wait()

	if metrics.polled > 0 || metrics.skipped > 0 {
		p.log.Sugar().Infow(
			fmt.Sprintf("Polled %d indexers", metrics.polled),
			metrics.logArgs()...,
		)
	}

	if ctx.Err() == nil {
		p.Refresh(ctx)
	}

	elapsed := time.Now().UTC().Sub(sweepStartTime)
	metrics.export(elapsed)
	p.log.Sugar().Infow("Sweep completed", "elapsed_msecs", int(elapsed.Milliseconds()))
}

func (p *Poller) pollIndexer(ctx context.Context, rec models.Indexer) *sweepMetrics {
	log := p.log.Sugar().With("indexer", rec.Name)

	fetched, err := p.fetcher.Fetch(ctx, rec.Link)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down; leave the indexer as it was.
			return &sweepMetrics{}
		}
		return p.handleFailure(ctx, log, rec, err)
	}

	m := &sweepMetrics{polled: 1}
	newItems, updated := DetectNew(rec, fetched.Items)
	updated.Health, _ = rec.Health.Next(models.OutcomeSuccess)
	if rec.Health != models.HealthUp {
		log.Infow("Indexer is available again", "previous", rec.Health.String())
	}

	for i := range newItems {
		if ctx.Err() != nil {
			// Keep what was already sent; the rest goes out after restart.
			if i > 0 {
				partial := Advance(rec, newItems[:i], len(fetched.Items))
				partial.Health = updated.Health
				if err := p.save(ctx, log, &partial); err != nil {
					m.errored++
				}
			}
			return m
		}

		item := &newItems[i]
		p.enrich(ctx, log, item)
		if err := p.notifier.NotifyItem(ctx, rec.Name, item); err != nil {
			// The GUID stays in the window: a lost message beats a repeated one.
			log.Warnw("Failed to send item", "guid", item.GUID, "err", err)
			m.undelivered++
			continue
		}
		m.notified++
	}
	if len(newItems) == 0 {
		m.unchanged++
	}

	if err := p.save(ctx, log, &updated); err != nil {
		m.errored++
	}
	return m
}

func (p *Poller) handleFailure(ctx context.Context, log *zap.SugaredLogger, rec models.Indexer, cause error) *sweepMetrics {
	m := &sweepMetrics{polled: 1}

	outcome := models.OutcomeFailure
	if feed.IsGone(cause) {
		outcome = models.OutcomeGone
	}
	next, notifyDown := rec.Health.Next(outcome)

	switch {
	case outcome == models.OutcomeGone:
		m.disabled++
		log.Infow("Indexer is disabled", "err", cause)
	case notifyDown:
		m.errored++
		log.Errorw("Indexer not available", "err", cause)
		if err := p.notifier.NotifyDown(ctx, rec.Name, cause); err != nil {
			log.Warnw("Failed to send down alert", "err", err)
		}
	default:
		m.errored++
		log.Debugw("Indexer still not available", "err", cause)
	}

	if next != rec.Health {
		rec.Health = next
		if err := p.save(ctx, log, &rec); err != nil {
			m.errored++
		}
	}
	return m
}

func (p *Poller) save(ctx context.Context, log *zap.SugaredLogger, rec *models.Indexer) error {
	// Writes are single statements; finish them even while shutting down.
	ok, err := p.store.Save(context.WithoutCancel(ctx), rec)
	if err != nil {
		log.Errorw("Failed to save indexer", "err", err)
		return err
	}
	if !ok {
		log.Infow("Indexer was removed or replaced during the sweep, dropping its update")
	}
	return nil
}

func (p *Poller) enrich(ctx context.Context, log *zap.SugaredLogger, item *models.FeedItem) {
	if !p.opts.CoverFromComments || item.CoverURL != "" || item.CommentsURL == "" {
		return
	}
	cover, err := p.fetcher.FindCover(ctx, item.CommentsURL)
	if err != nil {
		log.Debugw("No cover found on comments page", "url", item.CommentsURL, "err", err)
		return
	}
	item.CoverURL = cover
}
