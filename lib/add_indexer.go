package lib

import (
	"context"
	"strings"
	"time"

	"github.com/fiffu/indexwatch/lib/feed"
	"github.com/fiffu/indexwatch/lib/models"
	"github.com/fiffu/indexwatch/lib/poller"
	"github.com/fiffu/indexwatch/lib/store"
	"go.uber.org/zap"
)

type addIndexer struct {
	log    *zap.Logger
	store  *store.Store
	client *feed.Client
	poller *poller.Poller
}

// AddIndexer starts tracking link under name, replacing any indexer with the
// same name. The feed must be fetchable and parseable before anything is
// stored.
func (svc *addIndexer) AddIndexer(ctx context.Context, name, link string) (*models.Indexer, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return nil, ErrInvalidName
	}
	link = strings.TrimSpace(link)

	fetched, err := svc.client.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}

	rec := &models.Indexer{
		Name:        name,
		Link:        link,
		RecentGUIDs: models.GUIDWindow{},
		Health:      models.HealthUp,
	}
	if newest := fetched.Newest(); newest != nil {
		rec.LastPubDate = newest.PubDate
		// Items on the watermark pass the next sweep's filter; mark them seen.
		for _, item := range fetched.Items {
			if item.PubDate.Equal(newest.PubDate.Time) && !rec.RecentGUIDs.Contains(item.GUID) {
				rec.RecentGUIDs = append(rec.RecentGUIDs, item.GUID)
			}
		}
	} else {
		// Nothing to seed from; only items published from now on are new.
		rec.LastPubDate = models.NewPubDate(time.Now().Truncate(time.Second))
	}

	if err := svc.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	svc.poller.Refresh(ctx)

	svc.log.Sugar().Infow("Indexer added", "indexer", name, "link", link, "last_pubdate", rec.LastPubDate.String())
	return rec, nil
}
