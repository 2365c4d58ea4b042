package lib

import (
	"context"

	"github.com/fiffu/indexwatch/config"
	"github.com/fiffu/indexwatch/lib/feed"
	"github.com/fiffu/indexwatch/lib/models"
	"github.com/fiffu/indexwatch/senders"
	"go.uber.org/zap"
)

type testFeed struct {
	cfg      *config.Config
	log      *zap.Logger
	client   *feed.Client
	notifier *senders.Notifier
}

// TestFeed sends the newest item of link as a notification, under the feed's
// own title. Nothing is stored.
func (svc *testFeed) TestFeed(ctx context.Context, link string) (*models.FeedItem, error) {
	fetched, err := svc.client.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}

	newest := fetched.Newest()
	if newest == nil {
		return nil, ErrEmptyFeed
	}

	if svc.cfg.CoverFromComments && newest.CoverURL == "" && newest.CommentsURL != "" {
		if cover, err := svc.client.FindCover(ctx, newest.CommentsURL); err == nil {
			newest.CoverURL = cover
		}
	}

	title := fetched.Title
	if title == "" {
		title = link
	}
	if err := svc.notifier.NotifyItem(ctx, title, newest); err != nil {
		return nil, err
	}
	return newest, nil
}
