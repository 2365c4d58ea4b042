package senders

import (
	"context"
	"fmt"

	"github.com/fiffu/indexwatch/config"
	"github.com/fiffu/indexwatch/lib/models"
	"go.uber.org/zap"
)

// Notifier delivers everything to the one platform picked by configuration.
type Notifier struct {
	log      *zap.Logger
	platform string
	sender   Sender
}

func NewNotifier(cfg *config.Config, log *zap.Logger, registry Registry) (*Notifier, error) {
	sender, ok := registry[cfg.NotifierPlatform]
	if !ok {
		return nil, fmt.Errorf("unsupported notifier platform: %s", cfg.NotifierPlatform)
	}
	return &Notifier{log, cfg.NotifierPlatform, sender}, nil
}

func (n *Notifier) NotifyItem(ctx context.Context, indexer string, item *models.FeedItem) error {
	id, err := n.sender.SendItem(ctx, &models.Notification{Indexer: indexer, Item: item})
	if err != nil {
		n.log.Sugar().Infow("Failed to send item", "platform", n.platform, "indexer", indexer, "err", err)
		return err
	}
	n.log.Sugar().Debugw("Sent item", "platform", n.platform, "indexer", indexer, "title", item.Title, "message_id", id)
	return nil
}

func (n *Notifier) NotifyDown(ctx context.Context, indexer string, cause error) error {
	return n.NotifyText(ctx, fmt.Sprintf("ERROR: Indexer %s not available due to some issue: %v", indexer, cause))
}

func (n *Notifier) NotifyText(ctx context.Context, text string) error {
	id, err := n.sender.SendText(ctx, text)
	if err != nil {
		n.log.Sugar().Infow("Failed to send message", "platform", n.platform, "err", err)
		return err
	}
	n.log.Sugar().Debugw("Sent message", "platform", n.platform, "message_id", id)
	return nil
}
