package senders

import (
	"context"
	"net/http"

	"github.com/fiffu/indexwatch/config"
	"github.com/fiffu/indexwatch/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Sender interface {
	SendItem(ctx context.Context, n *models.Notification) (string, error)
	SendText(ctx context.Context, text string) (string, error)
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return map[string]Sender{
		"telegram": &telegramSender{base},
		"email":    &mailgunSender{base},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
