package main

import (
	"net/http"
	"os"
	"time"

	"github.com/fiffu/indexwatch/app"
	"github.com/fiffu/indexwatch/config"
	"github.com/fiffu/indexwatch/lib"
	"github.com/fiffu/indexwatch/lib/blackhole"
	"github.com/fiffu/indexwatch/lib/feed"
	"github.com/fiffu/indexwatch/lib/poller"
	"github.com/fiffu/indexwatch/lib/store"
	"github.com/fiffu/indexwatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	var logCfg zap.Config
	switch os.Getenv("ENVIRONMENT") {
	default:
		logCfg = zap.NewDevelopmentConfig()

	case "production":
		logCfg = zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		level, err := zap.ParseAtomicLevel(lvl)
		if err != nil {
			return nil, err
		}
		logCfg.Level = level
	}
	return logCfg.Build()
}

func main() {
	fx.New(
		fx.Provide(NewLogger),
		fx.Provide(config.NewConfig),

		fx.Provide(app.NewTransport),
		fx.Provide(app.NewDatabase),
		fx.Provide(store.NewStore),
		fx.Provide(feed.NewClient),

		fx.Provide(senders.NewSenderRegistry),
		fx.Provide(senders.NewNotifier),
		fx.Provide(blackhole.NewWriter),

		fx.Provide(poller.NewPoller),
		fx.Provide(lib.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*http.Server, *poller.Poller) {}),
	).Run()
}
