package app

import (
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewTransport(lc fx.Lifecycle, log *zap.Logger) http.RoundTripper {
	return &transport{http.DefaultTransport, log}
}

type transport struct {
	base http.RoundTripper
	log  *zap.Logger
}

func (tpt *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	res, err := tpt.base.RoundTrip(req)

	// The path may carry a bot token, so only the host is logged.
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		tpt.log.Debug("Outbound request failed", append(fields, zap.Error(err))...)
		return res, err
	}
	tpt.log.Debug("Outbound request", append(fields, zap.Int("status", res.StatusCode))...)
	return res, nil
}
