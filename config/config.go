package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env            string `env:"ENVIRONMENT"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	BasicAuthCreds string `env:"BASIC_AUTH_CREDS"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"config/rss.db"`
	BlackholeDir string `env:"BLACKHOLE_DIR" envDefault:"blackhole"`

	PollIntervalSecs  int  `env:"POLL_INTERVAL_SECS" envDefault:"600"`
	PollConcurrency   int  `env:"POLL_CONCURRENCY" envDefault:"5"`
	FetchTimeoutSecs  int  `env:"FETCH_TIMEOUT_SECS" envDefault:"30"`
	CoverFromComments bool `env:"COVER_FROM_COMMENTS" envDefault:"false"`

	NotifierPlatform string `env:"NOTIFIER_PLATFORM" envDefault:"telegram"`
	Telegram         struct {
		Token    string `env:"TELEGRAM_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
		ThreadID int    `env:"TELEGRAM_THREAD_ID"`
		APIBase  string `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org"`
	}
	Mailgun struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"MAILGUN_SENDER_FROM"`
		Recipient   string `env:"MAILGUN_RECIPIENT"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"10"`
	}

	log   *zap.Logger
	creds map[string]string
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	if err := env.Parse(cfg); err != nil {
		log.Sugar().Panic(err)
	}

	creds, err := cfg.parseCreds()
	switch {
	case err == nil:
	case cfg.Env == "development":
		cfg.log.Sugar().Infof("%s (credentials will be set to default in development env)", err)
		creds = map[string]string{"admin": "password"}
	case cfg.BasicAuthCreds == "":
		creds = nil
	default:
		cfg.log.Sugar().Panic(err)
	}
	cfg.creds = creds

	return cfg
}

func (cfg *Config) GetCreds() map[string]string {
	return cfg.creds
}

func (cfg *Config) PollInterval() time.Duration {
	return secondsOr(cfg.PollIntervalSecs, 600)
}

func (cfg *Config) FetchTimeout() time.Duration {
	return secondsOr(cfg.FetchTimeoutSecs, 30)
}

func (cfg *Config) Concurrency() int {
	if cfg.PollConcurrency < 1 {
		return 1
	}
	return cfg.PollConcurrency
}

func secondsOr(secs, fallback int) time.Duration {
	if secs <= 0 {
		secs = fallback
	}
	return time.Duration(secs) * time.Second
}

func (cfg *Config) parseCreds() (map[string]string, error) {
	if cfg.BasicAuthCreds == "" {
		return nil, errors.New("BASIC_AUTH_CREDS envvar must be populated")
	}

	creds := strings.Split(cfg.BasicAuthCreds, ",")
	if len(creds) == 0 {
		return nil, errors.New("BASIC_AUTH_CREDS envvar should be filled with comma-separated values -- user1:pass1,user2:pass2")
	}

	result := make(map[string]string)
	for _, cred := range creds {
		userPass := strings.Split(cred, ":")
		if len(userPass) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each credential should be delimited by a colon -- user1:pass1,user2:pass2", cred)
		}

		user, pass := userPass[0], userPass[1]
		result[strings.Trim(user, " ")] = strings.Trim(pass, " ")
	}

	return result, nil
}
