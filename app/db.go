package app

import (
	"os"
	"path/filepath"

	"github.com/fiffu/indexwatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *gorm.DB {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Sugar().Errorw("Failed to create database directory", "dir", dir, "err", err)
		}
	}

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath+"?_busy_timeout=5000"), gormCfg)
	if err != nil {
		// Run on an empty in-memory store rather than not at all.
		log.Sugar().Errorw("Failed to open database, indexers will not survive a restart", "path", cfg.DatabasePath, "err", err)
		db, err = gorm.Open(sqlite.Open(inMemoryDSN), gormCfg)
		if err != nil {
			log.Sugar().Panicw("failed to connect database", "err", err)
		}
	}
	log.Info("Database started", zap.String("path", cfg.DatabasePath))

	return db
}

const inMemoryDSN = "file::memory:?cache=shared"

