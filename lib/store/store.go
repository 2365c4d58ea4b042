package store

import (
	"context"
	"fmt"

	"github.com/fiffu/indexwatch/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PersistenceError wraps any failure of the underlying database.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store keeps one Indexer row per name. Every write is a single statement, so
// concurrent writers never observe a half-written record.
type Store struct {
	log *zap.Logger
	db  *gorm.DB
}

func NewStore(log *zap.Logger, db *gorm.DB) *Store {
	s := &Store{log, db}
	if err := s.Migrate(); err != nil {
		// Keep running; every later call reports its own PersistenceError.
		log.Sugar().Errorw("Failed to create indexers table", "err", err)
	}
	return s
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.Indexer{}); err != nil {
		return &PersistenceError{"migrate", err}
	}
	return nil
}

func (s *Store) LoadAll(ctx context.Context) (models.Indexers, error) {
	var recs models.Indexers
	tx := s.db.WithContext(ctx).Order("name").Find(&recs)
	if err := tx.Error; err != nil {
		return nil, &PersistenceError{"load", err}
	}
	return recs, nil
}

func (s *Store) Get(ctx context.Context, name string) (*models.Indexer, bool, error) {
	var recs models.Indexers
	tx := s.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&recs)
	if err := tx.Error; err != nil {
		return nil, false, &PersistenceError{"get", err}
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return &recs[0], true, nil
}

// Upsert inserts rec or replaces the row with the same name.
func (s *Store) Upsert(ctx context.Context, rec *models.Indexer) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"link", "last_pub_date", "recent_guids", "health"}),
		}).
		Create(rec)
	if err := tx.Error; err != nil {
		return &PersistenceError{"upsert", err}
	}
	return nil
}

// Save writes back the polling state of rec, but only while a row with the
// same name and link exists. It reports false when the indexer was removed or
// re-added with another link in the meantime.
func (s *Store) Save(ctx context.Context, rec *models.Indexer) (bool, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.Indexer{}).
		Where("name = ? AND link = ?", rec.Name, rec.Link).
		Updates(map[string]any{
			"last_pub_date": rec.LastPubDate,
			"recent_guids":  rec.RecentGUIDs,
			"health":        rec.Health,
		})
	if err := tx.Error; err != nil {
		return false, &PersistenceError{"save", err}
	}
	return tx.RowsAffected > 0, nil
}

func (s *Store) Remove(ctx context.Context, name string) (bool, error) {
	tx := s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Indexer{})
	if err := tx.Error; err != nil {
		return false, &PersistenceError{"remove", err}
	}
	return tx.RowsAffected > 0, nil
}
