// Package store persists the cumulative-counter baseline in SQLite via GORM,
// so a reset issued by one netspeed process is seen by every other one.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vesaa/netspeed/internal/models"
)

// DefaultPath returns <user cache dir>/netspeed/state.db.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "netspeed", "state.db")
}

// Store wraps the state database.
type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// Open opens (or creates) the database at path and runs AutoMigrate.
func Open(path string, log *zap.SugaredLogger) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.AutoMigrate(&models.Baseline{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	log = log.Named("store")
	log.Debugw("opened state database", "path", path)
	return &Store{db: db, log: log}, nil
}

// Baseline returns the stored baseline. ok is false when no reset was ever recorded.
func (s *Store) Baseline() (total uint64, ok bool, err error) {
	var b models.Baseline
	err = s.db.First(&b, models.BaselineID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading baseline: %w", err)
	}
	return b.TotalBytes, true, nil
}

// SaveBaseline replaces the stored baseline.
func (s *Store) SaveBaseline(total uint64, at time.Time) error {
	b := models.Baseline{ID: models.BaselineID, TotalBytes: total, ResetAt: at}
	if err := s.db.Save(&b).Error; err != nil {
		return fmt.Errorf("saving baseline: %w", err)
	}
	s.log.Infow("baseline saved", "total_bytes", total, "reset_at", at)
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
