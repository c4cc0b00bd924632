// Package db stores the download history in SQLite. A track downloaded
// twice in the same format updates its existing record instead of
// duplicating it.
package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Repository provides access to the download history database.
type Repository struct {
	db *gorm.DB
}

// NewSQLiteRepository creates a repository backed by SQLite.
func NewSQLiteRepository(dsn string, gormLogger logger.Interface) (*Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn required")
	}

	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	dbDir := filepath.Dir(dsn)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 gormLogger,
	})
	if err != nil {
		return nil, err
	}

	if err := applySQLitePragmas(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&TrackRecordModel{}); err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Repository{db: db}, nil
}

func applySQLitePragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, stmt := range pragmas {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a record, updating the existing one when the same track
// was already downloaded in the same format.
func (r *Repository) Create(ctx context.Context, record *TrackRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := toModel(record)
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "track_id"},
				{Name: "format"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"updated_at",
				"album_id",
				"album_name",
				"track_name",
				"track_number",
				"artists",
				"path",
				"size",
				"md5",
			}),
		}).Create(model).Error; err != nil {
			return err
		}
		if err := tx.Where("track_id = ? AND format = ?", model.TrackID, model.Format).First(model).Error; err != nil {
			return err
		}
		record.ID = model.ID
		record.CreatedAt = model.CreatedAt
		record.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// FindByTrackID returns the history records of one track, newest first.
func (r *Repository) FindByTrackID(ctx context.Context, trackID string) ([]*TrackRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("repository not configured")
	}
	var models []TrackRecordModel
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("updated_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	records := make([]*TrackRecord, 0, len(models))
	for _, model := range models {
		records = append(records, toInternal(model))
	}
	return records, nil
}

// Count returns the total number of history records.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&TrackRecordModel{}).Count(&count).Error
	return count, err
}

// Last returns the most recently inserted record.
func (r *Repository) Last(ctx context.Context) (*TrackRecord, error) {
	var model TrackRecordModel
	if err := r.db.WithContext(ctx).Last(&model).Error; err != nil {
		return nil, err
	}
	return toInternal(model), nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
