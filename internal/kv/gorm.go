package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maintenance-tracker/internal/model"
)

// gormBackend keeps each key as one row of the kv_entries table.
type gormBackend struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormBackend creates a Backend on top of an already migrated GORM connection.
func NewGormBackend(db *gorm.DB) Backend {
	return &gormBackend{db: db, now: time.Now}
}

func (b *gormBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var entry model.KVEntry
	err := b.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return entry.Value, nil
}

func (b *gormBackend) Set(ctx context.Context, key string, value []byte) error {
	entry := model.KVEntry{Key: key, Value: value, UpdatedAt: b.now().UTC()}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (b *gormBackend) Delete(ctx context.Context, key string) error {
	if err := b.db.WithContext(ctx).Where("key = ?", key).Delete(&model.KVEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (b *gormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
