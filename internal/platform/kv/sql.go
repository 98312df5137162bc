package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type entry struct {
	Key       string `gorm:"column:kv_key;primaryKey;size:191"`
	Value     []byte
	UpdatedAt time.Time
}

func (entry) TableName() string { return "closeboard_kv" }

// SQL persists values through gorm; any gorm dialect works (SQLite in practice).
type SQL struct {
	db *gorm.DB
}

// NewSQL migrates the key-value table and returns the backend.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if db == nil {
		return nil, errors.New("kv: gorm db required")
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("kv: migrate: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Load(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := s.db.WithContext(ctx).Where("kv_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: sql load %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *SQL) Save(ctx context.Context, key string, value []byte) error {
	return upsert(s.db.WithContext(ctx), key, value)
}

// SaveMany writes all keys in a single transaction.
func (s *SQL) SaveMany(ctx context.Context, values map[string][]byte) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range values {
			if err := upsert(tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsert(db *gorm.DB, key string, value []byte) error {
	e := entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("kv: sql save %s: %w", key, err)
	}
	return nil
}
