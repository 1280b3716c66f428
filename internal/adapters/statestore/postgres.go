package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// advisorRecordRow is the table layout for PostgresStore.
type advisorRecordRow struct {
	Key    string         `gorm:"column:key;primaryKey"`
	Record datatypes.JSON `gorm:"column:record"`
}

func (advisorRecordRow) TableName() string {
	return "advisor_records"
}

// PostgresStore implements Store on a Postgres table via gorm, one row per
// record with the serialized blob in a JSON column.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore migrates the records table and wraps the connection.
func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&advisorRecordRow{}); err != nil {
		return nil, fmt.Errorf("migrate advisor_records: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) (json.RawMessage, error) {
	var row advisorRecordRow
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query advisor_records: %w", err)
	}
	return json.RawMessage(row.Record), nil
}

func (s *PostgresStore) LoadAll(ctx context.Context) (map[string]json.RawMessage, error) {
	var rows []advisorRecordRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query advisor_records: %w", err)
	}

	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Key] = json.RawMessage(row.Record)
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, record json.RawMessage) error {
	row := advisorRecordRow{
		Key:    key,
		Record: datatypes.JSON(record),
	}

	if err := s.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		},
	).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert advisor_records: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&advisorRecordRow{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete advisor_records: %w", err)
	}
	return nil
}

func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).Model(&advisorRecordRow{}).Pluck("key", &keys).Error; err != nil {
		return nil, fmt.Errorf("enumerate advisor_records: %w", err)
	}
	return keys, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&advisorRecordRow{}).Error; err != nil {
		return fmt.Errorf("clear advisor_records: %w", err)
	}
	return nil
}
