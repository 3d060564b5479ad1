package numbering

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type counterRow struct {
	FinancialYear string `gorm:"primaryKey;size:16"`
	Value         int64  `gorm:"not null"`
	UpdatedAt     time.Time
}

func (counterRow) TableName() string {
	return "invoice_counters"
}

// SQLStore keeps counters in a SQL table and increments them with a
// transactional upsert.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite opens a sqlite database with a single connection so writers
// queue instead of failing with "database is locked".
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLStore creates the counter table if needed.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&counterRow{}); err != nil {
		return nil, fmt.Errorf("migrating invoice counters: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Next increments the counter for key.
func (s *SQLStore) Next(ctx context.Context, key string) (int64, error) {
	var value int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := counterRow{FinancialYear: key, Value: 1, UpdatedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "financial_year"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value":      gorm.Expr("invoice_counters.value + 1"),
				"updated_at": row.UpdatedAt,
			}),
		}).Create(&row).Error; err != nil {
			return err
		}

		var current counterRow
		if err := tx.Where("financial_year = ?", key).Take(&current).Error; err != nil {
			return err
		}
		value = current.Value
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incrementing counter %s: %w", key, err)
	}
	return value, nil
}

// Close releases the underlying connection.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
