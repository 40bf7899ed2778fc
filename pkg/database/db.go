package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table: one row per key per day
type APIUsage struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	KeyID            uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date             string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount     int    `gorm:"default:0" json:"request_count"`
	TotalEmployees   int    `gorm:"default:0" json:"total_employees"`
	TotalSlots       int    `gorm:"default:0" json:"total_slots"`
	UnderfilledSlots int    `gorm:"default:0" json:"underfilled_slots"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Options struct {
	// DatabaseURL selects postgres when set.
	DatabaseURL string
	// DataPath is the sqlite file used otherwise.
	DataPath string
	Verbose  bool
}

// Open connects to postgres or sqlite and migrates the schema
func Open(opts Options) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if opts.Verbose {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var db *gorm.DB
	var err error
	if opts.DatabaseURL != "" {
		gormCfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  opts.DatabaseURL,
			PreferSimpleProtocol: true,
		}), gormCfg)
	} else {
		path := opts.DataPath
		if path == "" {
			path = "api_keys.db"
		}
		db, err = gorm.Open(sqlite.Open(path), gormCfg)
		if err == nil && strings.Contains(path, ":memory:") {
			// every new connection would see its own empty database
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				sqlDB.SetMaxOpenConns(1)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

// Usage is what one roster request adds to a key's daily totals
type Usage struct {
	Employees   int
	Slots       int
	Underfilled int
}

// RecordUsage adds one request to the key's row for date with a single-query
// upsert (supported by both Postgres and SQLite)
func RecordUsage(db *gorm.DB, keyID uint, date string, u Usage) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":     gorm.Expr("api_usages.request_count + ?", 1),
			"total_employees":   gorm.Expr("api_usages.total_employees + ?", u.Employees),
			"total_slots":       gorm.Expr("api_usages.total_slots + ?", u.Slots),
			"underfilled_slots": gorm.Expr("api_usages.underfilled_slots + ?", u.Underfilled),
		}),
	}).Create(&APIUsage{
		KeyID:            keyID,
		Date:             date,
		RequestCount:     1,
		TotalEmployees:   u.Employees,
		TotalSlots:       u.Slots,
		UnderfilledSlots: u.Underfilled,
	}).Error
}

// RecentUsage returns up to 30 most recent daily rows for a key
func RecentUsage(db *gorm.DB, keyID uint) ([]APIUsage, error) {
	var usage []APIUsage
	err := db.Where("key_id = ?", keyID).Order("date desc").Limit(30).Find(&usage).Error
	return usage, err
}

// KeyPreview shortens a key to its first three and last four characters
func KeyPreview(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
