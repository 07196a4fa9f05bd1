// internal/infrastructure/storage/store.go
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront-gateway/internal/config"
)

// RootKey namespaces every persisted slice. Bumping the version segment
// orphans old state instead of trying to migrate it, matching how the
// storefront versions its persisted store.
const RootKey = "storefront:v1"

// SchemaVersion is stored alongside each slice; rows written by another
// schema are discarded on load.
const SchemaVersion = 1

// Slice names for the two persisted state slices
const (
	SliceCart = "cart"
	SliceAuth = "auth"
)

// StateSlice is one persisted state slice for one session
type StateSlice struct {
	RootKey   string    `gorm:"primaryKey;size:64" json:"root_key"`
	SessionID string    `gorm:"primaryKey;size:64" json:"session_id"`
	Slice     string    `gorm:"primaryKey;size:32" json:"slice"`
	Version   int       `gorm:"not null" json:"version"`
	Payload   string    `gorm:"type:text" json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (StateSlice) TableName() string {
	return "state_slices"
}

// Store is the durable state-slice store. It is the gateway's analogue of
// the storefront's local-device persistence: cart and auth slices survive
// process restarts and Redis evictions.
type Store struct {
	db *gorm.DB
}

// NewConnection opens the configured database and runs auto-migration
func NewConnection(cfg *config.Config) (*Store, error) {
	var dialector gorm.Dialector

	switch cfg.Storage.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.Storage.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create storage directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Storage.SQLitePath)
	case "postgres":
		dialector = postgres.Open(cfg.GetStorageDSN())
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}

	gormLogLevel := logger.Silent
	if cfg.IsDevelopment() {
		gormLogLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	if cfg.Storage.Driver == "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access underlying connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.Storage.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Storage.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Storage.MaxLifetime)
	}

	if err := db.AutoMigrate(&StateSlice{}); err != nil {
		return nil, fmt.Errorf("state store migration failed: %w", err)
	}

	log.Println("✅ State store ready")

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing gorm handle. Intended for tests.
func NewStoreWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&StateSlice{}); err != nil {
		return nil, fmt.Errorf("state store migration failed: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveSlice persists one state slice for a session
func (s *Store) SaveSlice(sessionID, slice string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s slice: %w", slice, err)
	}

	record := StateSlice{
		RootKey:   RootKey,
		SessionID: sessionID,
		Slice:     slice,
		Version:   SchemaVersion,
		Payload:   string(data),
		UpdatedAt: time.Now().UTC(),
	}

	return s.db.Save(&record).Error
}

// LoadSlice restores one state slice for a session. Returns false when no
// compatible slice exists.
func (s *Store) LoadSlice(sessionID, slice string, out interface{}) (bool, error) {
	var record StateSlice
	err := s.db.Where("root_key = ? AND session_id = ? AND slice = ?",
		RootKey, sessionID, slice).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s slice: %w", slice, err)
	}

	// State written under a different schema is stale by definition.
	if record.Version != SchemaVersion {
		return false, nil
	}

	if err := json.Unmarshal([]byte(record.Payload), out); err != nil {
		return false, fmt.Errorf("failed to decode %s slice: %w", slice, err)
	}
	return true, nil
}

// DeleteSession removes every persisted slice of a session
func (s *Store) DeleteSession(sessionID string) error {
	return s.db.Where("root_key = ? AND session_id = ?", RootKey, sessionID).
		Delete(&StateSlice{}).Error
}

// Health checks the state store connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
