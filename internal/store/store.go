package store

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shard-profit-tracker/internal/models"
)

// Store wraps all table-level operations on the shard database. Write paths
// that replace whole tables run inside a single transaction so readers never
// observe a half-populated state.
type Store struct {
	db      *gorm.DB
	logger  *zap.Logger
	aliases map[string]string // legacy product ID -> current product ID
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB, logger *zap.Logger, aliases map[string]string) *Store {
	return &Store{
		db:      db,
		logger:  logger,
		aliases: aliases,
	}
}

// DB exposes the underlying handle for callers that compose their own
// queries (the API layer's read paths).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// AllRecipes returns every recipe in stable-ID order.
func (s *Store) AllRecipes() ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := s.db.Order("id").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	return recipes, nil
}

// SetMeta upserts a bookkeeping value.
func (s *Store) SetMeta(key, value string) error {
	meta := models.MetaInfo{Key: key, Value: value}
	if err := s.db.Save(&meta).Error; err != nil {
		return fmt.Errorf("failed to set meta %q: %w", key, err)
	}
	return nil
}

// GetMeta returns a bookkeeping value, or "" when the key was never set.
func (s *Store) GetMeta(key string) (string, error) {
	var meta models.MetaInfo
	err := s.db.First(&meta, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta %q: %w", key, err)
	}
	return meta.Value, nil
}
