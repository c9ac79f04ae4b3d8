package store

import (
	"fmt"

	"gorm.io/gorm/clause"

	"shard-profit-tracker/internal/models"
)

// InsertSamples appends price history samples, silently skipping any
// (product, timestamp) pair already present.
func (s *Store) InsertSamples(samples []models.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(samples, 500).Error
	if err != nil {
		return fmt.Errorf("failed to insert price samples: %w", err)
	}
	return nil
}

// LatestSampleTimestamp returns the newest stored history timestamp across
// all products, or "" when the table is empty.
func (s *Store) LatestSampleTimestamp() (string, error) {
	var latest *string
	err := s.db.Model(&models.PriceSample{}).
		Select("MAX(timestamp)").
		Scan(&latest).Error
	if err != nil {
		return "", fmt.Errorf("failed to read latest sample timestamp: %w", err)
	}
	if latest == nil {
		return "", nil
	}
	return *latest, nil
}

// SamplesFor returns the stored history for one product in time order.
func (s *Store) SamplesFor(productID string) ([]models.PriceSample, error) {
	var samples []models.PriceSample
	err := s.db.Where("product_id = ?", productID).
		Order("timestamp").
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load price history for %s: %w", productID, err)
	}
	return samples, nil
}
