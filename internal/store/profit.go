package store

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shard-profit-tracker/internal/models"
)

// ReplaceProfitRecords rebuilds the derived profitability table in one
// transaction. On failure the previous table survives untouched; readers
// mid-rebuild see either the old set or the new one, never the gap.
func (s *Store) ReplaceProfitRecords(records []models.ProfitRecord) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ProfitRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 500).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace profit records: %w", err)
	}

	s.logger.Info("Rebuilt profit table", zap.Int("records", len(records)))
	return nil
}

// AllProfitRecords returns the derived table sorted by profit, best first.
func (s *Store) AllProfitRecords() ([]models.ProfitRecord, error) {
	var records []models.ProfitRecord
	if err := s.db.Order("profit DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load profit records: %w", err)
	}
	return records, nil
}

// ProfitRecordsByOutput returns every record producing the given display
// name. An output with alternate recipes yields several rows.
func (s *Store) ProfitRecordsByOutput(outputName string) ([]models.ProfitRecord, error) {
	var records []models.ProfitRecord
	if err := s.db.Where("output_item = ?", outputName).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load profit records for %q: %w", outputName, err)
	}
	return records, nil
}
