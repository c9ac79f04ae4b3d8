package store

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shard-profit-tracker/internal/bazaar"
	"shard-profit-tracker/internal/models"
)

// ReplaceQuotes atomically swaps the bazaar snapshot for a fresh one. The
// caller fetches the feed before calling this, so a failed fetch never
// clears existing data.
//
// For every configured legacy alias whose target appears in the feed, the
// target's quote is persisted a second time under the legacy product ID.
// Recipes written before the rename keep pricing correctly that way.
func (s *Store) ReplaceQuotes(quotes map[string]bazaar.QuickStatus) error {
	rows := make([]models.BazaarQuote, 0, len(quotes)+len(s.aliases))
	for productID, status := range quotes {
		rows = append(rows, quoteRow(productID, status))
	}

	for legacyID, currentID := range s.aliases {
		status, ok := quotes[currentID]
		if !ok {
			s.logger.Warn("Alias target missing from bazaar feed",
				zap.String("legacy_id", legacyID),
				zap.String("current_id", currentID))
			continue
		}
		if _, shadowed := quotes[legacyID]; shadowed {
			// The feed has resurrected the legacy entry; leave it alone.
			continue
		}
		rows = append(rows, quoteRow(legacyID, status))
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.BazaarQuote{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace bazaar snapshot: %w", err)
	}

	s.logger.Info("Replaced bazaar snapshot", zap.Int("products", len(rows)))
	return nil
}

// AllQuotes returns the current snapshot keyed by product ID.
func (s *Store) AllQuotes() (map[string]models.BazaarQuote, error) {
	var rows []models.BazaarQuote
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load bazaar snapshot: %w", err)
	}

	quotes := make(map[string]models.BazaarQuote, len(rows))
	for _, row := range rows {
		quotes[row.ProductID] = row
	}
	return quotes, nil
}

func quoteRow(productID string, status bazaar.QuickStatus) models.BazaarQuote {
	return models.BazaarQuote{
		ProductID:      productID,
		SellPrice:      status.SellPrice,
		SellVolume:     status.SellVolume,
		SellMovingWeek: status.SellMovingWeek,
		SellOrders:     status.SellOrders,
		BuyPrice:       status.BuyPrice,
		BuyVolume:      status.BuyVolume,
		BuyMovingWeek:  status.BuyMovingWeek,
		BuyOrders:      status.BuyOrders,
	}
}
