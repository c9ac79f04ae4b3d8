package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shard-profit-tracker/internal/models"
)

// AllProducts returns the product catalog keyed by product ID.
func (s *Store) AllProducts() (map[string]models.Product, error) {
	var rows []models.Product
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load product catalog: %w", err)
	}

	products := make(map[string]models.Product, len(rows))
	for _, row := range rows {
		products[row.ProductID] = row
	}
	return products, nil
}

// ProductsSorted returns the full catalog in name order, for listing.
func (s *Store) ProductsSorted() ([]models.Product, error) {
	var rows []models.Product
	if err := s.db.Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load product catalog: %w", err)
	}
	return rows, nil
}

// ProductByName does an exact display-name lookup. Returns nil (no error)
// when the name is unknown; the resolver treats that as an empty result,
// not a failure.
func (s *Store) ProductByName(name string) (*models.Product, error) {
	var product models.Product
	err := s.db.First(&product, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %q: %w", name, err)
	}
	return &product, nil
}

// ReplaceCatalog rewrites the product catalog and the recipe table together.
// Recipes receive fresh stable IDs in insertion order; re-ingesting therefore
// invalidates any previously derived profit records, which is why callers
// rerun the profit engine right after.
func (s *Store) ReplaceCatalog(products []models.Product, recipes []models.Recipe) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Product{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Recipe{}).Error; err != nil {
			return err
		}
		if len(products) > 0 {
			if err := tx.CreateInBatches(products, 500).Error; err != nil {
				return err
			}
		}
		if len(recipes) > 0 {
			if err := tx.CreateInBatches(recipes, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}

// ProductIDs returns every catalog product ID, in name order. The price
// history refresher walks this list.
func (s *Store) ProductIDs() ([]string, error) {
	var ids []string
	if err := s.db.Model(&models.Product{}).Order("name").Pluck("productID", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load product IDs: %w", err)
	}
	return ids, nil
}
