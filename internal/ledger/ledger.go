// Package ledger owns the product stock counters. Every mutation goes
// through ApplyDelta; no other component assigns Product.Stock directly.
package ledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sdiallo/tably/internal/models"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockViolation    = errors.New("stock violation")
)

// InsufficientStockError names the product that cannot cover the requested
// quantity so the UI can highlight it.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type Requirement struct {
	ProductID string
	Quantity  int
}

type Adjustment struct {
	ProductID string
	Delta     int
}

// CheckAvailability is the advisory pre-check: it reads current stock for
// every referenced product and fails fast on the first one that cannot cover
// the requested quantity. It is an optimization for fast, product-naming
// feedback; the in-transaction guard in ApplyDelta is the actual authority.
func CheckAvailability(tx *gorm.DB, items []Requirement) error {
	for _, item := range items {
		var product models.Product
		if err := tx.Select("id", "stock").First(&product, "id = ?", item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, item.ProductID)
			}
			return err
		}
		if product.Stock < item.Quantity {
			return &InsufficientStockError{ProductID: item.ProductID}
		}
	}
	return nil
}

// ApplyDelta applies signed stock adjustments, one conditional UPDATE per
// product: the row only changes when the result stays non-negative. A zero
// RowsAffected on an existing product means the guard fired; the returned
// error makes the enclosing transaction roll back, so the batch is
// all-or-nothing. Callers must run it inside a transaction.
func ApplyDelta(tx *gorm.DB, adjustments []Adjustment) error {
	for _, adj := range adjustments {
		if adj.Delta == 0 {
			continue
		}
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock + ? >= 0", adj.ProductID, adj.Delta).
			Update("stock", gorm.Expr("stock + ?", adj.Delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Product{}).Where("id = ?", adj.ProductID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: %s", ErrNotFound, adj.ProductID)
			}
			return fmt.Errorf("%w: %w", ErrStockViolation, &InsufficientStockError{ProductID: adj.ProductID})
		}
	}
	return nil
}
