package ledger

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sdiallo/tably/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:         name,
		Price:        10,
		Stock:        stock,
		CategoryID:   "cat",
		RestaurantID: "resto",
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func stockOf(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func TestCheckAvailability(t *testing.T) {
	db := initTestDB(t)
	a := seedProduct(t, db, "thiéboudienne", 5)
	b := seedProduct(t, db, "yassa", 2)

	err := CheckAvailability(db, []Requirement{
		{ProductID: a.ID, Quantity: 5},
		{ProductID: b.ID, Quantity: 2},
	})
	require.NoError(t, err)

	err = CheckAvailability(db, []Requirement{
		{ProductID: a.ID, Quantity: 1},
		{ProductID: b.ID, Quantity: 3},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInsufficientStock))

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	require.Equal(t, b.ID, insufficient.ProductID)
}

func TestCheckAvailabilityUnknownProduct(t *testing.T) {
	db := initTestDB(t)

	err := CheckAvailability(db, []Requirement{{ProductID: "missing", Quantity: 1}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestApplyDeltaDecrementAndRestore(t *testing.T) {
	db := initTestDB(t)
	p := seedProduct(t, db, "mafé", 5)

	require.NoError(t, ApplyDelta(db, []Adjustment{{ProductID: p.ID, Delta: -5}}))
	require.Equal(t, 0, stockOf(t, db, p.ID))

	require.NoError(t, ApplyDelta(db, []Adjustment{{ProductID: p.ID, Delta: 2}}))
	require.Equal(t, 2, stockOf(t, db, p.ID))
}

func TestApplyDeltaGuardRejectsNegative(t *testing.T) {
	db := initTestDB(t)
	p := seedProduct(t, db, "mafé", 0)

	err := ApplyDelta(db, []Adjustment{{ProductID: p.ID, Delta: -1}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrStockViolation))
	require.True(t, errors.Is(err, ErrInsufficientStock))
	require.Equal(t, 0, stockOf(t, db, p.ID))
}

func TestApplyDeltaAllOrNothing(t *testing.T) {
	db := initTestDB(t)
	a := seedProduct(t, db, "thiéboudienne", 10)
	b := seedProduct(t, db, "yassa", 1)

	// The first adjustment would succeed on its own; the failing second one
	// must take it down too once run inside a transaction.
	err := db.Transaction(func(tx *gorm.DB) error {
		return ApplyDelta(tx, []Adjustment{
			{ProductID: a.ID, Delta: -3},
			{ProductID: b.ID, Delta: -2},
		})
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrStockViolation))
	require.Equal(t, 10, stockOf(t, db, a.ID))
	require.Equal(t, 1, stockOf(t, db, b.ID))
}

func TestApplyDeltaUnknownProduct(t *testing.T) {
	db := initTestDB(t)

	err := ApplyDelta(db, []Adjustment{{ProductID: "missing", Delta: -1}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestApplyDeltaSkipsZero(t *testing.T) {
	db := initTestDB(t)
	p := seedProduct(t, db, "mafé", 4)

	require.NoError(t, ApplyDelta(db, []Adjustment{{ProductID: p.ID, Delta: 0}}))
	require.Equal(t, 4, stockOf(t, db, p.ID))
}
