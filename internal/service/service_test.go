package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sdiallo/tably/internal/models"
)

const defaultTableName = "Générale"

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

func seedRestaurant(t *testing.T, db *gorm.DB) models.Restaurant {
	t.Helper()
	restaurant := models.Restaurant{Name: "Chez Fatou"}
	require.NoError(t, db.Create(&restaurant).Error)
	return restaurant
}

func seedTable(t *testing.T, db *gorm.DB, restaurantID, name string) models.Table {
	t.Helper()
	table := models.Table{Name: name, RestaurantID: restaurantID}
	require.NoError(t, db.Create(&table).Error)
	return table
}

func seedCategory(t *testing.T, db *gorm.DB, restaurantID, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name, RestaurantID: restaurantID}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedProduct(t *testing.T, db *gorm.DB, restaurantID, categoryID, name string, price float64, stock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:         name,
		Price:        price,
		Stock:        stock,
		CategoryID:   categoryID,
		RestaurantID: restaurantID,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func productStock(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return product.Stock
}
