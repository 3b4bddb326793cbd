package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sdiallo/tably/internal/models"
)

func newCatalogEnv(t *testing.T) (*CatalogService, *models.Restaurant) {
	db := initTestDB(t)
	svc := &CatalogService{DB: db, DefaultTable: defaultTableName}
	restaurant := seedRestaurant(t, db)
	return svc, &restaurant
}

func TestCreateRestaurantOnboarding(t *testing.T) {
	db := initTestDB(t)
	svc := &CatalogService{DB: db, DefaultTable: defaultTableName}

	restaurant, err := svc.CreateRestaurant(context.Background(), RestaurantParams{
		Name:   "Chez Fatou",
		Emails: []string{"contact@chezfatou.sn"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, restaurant.ID)

	var table models.Table
	require.NoError(t, db.First(&table, "restaurant_id = ?", restaurant.ID).Error)
	require.Equal(t, defaultTableName, table.Name)
}

func TestCreateRestaurantIsIdempotent(t *testing.T) {
	db := initTestDB(t)
	svc := &CatalogService{DB: db, DefaultTable: defaultTableName}

	first, err := svc.CreateRestaurant(context.Background(), RestaurantParams{Name: "Chez Fatou"})
	require.NoError(t, err)

	second, err := svc.CreateRestaurant(context.Background(), RestaurantParams{Name: "Autre Nom"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Chez Fatou", second.Name)

	var count int64
	require.NoError(t, db.Model(&models.Restaurant{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCreateRestaurantRequiresName(t *testing.T) {
	db := initTestDB(t)
	svc := &CatalogService{DB: db, DefaultTable: defaultTableName}

	_, err := svc.CreateRestaurant(context.Background(), RestaurantParams{})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrValidation))
}

func TestUpdateSettingsStoresGeofence(t *testing.T) {
	svc, _ := newCatalogEnv(t)

	lat, lng := 14.6928, -17.4467
	restaurant, err := svc.UpdateSettings(context.Background(), SettingsParams{
		Address:      "Plateau, Dakar",
		GeoLatitude:  &lat,
		GeoLongitude: &lng,
		Radius:       120,
	})
	require.NoError(t, err)
	require.NotNil(t, restaurant.GeoLatitude)
	require.Equal(t, lat, *restaurant.GeoLatitude)
	require.Equal(t, float64(120), restaurant.Radius)

	// Radius 0 keeps the previous value.
	restaurant, err = svc.UpdateSettings(context.Background(), SettingsParams{
		Address:      "Plateau, Dakar",
		GeoLatitude:  &lat,
		GeoLongitude: &lng,
	})
	require.NoError(t, err)
	require.Equal(t, float64(120), restaurant.Radius)
}

func TestDefaultTableIsProtected(t *testing.T) {
	svc, restaurant := newCatalogEnv(t)
	ctx := context.Background()

	defaultTable := models.Table{Name: defaultTableName, RestaurantID: restaurant.ID}
	require.NoError(t, svc.DB.Create(&defaultTable).Error)

	_, err := svc.RenameTable(ctx, defaultTable.ID, "VIP")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrProtectedTable))

	err = svc.DeleteTable(ctx, defaultTable.ID)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrProtectedTable))

	var count int64
	require.NoError(t, svc.DB.Model(&models.Table{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestTableLifecycle(t *testing.T) {
	svc, _ := newCatalogEnv(t)
	ctx := context.Background()

	table, err := svc.CreateTable(ctx, "Terrasse 1")
	require.NoError(t, err)

	renamed, err := svc.RenameTable(ctx, table.ID, "Terrasse 2")
	require.NoError(t, err)
	require.Equal(t, "Terrasse 2", renamed.Name)

	require.NoError(t, svc.DeleteTable(ctx, table.ID))

	tables, err := svc.Tables(ctx)
	require.NoError(t, err)
	require.Empty(t, tables)

	err = svc.DeleteTable(ctx, table.ID)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestCategoriesCountProducts(t *testing.T) {
	svc, restaurant := newCatalogEnv(t)
	ctx := context.Background()

	plats := seedCategory(t, svc.DB, restaurant.ID, "plats")
	seedCategory(t, svc.DB, restaurant.ID, "boissons")
	seedProduct(t, svc.DB, restaurant.ID, plats.ID, "thiéboudienne", 10, 5)
	seedProduct(t, svc.DB, restaurant.ID, plats.ID, "mafé", 12, 5)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	byName := map[string]int64{}
	for _, c := range categories {
		byName[c.Name] = c.NumberOfProducts
	}
	require.Equal(t, int64(2), byName["plats"])
	require.Equal(t, int64(0), byName["boissons"])
}

func TestDeleteCategoryCascade(t *testing.T) {
	svc, restaurant := newCatalogEnv(t)
	ctx := context.Background()

	plats := seedCategory(t, svc.DB, restaurant.ID, "plats")
	boissons := seedCategory(t, svc.DB, restaurant.ID, "boissons")
	seedProduct(t, svc.DB, restaurant.ID, plats.ID, "thiéboudienne", 10, 5)
	seedProduct(t, svc.DB, restaurant.ID, plats.ID, "mafé", 12, 5)
	bissap := seedProduct(t, svc.DB, restaurant.ID, boissons.ID, "bissap", 3, 20)

	require.NoError(t, svc.DeleteCategoryCascade(ctx, plats.ID))

	var categoryCount, productCount int64
	require.NoError(t, svc.DB.Model(&models.Category{}).Count(&categoryCount).Error)
	require.NoError(t, svc.DB.Model(&models.Product{}).Count(&productCount).Error)
	require.Equal(t, int64(1), categoryCount)
	require.Equal(t, int64(1), productCount)

	// The other category's product survives.
	var survivor models.Product
	require.NoError(t, svc.DB.First(&survivor, "id = ?", bissap.ID).Error)

	err := svc.DeleteCategoryCascade(ctx, plats.ID)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestProductsDeriveSold(t *testing.T) {
	svc, restaurant := newCatalogEnv(t)
	ctx := context.Background()

	table := seedTable(t, svc.DB, restaurant.ID, "Terrasse 1")
	plats := seedCategory(t, svc.DB, restaurant.ID, "plats")
	thieb := seedProduct(t, svc.DB, restaurant.ID, plats.ID, "thiéboudienne", 10, 5)
	seedProduct(t, svc.DB, restaurant.ID, plats.ID, "mafé", 12, 5)

	now := time.Now()
	order := seedOrder(t, svc.DB, table.ID, 30, models.OrderStatusCompleted, now)
	seedOrderItem(t, svc.DB, order.ID, thieb.ID, 3, 10, now)

	products, total, err := svc.Products(ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, products, 2)

	byName := map[string]int64{}
	for _, p := range products {
		byName[p.Name] = p.Sold
	}
	require.Equal(t, int64(3), byName["thiéboudienne"])
	require.Equal(t, int64(0), byName["mafé"])
}

func TestProductsPagination(t *testing.T) {
	svc, restaurant := newCatalogEnv(t)
	ctx := context.Background()

	plats := seedCategory(t, svc.DB, restaurant.ID, "plats")
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		seedProduct(t, svc.DB, restaurant.ID, plats.ID, name, 10, 5)
	}

	page, total, err := svc.Products(ctx, 0, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, page, 2)

	last, _, err := svc.Products(ctx, 4, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
}

func TestCreateProductValidation(t *testing.T) {
	svc, restaurant := newCatalogEnv(t)
	ctx := context.Background()

	plats := seedCategory(t, svc.DB, restaurant.ID, "plats")

	_, err := svc.CreateProduct(ctx, ProductParams{CategoryID: plats.ID})
	require.True(t, errors.Is(err, ErrValidation))

	_, err = svc.CreateProduct(ctx, ProductParams{Name: "x", CategoryID: plats.ID, Price: -1})
	require.True(t, errors.Is(err, ErrValidation))

	_, err = svc.CreateProduct(ctx, ProductParams{Name: "x", CategoryID: "missing", Price: 5})
	require.True(t, errors.Is(err, ErrNotFound))

	product, err := svc.CreateProduct(ctx, ProductParams{
		Name:       "thiéboudienne",
		CategoryID: plats.ID,
		Price:      10,
		Stock:      5,
	})
	require.NoError(t, err)
	require.Equal(t, restaurant.ID, product.RestaurantID)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc, restaurant := newCatalogEnv(t)
	ctx := context.Background()

	plats := seedCategory(t, svc.DB, restaurant.ID, "plats")
	product := seedProduct(t, svc.DB, restaurant.ID, plats.ID, "thiéboudienne", 10, 5)

	updated, err := svc.UpdateProduct(ctx, product.ID, ProductParams{
		Name:  "thiéboudienne rouge",
		Price: 12,
		Stock: 8,
	})
	require.NoError(t, err)
	require.Equal(t, "thiéboudienne rouge", updated.Name)
	require.Equal(t, 8, updated.Stock)
	// Empty category_id keeps the current one.
	require.Equal(t, plats.ID, updated.CategoryID)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))

	err = svc.DeleteProduct(ctx, product.ID)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}
