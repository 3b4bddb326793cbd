package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sdiallo/tably/internal/logging"
	"github.com/sdiallo/tably/internal/models"
)

// CatalogService manages the restaurant singleton and the catalog around it:
// tables, categories and products. It never touches stock counters except
// through product creation/edits of the stored value; order flows go through
// the ledger.
type CatalogService struct {
	DB           *gorm.DB
	DefaultTable string
}

// Restaurant returns the deployment's single restaurant row. A missing row
// is a configuration error: the deployment is not onboarded yet.
func (s *CatalogService) Restaurant(ctx context.Context) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.DB.WithContext(ctx).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRestaurant
		}
		return nil, err
	}
	return &restaurant, nil
}

type RestaurantParams struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Emails      []string `json:"emails"`
	Website     string   `json:"website"`
	Logo        string   `json:"logo"`
	Description string   `json:"description"`
}

// CreateRestaurant onboards the deployment. Idempotent: when a restaurant
// already exists it is returned untouched. The distinguished default table
// is created in the same transaction.
func (s *CatalogService) CreateRestaurant(ctx context.Context, params RestaurantParams) (*models.Restaurant, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	var restaurant models.Restaurant
	err := s.DB.WithContext(ctx).First(&restaurant).Error
	if err == nil {
		return &restaurant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	restaurant = models.Restaurant{
		Name:        params.Name,
		Address:     params.Address,
		Phone:       params.Phone,
		Emails:      params.Emails,
		Website:     params.Website,
		Logo:        params.Logo,
		Description: params.Description,
	}
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&restaurant).Error; err != nil {
			return err
		}
		return tx.Create(&models.Table{Name: s.DefaultTable, RestaurantID: restaurant.ID}).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	logging.FromContext(ctx).Info("restaurant onboarded", "restaurant_id", restaurant.ID, "name", restaurant.Name)
	return &restaurant, nil
}

type SettingsParams struct {
	Address      string   `json:"address"`
	Phone        string   `json:"phone"`
	Emails       []string `json:"emails"`
	Website      string   `json:"website"`
	Description  string   `json:"description"`
	GeoLatitude  *float64 `json:"geo_latitude"`
	GeoLongitude *float64 `json:"geo_longitude"`
	Radius       float64  `json:"radius"`
}

// UpdateSettings stores contact details and the geofence parameters gating
// on-premises customer ordering.
func (s *CatalogService) UpdateSettings(ctx context.Context, params SettingsParams) (*models.Restaurant, error) {
	restaurant, err := s.Restaurant(ctx)
	if err != nil {
		return nil, err
	}

	restaurant.Address = params.Address
	restaurant.Phone = params.Phone
	restaurant.Emails = params.Emails
	restaurant.Website = params.Website
	restaurant.Description = params.Description
	restaurant.GeoLatitude = params.GeoLatitude
	restaurant.GeoLongitude = params.GeoLongitude
	if params.Radius > 0 {
		restaurant.Radius = params.Radius
	}

	if err := s.DB.WithContext(ctx).Save(restaurant).Error; err != nil {
		return nil, err
	}
	return restaurant, nil
}

/* Tables */

func (s *CatalogService) Tables(ctx context.Context) ([]models.Table, error) {
	restaurant, err := s.Restaurant(ctx)
	if err != nil {
		return nil, err
	}
	tables := make([]models.Table, 0)
	if err := s.DB.WithContext(ctx).
		Where("restaurant_id = ?", restaurant.ID).
		Order("updated_at DESC").
		Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *CatalogService) CreateTable(ctx context.Context, name string) (*models.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	restaurant, err := s.Restaurant(ctx)
	if err != nil {
		return nil, err
	}
	table := models.Table{Name: name, RestaurantID: restaurant.ID}
	if err := s.DB.WithContext(ctx).Create(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// RenameTable renames any table except the default one, which is the
// fallback target for customer orders and must stay resolvable by name.
func (s *CatalogService) RenameTable(ctx context.Context, id, name string) (*models.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	table, err := s.table(ctx, id)
	if err != nil {
		return nil, err
	}
	if table.Name == s.DefaultTable {
		return nil, fmt.Errorf("%w: %s", ErrProtectedTable, s.DefaultTable)
	}
	table.Name = name
	if err := s.DB.WithContext(ctx).Save(table).Error; err != nil {
		return nil, err
	}
	return table, nil
}

func (s *CatalogService) DeleteTable(ctx context.Context, id string) error {
	table, err := s.table(ctx, id)
	if err != nil {
		return err
	}
	if table.Name == s.DefaultTable {
		return fmt.Errorf("%w: %s", ErrProtectedTable, s.DefaultTable)
	}
	return s.DB.WithContext(ctx).Delete(&models.Table{}, "id = ?", id).Error
}

func (s *CatalogService) table(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	if err := s.DB.WithContext(ctx).First(&table, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: table %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &table, nil
}

/* Categories */

type CategoryInfo struct {
	models.Category
	NumberOfProducts int64 `json:"number_of_products"`
}

func (s *CatalogService) Categories(ctx context.Context) ([]CategoryInfo, error) {
	restaurant, err := s.Restaurant(ctx)
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.DB.WithContext(ctx).
		Where("restaurant_id = ?", restaurant.ID).
		Order("updated_at DESC").
		Find(&categories).Error; err != nil {
		return nil, err
	}

	infos := make([]CategoryInfo, 0, len(categories))
	for _, category := range categories {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Product{}).
			Where("category_id = ?", category.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		infos = append(infos, CategoryInfo{Category: category, NumberOfProducts: count})
	}
	return infos, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	restaurant, err := s.Restaurant(ctx)
	if err != nil {
		return nil, err
	}
	category := models.Category{Name: name, Description: description, RestaurantID: restaurant.ID}
	if err := s.DB.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id, name, description string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	var category models.Category
	if err := s.DB.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return nil, err
	}
	category.Name = name
	category.Description = description
	if err := s.DB.WithContext(ctx).Save(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategoryCascade destroys a category AND all of its products, as one
// named, logged operation. The cascade is deliberate, not a foreign-key side
// effect.
func (s *CatalogService) DeleteCategoryCascade(ctx context.Context, id string) error {
	var category models.Category
	if err := s.DB.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return err
	}

	var destroyed int64
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("category_id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		destroyed = res.RowsAffected
		return tx.Delete(&models.Category{}, "id = ?", id).Error
	})
	if txErr != nil {
		return txErr
	}

	logging.FromContext(ctx).Info("category cascade deleted",
		"category_id", id, "name", category.Name, "products_destroyed", destroyed)
	return nil
}

/* Products */

type ProductInfo struct {
	models.Product
	Sold int64 `json:"sold"`
}

func (s *CatalogService) Products(ctx context.Context, offset, limit int) ([]ProductInfo, int64, error) {
	restaurant, err := s.Restaurant(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("restaurant_id = ?", restaurant.ID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	if err := s.DB.WithContext(ctx).
		Where("restaurant_id = ?", restaurant.ID).
		Order("updated_at ASC").
		Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	infos, err := s.withSold(ctx, products)
	if err != nil {
		return nil, 0, err
	}
	return infos, total, nil
}

func (s *CatalogService) CategoryProducts(ctx context.Context, categoryID string) ([]ProductInfo, error) {
	var category models.Category
	if err := s.DB.WithContext(ctx).First(&category, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
		}
		return nil, err
	}

	var products []models.Product
	if err := s.DB.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return s.withSold(ctx, products)
}

// withSold derives each product's historical sales from order items; sold is
// never stored.
func (s *CatalogService) withSold(ctx context.Context, products []models.Product) ([]ProductInfo, error) {
	infos := make([]ProductInfo, 0, len(products))
	for _, product := range products {
		var sold int64
		if err := s.DB.WithContext(ctx).Model(&models.OrderItem{}).
			Where("product_id = ?", product.ID).
			Select("COALESCE(SUM(quantity), 0)").
			Scan(&sold).Error; err != nil {
			return nil, err
		}
		infos = append(infos, ProductInfo{Product: product, Sold: sold})
	}
	return infos, nil
}

type ProductParams struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Stock       int      `json:"stock"`
	OutOfStock  int      `json:"out_of_stock"`
	CategoryID  string   `json:"category_id"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, params ProductParams) (*models.Product, error) {
	if params.Name == "" || params.CategoryID == "" {
		return nil, fmt.Errorf("%w: name and category_id required", ErrValidation)
	}
	if params.Price < 0 || params.Stock < 0 {
		return nil, fmt.Errorf("%w: price and stock must be >= 0", ErrValidation)
	}
	restaurant, err := s.Restaurant(ctx)
	if err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.DB.WithContext(ctx).First(&category, "id = ?", params.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %s", ErrNotFound, params.CategoryID)
		}
		return nil, err
	}

	product := models.Product{
		Name:         params.Name,
		Description:  params.Description,
		Price:        params.Price,
		Images:       params.Images,
		Stock:        params.Stock,
		OutOfStock:   params.OutOfStock,
		CategoryID:   params.CategoryID,
		RestaurantID: restaurant.ID,
	}
	if err := s.DB.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, params ProductParams) (*models.Product, error) {
	if params.Price < 0 || params.Stock < 0 {
		return nil, fmt.Errorf("%w: price and stock must be >= 0", ErrValidation)
	}
	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}

	product.Name = params.Name
	product.Description = params.Description
	product.Price = params.Price
	product.Images = params.Images
	product.Stock = params.Stock
	product.OutOfStock = params.OutOfStock
	if params.CategoryID != "" {
		product.CategoryID = params.CategoryID
	}
	if err := s.DB.WithContext(ctx).Save(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return nil
}
