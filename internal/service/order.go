package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sdiallo/tably/internal/geo"
	"github.com/sdiallo/tably/internal/ledger"
	"github.com/sdiallo/tably/internal/logging"
	"github.com/sdiallo/tably/internal/models"
)

// OrderService drives an order through PENDING -> COMPLETED/CANCELED while
// keeping the stock ledger consistent. Both lifecycle mutations run as a
// single transaction; the ledger's conditional update is the stock authority,
// the advisory checks only exist for fast, product-naming feedback.
type OrderService struct {
	DB           *gorm.DB
	DefaultTable string
}

type LaunchItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"price"`
}

type LaunchRequest struct {
	TableID    string       `json:"table_id"`
	ClientName string       `json:"client_name"`
	Location   *geo.Point   `json:"location"`
	Items      []LaunchItem `json:"items"`
}

type RevisedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Launch creates a PENDING order and consumes stock for every line. This is
// the only operation that consumes stock. Nothing persists when any part of
// the unit of work fails.
func (s *OrderService) Launch(ctx context.Context, req LaunchRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrEmptyOrder)
	}

	requirements := make([]ledger.Requirement, 0, len(req.Items))
	var total float64
	for i := range req.Items {
		if req.Items[i].ProductID == "" {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if req.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if req.Items[i].UnitPrice < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		requirements = append(requirements, ledger.Requirement{
			ProductID: req.Items[i].ProductID,
			Quantity:  req.Items[i].Quantity,
		})
		total += float64(req.Items[i].Quantity) * req.Items[i].UnitPrice
	}

	restaurant, err := s.restaurant(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.checkProximity(restaurant, req.Location); err != nil {
		return nil, err
	}

	if err := ledger.CheckAvailability(s.DB.WithContext(ctx), requirements); err != nil {
		return nil, err
	}

	clientName := req.ClientName
	if clientName == "" {
		clientName = "Client"
	}

	var order models.Order
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tableID := req.TableID
		if tableID == "" {
			table, err := s.defaultTable(tx, restaurant.ID)
			if err != nil {
				return err
			}
			tableID = table.ID
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		adjustments := make([]ledger.Adjustment, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, models.OrderItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.UnitPrice,
			})
			adjustments = append(adjustments, ledger.Adjustment{
				ProductID: it.ProductID,
				Delta:     -it.Quantity,
			})
		}

		order = models.Order{
			TableID:    tableID,
			ClientName: clientName,
			Status:     models.OrderStatusPending,
			Total:      total,
			Items:      items,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return ledger.ApplyDelta(tx, adjustments)
	})
	if txErr != nil {
		if isDomainErr(txErr) {
			return nil, txErr
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderCreation, txErr)
	}

	logging.FromContext(ctx).Info("order launched",
		"order_id", order.ID, "table_id", order.TableID, "total", order.Total)
	return &order, nil
}

// Validate completes an order against a possibly edited item list. For each
// product the adjustment is revised minus previous quantity; the stock delta
// is its negation, so growing a line consumes more stock and shrinking or
// dropping one returns it. Item replacement, total, status and stock move in
// one transaction.
func (s *OrderService) Validate(ctx context.Context, orderID string, revised []RevisedItem) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrConflict, orderID, order.Status)
	}

	previous := make(map[string]models.OrderItem, len(order.Items))
	for _, it := range order.Items {
		previous[it.ProductID] = it
	}

	newItems := make([]models.OrderItem, 0, len(revised))
	adjustments := make([]ledger.Adjustment, 0, len(revised)+len(previous))
	requirements := make([]ledger.Requirement, 0, len(revised))
	seen := make(map[string]bool, len(revised))

	for _, item := range revised {
		if item.ProductID == "" {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0 (omit the line to remove it)", ErrValidation)
		}
		if seen[item.ProductID] {
			return nil, fmt.Errorf("%w: duplicate product %s", ErrValidation, item.ProductID)
		}
		seen[item.ProductID] = true

		price, err := s.resolvePrice(ctx, previous, item.ProductID)
		if err != nil {
			return nil, err
		}

		prevQty := 0
		if prev, ok := previous[item.ProductID]; ok {
			prevQty = prev.Quantity
		}
		if adjustment := item.Quantity - prevQty; adjustment != 0 {
			adjustments = append(adjustments, ledger.Adjustment{
				ProductID: item.ProductID,
				Delta:     -adjustment,
			})
			if adjustment > 0 {
				requirements = append(requirements, ledger.Requirement{
					ProductID: item.ProductID,
					Quantity:  adjustment,
				})
			}
		}

		newItems = append(newItems, models.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}

	// Lines dropped from the revision return everything they had consumed.
	for productID, prev := range previous {
		if !seen[productID] {
			adjustments = append(adjustments, ledger.Adjustment{
				ProductID: productID,
				Delta:     prev.Quantity,
			})
		}
	}

	if err := ledger.CheckAvailability(s.DB.WithContext(ctx), requirements); err != nil {
		return nil, err
	}

	var total float64
	for _, it := range newItems {
		total += float64(it.Quantity) * it.Price
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if len(newItems) > 0 {
			if err := tx.Create(&newItems).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Updates(map[string]any{
				"total":  total,
				"status": models.OrderStatusCompleted,
			}).Error; err != nil {
			return err
		}
		return ledger.ApplyDelta(tx, adjustments)
	})
	if txErr != nil {
		if isDomainErr(txErr) {
			return nil, txErr
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderCompletion, txErr)
	}

	order.Items = newItems
	order.Total = total
	order.Status = models.OrderStatusCompleted

	logging.FromContext(ctx).Info("order completed",
		"order_id", order.ID, "total", order.Total, "lines", len(newItems))
	return &order, nil
}

// Cancel moves a PENDING order to CANCELED and returns every consumed unit
// to stock, the mirror of validating with all lines removed. Items stay on
// the order as the historical record of what had been requested.
func (s *OrderService) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrConflict, orderID, order.Status)
	}

	adjustments := make([]ledger.Adjustment, 0, len(order.Items))
	for _, it := range order.Items {
		adjustments = append(adjustments, ledger.Adjustment{
			ProductID: it.ProductID,
			Delta:     it.Quantity,
		})
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", models.OrderStatusCanceled).Error; err != nil {
			return err
		}
		return ledger.ApplyDelta(tx, adjustments)
	})
	if txErr != nil {
		if isDomainErr(txErr) {
			return nil, txErr
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderCompletion, txErr)
	}

	order.Status = models.OrderStatusCanceled
	logging.FromContext(ctx).Info("order canceled", "order_id", order.ID)
	return &order, nil
}

// GetStatus is a pure read; the server-side status is authoritative over
// whatever a client device has cached.
func (s *OrderService) GetStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Select("id", "status").First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return "", err
	}
	return order.Status, nil
}

func (s *OrderService) restaurant(ctx context.Context) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.DB.WithContext(ctx).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRestaurant
		}
		return nil, err
	}
	return &restaurant, nil
}

// checkProximity enforces the geofence server side: the client-side check is
// only UX and trivially bypassable. Requests without coordinates are not
// gated; the staff surface is authenticated instead.
func (s *OrderService) checkProximity(restaurant *models.Restaurant, location *geo.Point) error {
	if location == nil || restaurant.GeoLatitude == nil || restaurant.GeoLongitude == nil {
		return nil
	}
	center := geo.Point{Latitude: *restaurant.GeoLatitude, Longitude: *restaurant.GeoLongitude}
	radius := restaurant.Radius
	if radius <= 0 {
		radius = 60
	}
	if !geo.Within(*location, center, radius) {
		return fmt.Errorf("%w: client is outside the restaurant area", ErrOutOfRange)
	}
	return nil
}

func (s *OrderService) defaultTable(tx *gorm.DB, restaurantID string) (*models.Table, error) {
	var table models.Table
	err := tx.Where("restaurant_id = ? AND name = ?", restaurantID, s.DefaultTable).First(&table).Error
	if err == nil {
		return &table, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	table = models.Table{Name: s.DefaultTable, RestaurantID: restaurantID}
	if err := tx.Create(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// resolvePrice freezes the unit price for a revised line: the previous order
// item's price when the product was already on the order, otherwise the live
// product price.
func (s *OrderService) resolvePrice(ctx context.Context, previous map[string]models.OrderItem, productID string) (float64, error) {
	if prev, ok := previous[productID]; ok {
		return prev.Price, nil
	}
	var product models.Product
	if err := s.DB.WithContext(ctx).Select("id", "price").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: %s", ledger.ErrNotFound, productID)
		}
		return 0, err
	}
	return product.Price, nil
}

func isDomainErr(err error) bool {
	return errors.Is(err, ledger.ErrInsufficientStock) ||
		errors.Is(err, ledger.ErrStockViolation) ||
		errors.Is(err, ledger.ErrNotFound) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoRestaurant)
}
