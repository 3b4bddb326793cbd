package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sdiallo/tably/internal/boundary"
	"github.com/sdiallo/tably/internal/models"
)

// StatsService computes read-only statistical views over a boundary-filtered
// slice of historical orders. No mutation; either the full structure comes
// back or an error does.
type StatsService struct {
	DB *gorm.DB

	// Now is injectable for deterministic windows under test.
	Now func() time.Time
}

func (s *StatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type Summary struct {
	TotalOrders    int64   `json:"total_orders"`
	Revenue        float64 `json:"revenue"`
	TotalCustomers int64   `json:"total_customers"`
	TotalProducts  int64   `json:"total_products"`
}

type ChartPoint struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value int64  `json:"value"`
}

type Breakdown struct {
	CategoriesData []ChartPoint `json:"categories_data"`
	OrdersData     []ChartPoint `json:"orders_data"`
}

type OrderSummary struct {
	ID         string             `json:"id"`
	TableID    string             `json:"table_id"`
	TableName  string             `json:"table_name"`
	ClientName string             `json:"client_name"`
	Total      float64            `json:"total"`
	Status     models.OrderStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type OrderLine struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
}

type OrderDetails struct {
	OrderSummary
	Items []OrderLine `json:"items"`
}

type TableStat struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	NumberOfOrders int64   `json:"number_of_orders"`
	TotalPrice     float64 `json:"total_price"`
}

type StatusCounts struct {
	TotalOrders     int64 `json:"total_orders"`
	CompletedOrders int64 `json:"completed_orders"`
	PendingOrders   int64 `json:"pending_orders"`
}

// inWindow constrains column to the boundary window; an all-time window adds
// no predicate at all.
func inWindow(w boundary.Window, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if w.Start != nil {
			db = db.Where(column+" >= ?", *w.Start)
		}
		if w.End != nil {
			db = db.Where(column+" <= ?", *w.End)
		}
		return db
	}
}

func (s *StatsService) requireRestaurant(ctx context.Context) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Restaurant{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: restaurant", ErrNotFound)
	}
	return nil
}

// SummaryStats returns order count and revenue within the window plus the
// point-in-time catalog size. TotalCustomers mirrors TotalOrders: the
// unauthenticated ordering flow has no customer identity to count.
func (s *StatsService) SummaryStats(ctx context.Context, period boundary.Period) (*Summary, error) {
	window, err := boundary.Resolve(period, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.requireRestaurant(ctx); err != nil {
		return nil, err
	}

	var summary Summary
	orders := s.DB.WithContext(ctx).Model(&models.Order{}).Scopes(inWindow(window, "created_at"))
	if err := orders.Count(&summary.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Scopes(inWindow(window, "created_at")).
		Select("COALESCE(SUM(total), 0)").
		Scan(&summary.Revenue).Error; err != nil {
		return nil, err
	}
	summary.TotalCustomers = summary.TotalOrders

	if err := s.DB.WithContext(ctx).Model(&models.Product{}).Count(&summary.TotalProducts).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// CategoryBreakdown sums order-item quantities within the window per category
// and per product. The inner joins make the filtering explicit: a category
// whose products sold nothing in the window does not appear at all.
func (s *StatsService) CategoryBreakdown(ctx context.Context, period boundary.Period) (*Breakdown, error) {
	window, err := boundary.Resolve(period, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.requireRestaurant(ctx); err != nil {
		return nil, err
	}

	breakdown := &Breakdown{
		CategoriesData: make([]ChartPoint, 0),
		OrdersData:     make([]ChartPoint, 0),
	}

	if err := s.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Select("categories.name AS id, categories.name AS label, SUM(order_items.quantity) AS value").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Scopes(inWindow(window, "order_items.created_at")).
		Group("categories.id, categories.name").
		Order("value DESC").
		Scan(&breakdown.CategoriesData).Error; err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Select("products.name AS id, products.name AS label, SUM(order_items.quantity) AS value").
		Joins("JOIN products ON products.id = order_items.product_id").
		Scopes(inWindow(window, "order_items.created_at")).
		Group("products.id, products.name").
		Order("value DESC").
		Scan(&breakdown.OrdersData).Error; err != nil {
		return nil, err
	}

	return breakdown, nil
}

// Orders lists the window's orders with their table name, newest first.
func (s *StatsService) Orders(ctx context.Context, period boundary.Period) ([]OrderSummary, error) {
	window, err := boundary.Resolve(period, s.now())
	if err != nil {
		return nil, err
	}

	orders := make([]OrderSummary, 0)
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Select("orders.id, orders.table_id, tables.name AS table_name, orders.client_name, orders.total, orders.status, orders.created_at, orders.updated_at").
		Joins("LEFT JOIN tables ON tables.id = orders.table_id").
		Scopes(inWindow(window, "orders.created_at")).
		Order("orders.created_at DESC").
		Scan(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// OrderDetail returns one order with its lines and a product summary per line.
func (s *StatsService) OrderDetail(ctx context.Context, orderID string) (*OrderDetails, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}

	var table models.Table
	tableName := ""
	if err := s.DB.WithContext(ctx).First(&table, "id = ?", order.TableID).Error; err == nil {
		tableName = table.Name
	}

	details := &OrderDetails{
		OrderSummary: OrderSummary{
			ID:         order.ID,
			TableID:    order.TableID,
			TableName:  tableName,
			ClientName: order.ClientName,
			Total:      order.Total,
			Status:     order.Status,
			CreatedAt:  order.CreatedAt,
			UpdatedAt:  order.UpdatedAt,
		},
		Items: make([]OrderLine, 0, len(order.Items)),
	}

	for _, item := range order.Items {
		line := OrderLine{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		var product models.Product
		if err := s.DB.WithContext(ctx).First(&product, "id = ?", item.ProductID).Error; err == nil {
			line.Name = product.Name
			if len(product.Images) > 0 {
				line.Image = product.Images[0]
			}
		}
		details.Items = append(details.Items, line)
	}
	return details, nil
}

// TableStats returns per-table order counts and revenue within the window.
func (s *StatsService) TableStats(ctx context.Context, period boundary.Period) ([]TableStat, error) {
	window, err := boundary.Resolve(period, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.requireRestaurant(ctx); err != nil {
		return nil, err
	}

	// The window lives in the join condition, not the WHERE clause, so
	// tables with no qualifying orders still appear with zero counts.
	join := "LEFT JOIN orders ON orders.table_id = tables.id"
	var args []any
	if window.Start != nil {
		join += " AND orders.created_at >= ?"
		args = append(args, *window.Start)
	}
	if window.End != nil {
		join += " AND orders.created_at <= ?"
		args = append(args, *window.End)
	}

	stats := make([]TableStat, 0)
	if err := s.DB.WithContext(ctx).Model(&models.Table{}).
		Select("tables.id, tables.name, COUNT(orders.id) AS number_of_orders, COALESCE(SUM(orders.total), 0) AS total_price").
		Joins(join, args...).
		Group("tables.id, tables.name").
		Order("tables.name ASC").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// OrderStatusCounts splits the window's orders by lifecycle state.
func (s *StatsService) OrderStatusCounts(ctx context.Context, period boundary.Period) (*StatusCounts, error) {
	window, err := boundary.Resolve(period, s.now())
	if err != nil {
		return nil, err
	}

	var counts StatusCounts
	base := func() *gorm.DB {
		return s.DB.WithContext(ctx).Model(&models.Order{}).Scopes(inWindow(window, "created_at"))
	}
	if err := base().Count(&counts.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.OrderStatusCompleted).Count(&counts.CompletedOrders).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.OrderStatusPending).Count(&counts.PendingOrders).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}
