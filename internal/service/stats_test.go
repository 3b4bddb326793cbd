package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sdiallo/tably/internal/boundary"
	"github.com/sdiallo/tably/internal/models"
)

func seedOrder(t *testing.T, db *gorm.DB, tableID string, total float64, status models.OrderStatus, createdAt time.Time) models.Order {
	t.Helper()
	order := models.Order{
		TableID:   tableID,
		Status:    status,
		Total:     total,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func seedOrderItem(t *testing.T, db *gorm.DB, orderID, productID string, quantity int, price float64, createdAt time.Time) {
	t.Helper()
	item := models.OrderItem{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&item).Error)
}

func newStatsEnv(t *testing.T) (*gorm.DB, *StatsService, models.Restaurant) {
	db := initTestDB(t)
	restaurant := seedRestaurant(t, db)
	svc := &StatsService{DB: db}
	return db, svc, restaurant
}

func TestSummaryStats(t *testing.T) {
	db, svc, restaurant := newStatsEnv(t)
	table := seedTable(t, db, restaurant.ID, "Terrasse 1")
	category := seedCategory(t, db, restaurant.ID, "plats")
	seedProduct(t, db, restaurant.ID, category.ID, "thiéboudienne", 10, 5)
	seedProduct(t, db, restaurant.ID, category.ID, "yassa", 8, 5)

	now := time.Now()
	seedOrder(t, db, table.ID, 30, models.OrderStatusCompleted, now)
	seedOrder(t, db, table.ID, 20, models.OrderStatusPending, now)
	seedOrder(t, db, table.ID, 99, models.OrderStatusCompleted, now.AddDate(0, 0, -3))

	all, err := svc.SummaryStats(context.Background(), boundary.PeriodAllTime)
	require.NoError(t, err)
	require.Equal(t, int64(3), all.TotalOrders)
	require.Equal(t, float64(149), all.Revenue)
	require.Equal(t, int64(2), all.TotalProducts)

	today, err := svc.SummaryStats(context.Background(), boundary.PeriodToday)
	require.NoError(t, err)
	require.Equal(t, int64(2), today.TotalOrders)
	require.Equal(t, float64(50), today.Revenue)
	// Catalog size is point-in-time, never window-filtered.
	require.Equal(t, int64(2), today.TotalProducts)
}

func TestSummaryStatsInvalidPeriod(t *testing.T) {
	_, svc, _ := newStatsEnv(t)

	_, err := svc.SummaryStats(context.Background(), boundary.Period("FORTNIGHT"))
	require.Error(t, err)
	require.True(t, errors.Is(err, boundary.ErrInvalidPeriod))
}

func TestSummaryStatsWithoutRestaurant(t *testing.T) {
	db := initTestDB(t)
	svc := &StatsService{DB: db}

	_, err := svc.SummaryStats(context.Background(), boundary.PeriodAllTime)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestCategoryBreakdownExcludesIdleCategories(t *testing.T) {
	db, svc, restaurant := newStatsEnv(t)
	table := seedTable(t, db, restaurant.ID, "Terrasse 1")

	plats := seedCategory(t, db, restaurant.ID, "plats")
	boissons := seedCategory(t, db, restaurant.ID, "boissons")
	thieb := seedProduct(t, db, restaurant.ID, plats.ID, "thiéboudienne", 10, 5)
	mafe := seedProduct(t, db, restaurant.ID, plats.ID, "mafé", 12, 5)
	// boissons has a product but zero sales in any window.
	seedProduct(t, db, restaurant.ID, boissons.ID, "bissap", 3, 20)

	now := time.Now()
	order := seedOrder(t, db, table.ID, 64, models.OrderStatusCompleted, now)
	seedOrderItem(t, db, order.ID, thieb.ID, 4, 10, now)
	seedOrderItem(t, db, order.ID, mafe.ID, 2, 12, now)

	breakdown, err := svc.CategoryBreakdown(context.Background(), boundary.PeriodToday)
	require.NoError(t, err)

	require.Len(t, breakdown.CategoriesData, 1)
	require.Equal(t, "plats", breakdown.CategoriesData[0].Label)
	require.Equal(t, int64(6), breakdown.CategoriesData[0].Value)

	require.Len(t, breakdown.OrdersData, 2)
	require.Equal(t, "thiéboudienne", breakdown.OrdersData[0].Label)
	require.Equal(t, int64(4), breakdown.OrdersData[0].Value)
	require.Equal(t, "mafé", breakdown.OrdersData[1].Label)
	require.Equal(t, int64(2), breakdown.OrdersData[1].Value)
}

func TestCategoryBreakdownWindowFiltering(t *testing.T) {
	db, svc, restaurant := newStatsEnv(t)
	table := seedTable(t, db, restaurant.ID, "Terrasse 1")
	plats := seedCategory(t, db, restaurant.ID, "plats")
	thieb := seedProduct(t, db, restaurant.ID, plats.ID, "thiéboudienne", 10, 5)

	old := time.Now().AddDate(0, 0, -10)
	order := seedOrder(t, db, table.ID, 40, models.OrderStatusCompleted, old)
	seedOrderItem(t, db, order.ID, thieb.ID, 4, 10, old)

	today, err := svc.CategoryBreakdown(context.Background(), boundary.PeriodToday)
	require.NoError(t, err)
	require.Empty(t, today.CategoriesData)
	require.Empty(t, today.OrdersData)

	month, err := svc.CategoryBreakdown(context.Background(), boundary.PeriodLast30Days)
	require.NoError(t, err)
	require.Len(t, month.CategoriesData, 1)
}

func TestOrdersListIncludesTableName(t *testing.T) {
	db, svc, restaurant := newStatsEnv(t)
	table := seedTable(t, db, restaurant.ID, "Terrasse 1")
	seedOrder(t, db, table.ID, 30, models.OrderStatusPending, time.Now())

	orders, err := svc.Orders(context.Background(), boundary.PeriodAllTime)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "Terrasse 1", orders[0].TableName)
	require.Equal(t, float64(30), orders[0].Total)
}

func TestOrderDetail(t *testing.T) {
	db, svc, restaurant := newStatsEnv(t)
	table := seedTable(t, db, restaurant.ID, "Terrasse 1")
	plats := seedCategory(t, db, restaurant.ID, "plats")
	thieb := seedProduct(t, db, restaurant.ID, plats.ID, "thiéboudienne", 10, 5)

	now := time.Now()
	order := seedOrder(t, db, table.ID, 20, models.OrderStatusPending, now)
	seedOrderItem(t, db, order.ID, thieb.ID, 2, 10, now)

	details, err := svc.OrderDetail(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, details.ID)
	require.Equal(t, "Terrasse 1", details.TableName)
	require.Len(t, details.Items, 1)
	require.Equal(t, "thiéboudienne", details.Items[0].Name)
	require.Equal(t, 2, details.Items[0].Quantity)
}

func TestOrderDetailNotFound(t *testing.T) {
	_, svc, _ := newStatsEnv(t)

	_, err := svc.OrderDetail(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestTableStatsKeepsIdleTables(t *testing.T) {
	db, svc, restaurant := newStatsEnv(t)
	busy := seedTable(t, db, restaurant.ID, "Terrasse 1")
	seedTable(t, db, restaurant.ID, "Terrasse 2")

	now := time.Now()
	seedOrder(t, db, busy.ID, 30, models.OrderStatusCompleted, now)
	seedOrder(t, db, busy.ID, 20, models.OrderStatusPending, now)

	stats, err := svc.TableStats(context.Background(), boundary.PeriodToday)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byName := map[string]TableStat{}
	for _, s := range stats {
		byName[s.Name] = s
	}
	require.Equal(t, int64(2), byName["Terrasse 1"].NumberOfOrders)
	require.Equal(t, float64(50), byName["Terrasse 1"].TotalPrice)
	require.Equal(t, int64(0), byName["Terrasse 2"].NumberOfOrders)
}

func TestOrderStatusCounts(t *testing.T) {
	db, svc, restaurant := newStatsEnv(t)
	table := seedTable(t, db, restaurant.ID, "Terrasse 1")

	now := time.Now()
	seedOrder(t, db, table.ID, 30, models.OrderStatusCompleted, now)
	seedOrder(t, db, table.ID, 20, models.OrderStatusPending, now)
	seedOrder(t, db, table.ID, 10, models.OrderStatusPending, now)

	counts, err := svc.OrderStatusCounts(context.Background(), boundary.PeriodToday)
	require.NoError(t, err)
	require.Equal(t, int64(3), counts.TotalOrders)
	require.Equal(t, int64(1), counts.CompletedOrders)
	require.Equal(t, int64(2), counts.PendingOrders)
}
