package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

type Restaurant struct {
	ID           string    `gorm:"primaryKey"      json:"id"`
	Name         string    `gorm:"not null"        json:"name"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Emails       []string  `gorm:"serializer:json" json:"emails"`
	Website      string    `json:"website"`
	Logo         string    `json:"logo"`
	Description  string    `json:"description"`
	GeoLatitude  *float64  `json:"geo_latitude"`
	GeoLongitude *float64  `json:"geo_longitude"`
	Radius       float64   `gorm:"default:60"      json:"radius"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type Table struct {
	ID           string    `gorm:"primaryKey"     json:"id"`
	Name         string    `gorm:"not null"       json:"name"`
	RestaurantID string    `gorm:"index;not null" json:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type Category struct {
	ID           string    `gorm:"primaryKey"     json:"id"`
	Name         string    `gorm:"not null"       json:"name"`
	Description  string    `json:"description"`
	RestaurantID string    `gorm:"index;not null" json:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Product struct {
	ID           string    `gorm:"primaryKey"                json:"id"`
	Name         string    `gorm:"not null"                  json:"name"`
	Description  string    `json:"description"`
	Price        float64   `gorm:"not null"                  json:"price"`
	Images       []string  `gorm:"serializer:json"           json:"images"`
	Stock        int       `gorm:"not null;check:stock >= 0" json:"stock"`
	OutOfStock   int       `gorm:"default:0"                 json:"out_of_stock"`
	CategoryID   string    `gorm:"index;not null"            json:"category_id"`
	RestaurantID string    `gorm:"index;not null"            json:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Order struct {
	ID         string      `gorm:"primaryKey"                  json:"id"`
	TableID    string      `gorm:"index;not null"              json:"table_id"`
	ClientName string      `json:"client_name"`
	Status     OrderStatus `gorm:"not null"                    json:"status"`
	Total      float64     `gorm:"not null"                    json:"total"`
	Items      []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem keeps a weak reference to its product: the id plus the unit
// price frozen at order time, so historical totals survive price changes.
type OrderItem struct {
	ID        string    `gorm:"primaryKey"                  json:"id"`
	OrderID   string    `gorm:"index;not null"              json:"order_id"`
	ProductID string    `gorm:"index;not null"              json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price     float64   `gorm:"not null"                    json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// All lists every entity for AutoMigrate.
func All() []any {
	return []any{
		&Restaurant{},
		&Table{},
		&Category{},
		&Product{},
		&Order{},
		&OrderItem{},
	}
}
