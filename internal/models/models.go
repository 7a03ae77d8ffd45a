package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusProcessed OrderStatus = "processed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Category struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Name  string    `gorm:"not null"                 json:"name"`
	Icon  string    `                                json:"icon"`
	Color string    `                                json:"color"`
}

type Product struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"          json:"id"`
	Name            string          `gorm:"not null"                      json:"name"`
	Description     string          `gorm:"not null;default:''"           json:"description"`
	RichDescription string          `                                     json:"richDescription"`
	Image           string          `                                     json:"image"`
	Images          []string        `gorm:"serializer:json"               json:"images"`
	Brand           string          `                                     json:"brand"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"price"`
	CategoryID      uuid.UUID       `gorm:"type:uuid;index;not null"      json:"category"`
	CountInStock    int             `gorm:"not null;check:count_in_stock >= 0" json:"countInStock"`
	Rating          float64         `                                     json:"rating"`
	NumReviews      int             `                                     json:"numReviews"`
	IsFeatured      bool            `gorm:"index;default:false"           json:"isFeatured"`
	CreatedAt       time.Time       `                                     json:"dateCreated"`
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Name         string    `gorm:"not null"                  json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Phone        string    `                                 json:"phone"`
	IsAdmin      bool      `gorm:"default:false"             json:"isAdmin"`
	Street       string    `                                 json:"street"`
	Apartment    string    `                                 json:"apartment"`
	Zip          string    `                                 json:"zip"`
	City         string    `                                 json:"city"`
	Country      string    `                                 json:"country"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"   json:"quantity"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"      json:"product"`
}

// Order keeps its line items as an ordered list of references, the same
// shape a document store would hold.
type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	OrderItemIDs     []uuid.UUID     `gorm:"serializer:json;not null"     json:"orderItems"`
	ShippingAddress1 string          `gorm:"not null"                     json:"shippingAddress1"`
	ShippingAddress2 string          `                                    json:"shippingAddress2"`
	City             string          `gorm:"not null"                     json:"city"`
	Zip              string          `gorm:"not null"                     json:"zip"`
	Country          string          `gorm:"not null"                     json:"country"`
	Phone            string          `gorm:"not null"                     json:"phone"`
	Status           OrderStatus     `gorm:"not null;default:'pending'"   json:"status"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(14,2);not null"  json:"totalPrice"`
	UserID           uuid.UUID       `gorm:"type:uuid;index;not null"     json:"user"`
	CreatedAt        time.Time       `gorm:"index"                        json:"dateOrdered"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&Category{}, &Product{}, &User{}, &OrderItem{}, &Order{}}
}
