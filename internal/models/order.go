package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderCancelled = "cancelled"
)

// Order captures a checkout. UnitPrice on each item is the negotiated
// price when a deal was accepted during the session, otherwise the
// listed price at order time.
type Order struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Reference string          `gorm:"uniqueIndex;size:40" json:"reference"`
	UserID    string          `gorm:"size:36;index;not null" json:"user_id"`
	User      *UserAuth       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    string          `gorm:"size:16;default:pending" json:"status"`
	Total     decimal.Decimal `gorm:"type:numeric(14,2)" json:"total"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is one product line on an order
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"index;not null" json:"order_id"`
	ProductID  uint            `gorm:"index;not null" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int             `gorm:"default:1" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	Negotiated bool            `gorm:"default:false" json:"negotiated"`
}

func (OrderItem) TableName() string { return "order_items" }
