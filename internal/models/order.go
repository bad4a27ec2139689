package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderNumber string          `gorm:"uniqueIndex;size:36;not null" json:"order_number"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status      string          `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, CANCELLED
	CompletedAt *time.Time      `json:"completed_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Order) TableName() string { return "orders" }
