package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidPrice    = errors.New("price cannot be negative")
	ErrInvalidQuantity = errors.New("quantity cannot be negative")
)

// StoreItem is a purchasable unit scoped to one or more classes.
// Quantity never goes negative; an item with zero quantity is unavailable
// for new purchases regardless of the availability flag.
type StoreItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TeacherID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Emoji       string          `gorm:"type:varchar(10)" json:"emoji,omitempty"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`
	IsAvailable bool            `gorm:"not null;default:true" json:"is_available"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`

	// Associations
	Teacher User    `gorm:"foreignKey:TeacherID" json:"-"`
	Classes []Class `gorm:"many2many:store_item_classes" json:"classes,omitempty"`
}

// BeforeCreate hook for StoreItem
func (i *StoreItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}

	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = now
	}

	return i.Validate()
}

// BeforeUpdate hook for StoreItem
func (i *StoreItem) BeforeUpdate(tx *gorm.DB) error {
	i.UpdatedAt = time.Now()
	return i.Validate()
}

// Validate validates the store item fields
func (i *StoreItem) Validate() error {
	if i.TeacherID == uuid.Nil {
		return errors.New("teacher ID is required")
	}

	if i.Name == "" {
		return errors.New("item name is required")
	}

	if i.Price.LessThan(decimal.Zero) {
		return ErrInvalidPrice
	}

	if i.Quantity < 0 {
		return ErrInvalidQuantity
	}

	return nil
}

// CanPurchase checks availability and remaining quantity for a request
func (i *StoreItem) CanPurchase(quantity int) bool {
	return i.IsAvailable && quantity > 0 && i.Quantity >= quantity
}

// TotalCost returns price * quantity
func (i *StoreItem) TotalCost(quantity int) decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

// TableName returns the table name for StoreItem
func (i *StoreItem) TableName() string {
	return "store_items"
}
