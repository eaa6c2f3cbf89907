package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PurchaseStatusActive   = "active"
	PurchaseStatusRedeemed = "redeemed"
)

// StudentPurchase accumulates a student's purchases of one item. At most one
// row exists per (student, item); repeat purchases increment quantity and
// total instead of inserting new rows.
type StudentPurchase struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	StudentID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_student_purchases_student_item" json:"student_id"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_student_purchases_student_item" json:"item_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_price"`
	Status     string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`

	// Associations
	Student User      `gorm:"foreignKey:StudentID" json:"-"`
	Item    StoreItem `gorm:"foreignKey:ItemID" json:"-"`
}

// BeforeCreate hook for StudentPurchase
func (p *StudentPurchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	if p.Status == "" {
		p.Status = PurchaseStatusActive
	}

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	return p.Validate()
}

// Validate validates the purchase fields
func (p *StudentPurchase) Validate() error {
	if p.StudentID == uuid.Nil {
		return errors.New("student ID is required")
	}

	if p.ItemID == uuid.Nil {
		return errors.New("item ID is required")
	}

	if p.Quantity <= 0 {
		return errors.New("purchase quantity must be positive")
	}

	if p.TotalPrice.LessThan(decimal.Zero) {
		return errors.New("total price cannot be negative")
	}

	return nil
}

// Accumulate folds a repeat purchase into the existing row
func (p *StudentPurchase) Accumulate(quantity int, cost decimal.Decimal) {
	p.Quantity += quantity
	p.TotalPrice = p.TotalPrice.Add(cost)
	p.Status = PurchaseStatusActive
	p.UpdatedAt = time.Now()
}

// TableName returns the table name for StudentPurchase
func (p *StudentPurchase) TableName() string {
	return "student_purchases"
}
