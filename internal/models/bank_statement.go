package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BankStatement records one generated statement artifact per
// (account, month, year). Regeneration overwrites the object key; no
// duplicate rows are ever created for the same period.
type BankStatement struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AccountID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bank_statements_period" json:"account_id"`
	StudentID   uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	Month       int       `gorm:"not null;uniqueIndex:idx_bank_statements_period" json:"month"`
	Year        int       `gorm:"not null;uniqueIndex:idx_bank_statements_period" json:"year"`
	ObjectKey   string    `gorm:"type:varchar(255);not null" json:"object_key"`
	GeneratedAt time.Time `gorm:"not null" json:"generated_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Account Account `gorm:"foreignKey:AccountID" json:"-"`
	Student User    `gorm:"foreignKey:StudentID" json:"-"`
}

// BeforeCreate hook for BankStatement
func (s *BankStatement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = time.Now()
	}

	return s.Validate()
}

// Validate validates the statement fields
func (s *BankStatement) Validate() error {
	if s.AccountID == uuid.Nil {
		return errors.New("account ID is required")
	}

	if s.StudentID == uuid.Nil {
		return errors.New("student ID is required")
	}

	if s.Month < 1 || s.Month > 12 {
		return errors.New("month must be between 1 and 12")
	}

	if s.Year < 2000 {
		return errors.New("invalid statement year")
	}

	if s.ObjectKey == "" {
		return errors.New("object key is required")
	}

	return nil
}

// TableName returns the table name for BankStatement
func (s *BankStatement) TableName() string {
	return "bank_statements"
}

// StatementFilename builds the download filename for a statement, e.g.
// "June_2026_Checking_Statement.xlsx".
func StatementFilename(month, year int, accountType string) string {
	label := "Account"
	switch accountType {
	case AccountTypeChecking:
		label = "Checking"
	case AccountTypeSavings:
		label = "Savings"
	}
	return fmt.Sprintf("%s_%d_%s_Statement.xlsx", time.Month(month).String(), year, label)
}

// StatementObjectKey builds the blob-store key for a statement artifact
func StatementObjectKey(accountID uuid.UUID, month, year int) string {
	return fmt.Sprintf("statements/%s/%d/%02d.xlsx", accountID, year, month)
}
