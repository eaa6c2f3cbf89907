package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionTypeDeposit     = "deposit"
	TransactionTypeWithdrawal  = "withdrawal"
	TransactionTypeTransferIn  = "transfer_in"
	TransactionTypeTransferOut = "transfer_out"
)

var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAmount          = errors.New("transaction amount must be positive")
)

// Transaction is an immutable record of one balance-affecting event.
// Rows are append-only; CreatedAt may be backdated to the issue date of the
// operation that produced them.
type Transaction struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AccountID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	CounterAccountID *uuid.UUID      `gorm:"type:uuid;index" json:"counter_account_id,omitempty"`
	TransactionType  string          `gorm:"type:varchar(20);not null" json:"transaction_type"`
	Amount           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	BalanceBefore    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_before"`
	BalanceAfter     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_after"`
	Description      string          `gorm:"type:text;not null" json:"description"`
	Reference        string          `gorm:"type:varchar(100);index" json:"reference,omitempty"`
	CreatedAt        time.Time       `gorm:"not null;index" json:"created_at"`

	// Associations
	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

// BeforeCreate hook for Transaction
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	if t.Reference == "" {
		t.Reference = GenerateTransactionReference()
	}

	// CreatedAt may be preset to a backdated issue date
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	return t.Validate()
}

// Validate validates the transaction fields
func (t *Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return errors.New("account ID is required")
	}

	if !IsValidTransactionType(t.TransactionType) {
		return ErrInvalidTransactionType
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if t.Description == "" {
		return errors.New("transaction description is required")
	}

	if t.IsTransfer() && t.CounterAccountID == nil {
		return errors.New("transfer transactions require a counter account")
	}

	return t.ensureBalanceIsCorrect()
}

// IsCredit returns true for balance-increasing types
func (t *Transaction) IsCredit() bool {
	return t.TransactionType == TransactionTypeDeposit || t.TransactionType == TransactionTypeTransferIn
}

// IsTransfer returns true for either leg of a transfer
func (t *Transaction) IsTransfer() bool {
	return t.TransactionType == TransactionTypeTransferIn || t.TransactionType == TransactionTypeTransferOut
}

// TableName returns the table name for Transaction
func (t *Transaction) TableName() string {
	return "transactions"
}

// Helper functions

// IsValidTransactionType checks if the transaction type is valid
func IsValidTransactionType(transactionType string) bool {
	switch transactionType {
	case TransactionTypeDeposit, TransactionTypeWithdrawal,
		TransactionTypeTransferIn, TransactionTypeTransferOut:
		return true
	default:
		return false
	}
}

// GenerateTransactionReference generates a unique transaction reference
func GenerateTransactionReference() string {
	return "TXN-" + uuid.New().String()[:8] + "-" + time.Now().Format("20060102150405")
}

// ensureBalanceIsCorrect enforces the balance snapshot arithmetic: applying
// the transaction to BalanceBefore must yield BalanceAfter.
func (t *Transaction) ensureBalanceIsCorrect() error {
	expectedBalance := t.BalanceBefore
	if t.IsCredit() {
		expectedBalance = expectedBalance.Add(t.Amount)
	} else {
		expectedBalance = expectedBalance.Sub(t.Amount)
	}

	if !expectedBalance.Equal(t.BalanceAfter) {
		return errors.New("balance calculation mismatch")
	}
	return nil
}
