package dto

import (
	"classbank/internal/models"
)

// Ledger Request DTOs

// DepositRequest represents a teacher-initiated deposit into a student account
type DepositRequest struct {
	StudentID   string `json:"student_id" validate:"required,uuid"`
	AccountType string `json:"account_type" validate:"required,oneof=checking savings"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required,min=1,max=255"`
}

// WithdrawRequest represents a teacher-initiated withdrawal from a student account
type WithdrawRequest struct {
	StudentID   string `json:"student_id" validate:"required,uuid"`
	AccountType string `json:"account_type" validate:"required,oneof=checking savings"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required,min=1,max=255"`
}

// TransferRequest represents a student moving funds between their own accounts
type TransferRequest struct {
	FromAccountType string `json:"from_account_type" validate:"required,oneof=checking savings"`
	ToAccountType   string `json:"to_account_type" validate:"required,oneof=checking savings"`
	Amount          string `json:"amount" validate:"required"`
}

// Ledger Response DTOs

// TransactionResponse wraps a single recorded transaction
type TransactionResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	Message     string              `json:"message"`
}

// TransferResponse carries both legs of a completed transfer
type TransferResponse struct {
	Message        string              `json:"message"`
	OutTransaction *models.Transaction `json:"out_transaction"`
	InTransaction  *models.Transaction `json:"in_transaction"`
}

// AccountListResponse lists a student's accounts
type AccountListResponse struct {
	Accounts []models.Account `json:"accounts"`
}

// TransactionListResponse represents a paginated list of transactions
type TransactionListResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Offset       int                  `json:"offset"`
	Limit        int                  `json:"limit"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
