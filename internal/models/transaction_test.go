package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Validate(t *testing.T) {
	accountID := uuid.New()
	counterID := uuid.New()

	tests := []struct {
		name        string
		transaction Transaction
		wantErr     bool
		errMsg      string
	}{
		{
			name: "valid deposit",
			transaction: Transaction{
				AccountID:       accountID,
				TransactionType: TransactionTypeDeposit,
				Amount:          decimal.NewFromFloat(50.00),
				BalanceBefore:   decimal.NewFromFloat(100.00),
				BalanceAfter:    decimal.NewFromFloat(150.00),
				Description:     "Weekly allowance",
			},
			wantErr: false,
		},
		{
			name: "valid withdrawal",
			transaction: Transaction{
				AccountID:       accountID,
				TransactionType: TransactionTypeWithdrawal,
				Amount:          decimal.NewFromFloat(20.00),
				BalanceBefore:   decimal.NewFromFloat(100.00),
				BalanceAfter:    decimal.NewFromFloat(80.00),
				Description:     "Store purchase: Pencil",
			},
			wantErr: false,
		},
		{
			name: "valid transfer out with counter account",
			transaction: Transaction{
				AccountID:        accountID,
				CounterAccountID: &counterID,
				TransactionType:  TransactionTypeTransferOut,
				Amount:           decimal.NewFromFloat(25.00),
				BalanceBefore:    decimal.NewFromFloat(100.00),
				BalanceAfter:     decimal.NewFromFloat(75.00),
				Description:      "Transfer to savings",
			},
			wantErr: false,
		},
		{
			name: "missing account ID",
			transaction: Transaction{
				TransactionType: TransactionTypeDeposit,
				Amount:          decimal.NewFromFloat(50.00),
				BalanceBefore:   decimal.Zero,
				BalanceAfter:    decimal.NewFromFloat(50.00),
				Description:     "test",
			},
			wantErr: true,
			errMsg:  "account ID is required",
		},
		{
			name: "invalid transaction type",
			transaction: Transaction{
				AccountID:       accountID,
				TransactionType: "invalid",
				Amount:          decimal.NewFromFloat(50.00),
				BalanceBefore:   decimal.Zero,
				BalanceAfter:    decimal.NewFromFloat(50.00),
				Description:     "test",
			},
			wantErr: true,
			errMsg:  "invalid transaction type",
		},
		{
			name: "zero amount",
			transaction: Transaction{
				AccountID:       accountID,
				TransactionType: TransactionTypeDeposit,
				Amount:          decimal.Zero,
				BalanceBefore:   decimal.Zero,
				BalanceAfter:    decimal.Zero,
				Description:     "test",
			},
			wantErr: true,
			errMsg:  "transaction amount must be positive",
		},
		{
			name: "missing description",
			transaction: Transaction{
				AccountID:       accountID,
				TransactionType: TransactionTypeDeposit,
				Amount:          decimal.NewFromFloat(50.00),
				BalanceBefore:   decimal.Zero,
				BalanceAfter:    decimal.NewFromFloat(50.00),
			},
			wantErr: true,
			errMsg:  "transaction description is required",
		},
		{
			name: "transfer without counter account",
			transaction: Transaction{
				AccountID:       accountID,
				TransactionType: TransactionTypeTransferIn,
				Amount:          decimal.NewFromFloat(25.00),
				BalanceBefore:   decimal.NewFromFloat(75.00),
				BalanceAfter:    decimal.NewFromFloat(100.00),
				Description:     "Transfer from checking",
			},
			wantErr: true,
			errMsg:  "transfer transactions require a counter account",
		},
		{
			name: "balance snapshot mismatch",
			transaction: Transaction{
				AccountID:       accountID,
				TransactionType: TransactionTypeDeposit,
				Amount:          decimal.NewFromFloat(50.00),
				BalanceBefore:   decimal.NewFromFloat(100.00),
				BalanceAfter:    decimal.NewFromFloat(140.00),
				Description:     "test",
			},
			wantErr: true,
			errMsg:  "balance calculation mismatch",
		},
		{
			name: "withdrawal snapshot uses subtraction",
			transaction: Transaction{
				AccountID:       accountID,
				TransactionType: TransactionTypeWithdrawal,
				Amount:          decimal.NewFromFloat(50.00),
				BalanceBefore:   decimal.NewFromFloat(100.00),
				BalanceAfter:    decimal.NewFromFloat(150.00),
				Description:     "test",
			},
			wantErr: true,
			errMsg:  "balance calculation mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.transaction.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransaction_IsCredit(t *testing.T) {
	assert.True(t, (&Transaction{TransactionType: TransactionTypeDeposit}).IsCredit())
	assert.True(t, (&Transaction{TransactionType: TransactionTypeTransferIn}).IsCredit())
	assert.False(t, (&Transaction{TransactionType: TransactionTypeWithdrawal}).IsCredit())
	assert.False(t, (&Transaction{TransactionType: TransactionTypeTransferOut}).IsCredit())
}

func TestTransaction_IsTransfer(t *testing.T) {
	assert.True(t, (&Transaction{TransactionType: TransactionTypeTransferIn}).IsTransfer())
	assert.True(t, (&Transaction{TransactionType: TransactionTypeTransferOut}).IsTransfer())
	assert.False(t, (&Transaction{TransactionType: TransactionTypeDeposit}).IsTransfer())
	assert.False(t, (&Transaction{TransactionType: TransactionTypeWithdrawal}).IsTransfer())
}

func TestGenerateTransactionReference(t *testing.T) {
	ref := GenerateTransactionReference()
	assert.True(t, strings.HasPrefix(ref, "TXN-"))

	other := GenerateTransactionReference()
	assert.NotEqual(t, ref, other)
}
