package repositories

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"classbank/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNumberExists = errors.New("account number already exists")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAccountNotActive    = errors.New("account is not active")
)

// accountRepository implements AccountRepositoryInterface
type accountRepository struct {
	db *gorm.DB
	mu sync.Mutex // For account number generation
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepositoryInterface {
	return &accountRepository{
		db: db,
	}
}

// Create creates a new account
func (r *accountRepository) Create(account *models.Account) error {
	if err := r.db.Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAccountNumberExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(id uuid.UUID) (*models.Account, error) {
	account := &models.Account{ID: id}
	if err := r.db.First(account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetByAccountNumber retrieves an account by account number
func (r *accountRepository) GetByAccountNumber(accountNumber string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("account_number = ?", accountNumber).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}
	return &account, nil
}

// GetByStudentID retrieves all accounts for a student, checking first
func (r *accountRepository) GetByStudentID(studentID uuid.UUID) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.Where("student_id = ?", studentID).
		Order("account_type ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to get accounts for student: %w", err)
	}
	return accounts, nil
}

// GetByStudentIDAndType retrieves the student's account of the given type.
// Each student has at most one account per type.
func (r *accountRepository) GetByStudentIDAndType(studentID uuid.UUID, accountType string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("student_id = ? AND account_type = ?", studentID, accountType).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by type: %w", err)
	}
	return &account, nil
}

// GetActiveAccounts retrieves active accounts with pagination
func (r *accountRepository) GetActiveAccounts(offset, limit int) ([]models.Account, int64, error) {
	var accounts []models.Account
	var total int64

	query := r.db.Model(&models.Account{}).Where("status = ?", models.AccountStatusActive)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	if err := query.Offset(offset).Limit(limit).
		Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get accounts: %w", err)
	}

	return accounts, total, nil
}

// Update updates an account
func (r *accountRepository) Update(account *models.Account) error {
	if err := r.db.Save(account).Error; err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// GenerateUniqueAccountNumber generates a unique account number
func (r *accountRepository) GenerateUniqueAccountNumber(accountType string) (string, error) {
	return r.generateUniqueAccountNumber(r.db, accountType)
}

// generateUniqueAccountNumber draws candidate numbers until one is free. The
// uniqueness check runs on the handle the caller passes in, so a caller
// already inside a transaction stays on that transaction's connection.
func (r *accountRepository) generateUniqueAccountNumber(db *gorm.DB, accountType string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	maxAttempts := 10
	for i := 0; i < maxAttempts; i++ {
		accountNumber := models.GenerateAccountNumber(accountType)
		if accountNumber == "" {
			return "", fmt.Errorf("invalid account type for number generation")
		}

		var count int64
		if err := db.Model(&models.Account{}).
			Where("account_number = ?", accountNumber).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check account number uniqueness: %w", err)
		}

		if count == 0 {
			return accountNumber, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique account number after %d attempts", maxAttempts)
}

// CreateAccountsForStudent creates the checking and savings pair for a new
// student in one database transaction. Both start at zero balance.
func (r *accountRepository) CreateAccountsForStudent(studentID uuid.UUID) ([]models.Account, error) {
	accounts := make([]models.Account, 0, 2)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, accountType := range []string{models.AccountTypeChecking, models.AccountTypeSavings} {
			number, err := r.generateUniqueAccountNumber(tx, accountType)
			if err != nil {
				return err
			}

			account := models.Account{
				AccountNumber: number,
				StudentID:     studentID,
				AccountType:   accountType,
				Balance:       decimal.Zero,
				Status:        models.AccountStatusActive,
			}

			if err := tx.Create(&account).Error; err != nil {
				return fmt.Errorf("failed to create %s account: %w", accountType, err)
			}
			accounts = append(accounts, account)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// ExecuteAtomicDeposit credits an account and records the transaction with
// balance snapshots in one database transaction. occurredAt backdates the
// transaction to the issue date of the operation that produced it.
func (r *accountRepository) ExecuteAtomicDeposit(accountID uuid.UUID, amount decimal.Decimal, description string, occurredAt time.Time) (uuid.UUID, error) {
	var txID uuid.UUID

	err := r.db.Transaction(func(tx *gorm.DB) error {
		account := &models.Account{ID: accountID}

		// Row-level locking prevents concurrent balance modifications
		if err := lockForUpdate(tx).First(account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("failed to lock account: %w", err)
		}

		if !account.IsActive() {
			return ErrAccountNotActive
		}

		balanceBefore := account.Balance
		newBalance := balanceBefore.Add(amount)

		if err := tx.Model(account).Update("balance", newBalance).Error; err != nil {
			return fmt.Errorf("failed to credit account: %w", err)
		}

		record := &models.Transaction{
			AccountID:       accountID,
			TransactionType: models.TransactionTypeDeposit,
			Amount:          amount,
			BalanceBefore:   balanceBefore,
			BalanceAfter:    newBalance,
			Description:     description,
			CreatedAt:       occurredAt,
		}

		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create deposit transaction: %w", err)
		}
		txID = record.ID

		return nil
	})

	return txID, err
}

// ExecuteAtomicWithdrawal debits an account and records the transaction with
// balance snapshots in one database transaction. Overdrafts are rejected
// before any write happens.
func (r *accountRepository) ExecuteAtomicWithdrawal(accountID uuid.UUID, amount decimal.Decimal, description string, occurredAt time.Time) (uuid.UUID, error) {
	var txID uuid.UUID

	err := r.db.Transaction(func(tx *gorm.DB) error {
		account := &models.Account{ID: accountID}

		if err := lockForUpdate(tx).First(account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("failed to lock account: %w", err)
		}

		if !account.IsActive() {
			return ErrAccountNotActive
		}

		if account.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		balanceBefore := account.Balance
		newBalance := balanceBefore.Sub(amount)

		if err := tx.Model(account).Update("balance", newBalance).Error; err != nil {
			return fmt.Errorf("failed to debit account: %w", err)
		}

		record := &models.Transaction{
			AccountID:       accountID,
			TransactionType: models.TransactionTypeWithdrawal,
			Amount:          amount,
			BalanceBefore:   balanceBefore,
			BalanceAfter:    newBalance,
			Description:     description,
			CreatedAt:       occurredAt,
		}

		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create withdrawal transaction: %w", err)
		}
		txID = record.ID

		return nil
	})

	return txID, err
}

// ExecuteAtomicTransfer moves funds between two accounts with row locking,
// recording a transfer_out and transfer_in pair that reference each other.
func (r *accountRepository) ExecuteAtomicTransfer(fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, description string) (outTxID, inTxID uuid.UUID, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		// Debit from source account with row locking
		fromAcct := &models.Account{ID: fromAccountID}
		if err := lockForUpdate(tx).First(fromAcct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("failed to lock source account: %w", err)
		}

		if !fromAcct.IsActive() {
			return ErrAccountNotActive
		}

		if fromAcct.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		fromBalanceBefore := fromAcct.Balance
		newFromBalance := fromBalanceBefore.Sub(amount)
		if err := tx.Model(fromAcct).Update("balance", newFromBalance).Error; err != nil {
			return fmt.Errorf("failed to debit source account: %w", err)
		}

		outTx := &models.Transaction{
			AccountID:        fromAccountID,
			CounterAccountID: &toAccountID,
			TransactionType:  models.TransactionTypeTransferOut,
			Amount:           amount,
			BalanceBefore:    fromBalanceBefore,
			BalanceAfter:     newFromBalance,
			Description:      description,
		}

		if err := tx.Create(outTx).Error; err != nil {
			return fmt.Errorf("failed to create transfer-out transaction: %w", err)
		}
		outTxID = outTx.ID

		// Credit destination account with row locking
		toAcct := &models.Account{ID: toAccountID}
		if err := lockForUpdate(tx).First(toAcct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("failed to lock destination account: %w", err)
		}

		if !toAcct.IsActive() {
			return ErrAccountNotActive
		}

		toBalanceBefore := toAcct.Balance
		newToBalance := toBalanceBefore.Add(amount)
		if err := tx.Model(toAcct).Update("balance", newToBalance).Error; err != nil {
			return fmt.Errorf("failed to credit destination account: %w", err)
		}

		inTx := &models.Transaction{
			AccountID:        toAccountID,
			CounterAccountID: &fromAccountID,
			TransactionType:  models.TransactionTypeTransferIn,
			Amount:           amount,
			BalanceBefore:    toBalanceBefore,
			BalanceAfter:     newToBalance,
			Description:      description,
		}

		if err := tx.Create(inTx).Error; err != nil {
			return fmt.Errorf("failed to create transfer-in transaction: %w", err)
		}
		inTxID = inTx.ID

		return nil
	})

	return outTxID, inTxID, err
}
