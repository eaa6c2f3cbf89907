package repositories

import (
	"testing"
	"time"

	"classbank/internal/database"
	"classbank/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// AccountRepositorySuite defines the test suite for AccountRepository
type AccountRepositorySuite struct {
	suite.Suite
	db          *database.DB
	repo        AccountRepositoryInterface
	testStudent *models.User
}

// SetupTest runs before each test in the suite
func (s *AccountRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewAccountRepository(s.db.DB)
	s.testStudent = database.CreateTestStudent(s.T(), s.db, "student@example.com")
}

// TearDownTest runs after each test in the suite
func (s *AccountRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

// TestAccountRepositorySuite runs the test suite
func TestAccountRepositorySuite(t *testing.T) {
	suite.Run(t, new(AccountRepositorySuite))
}

func (s *AccountRepositorySuite) createAccount(accountType string, balance decimal.Decimal) *models.Account {
	number, err := s.repo.GenerateUniqueAccountNumber(accountType)
	s.NoError(err)

	account := &models.Account{
		AccountNumber: number,
		StudentID:     s.testStudent.ID,
		AccountType:   accountType,
		Balance:       balance,
		Status:        models.AccountStatusActive,
	}
	s.NoError(s.repo.Create(account))
	return account
}

// Test Create functionality
func (s *AccountRepositorySuite) TestCreate() {
	account := &models.Account{
		AccountNumber: "1012345678",
		StudentID:     s.testStudent.ID,
		AccountType:   models.AccountTypeChecking,
		Balance:       decimal.Zero,
		Status:        models.AccountStatusActive,
	}

	err := s.repo.Create(account)
	s.NoError(err)
	s.NotEqual(uuid.Nil, account.ID)
	s.NotZero(account.CreatedAt)
}

// Test GetByID functionality
func (s *AccountRepositorySuite) TestGetByID() {
	account := s.createAccount(models.AccountTypeChecking, decimal.NewFromInt(50))

	found, err := s.repo.GetByID(account.ID)
	s.NoError(err)
	s.Equal(account.ID, found.ID)
	s.Equal(account.AccountNumber, found.AccountNumber)

	_, err = s.repo.GetByID(uuid.New())
	s.ErrorIs(err, ErrAccountNotFound)
}

// Test GetByStudentID functionality
func (s *AccountRepositorySuite) TestGetByStudentID() {
	s.createAccount(models.AccountTypeChecking, decimal.Zero)
	s.createAccount(models.AccountTypeSavings, decimal.Zero)

	accounts, err := s.repo.GetByStudentID(s.testStudent.ID)
	s.NoError(err)
	s.Len(accounts, 2)

	// Checking sorts before savings
	s.Equal(models.AccountTypeChecking, accounts[0].AccountType)
	s.Equal(models.AccountTypeSavings, accounts[1].AccountType)
}

// Test GetByStudentIDAndType functionality
func (s *AccountRepositorySuite) TestGetByStudentIDAndType() {
	created := s.createAccount(models.AccountTypeSavings, decimal.NewFromInt(25))

	found, err := s.repo.GetByStudentIDAndType(s.testStudent.ID, models.AccountTypeSavings)
	s.NoError(err)
	s.Equal(created.ID, found.ID)

	_, err = s.repo.GetByStudentIDAndType(s.testStudent.ID, models.AccountTypeChecking)
	s.ErrorIs(err, ErrAccountNotFound)
}

// Test CreateAccountsForStudent functionality
func (s *AccountRepositorySuite) TestCreateAccountsForStudent() {
	accounts, err := s.repo.CreateAccountsForStudent(s.testStudent.ID)
	s.NoError(err)
	s.Len(accounts, 2)

	s.Equal(models.AccountTypeChecking, accounts[0].AccountType)
	s.Equal(models.AccountTypeSavings, accounts[1].AccountType)

	for _, account := range accounts {
		s.True(account.Balance.IsZero())
		s.Equal(models.AccountStatusActive, account.Status)
		s.Len(account.AccountNumber, 10)
	}

	s.Equal(models.CheckingPrefix, accounts[0].AccountNumber[:2])
	s.Equal(models.SavingsPrefix, accounts[1].AccountNumber[:2])
}

// Provisioning runs the uniqueness check inside the same transaction that
// creates the rows, so it must work on a pool capped at one connection where
// any query escaping the transaction would deadlock or miss the schema.
func (s *AccountRepositorySuite) TestCreateAccountsForStudent_SingleConnectionPool() {
	first, err := s.repo.CreateAccountsForStudent(s.testStudent.ID)
	s.NoError(err)

	other := database.CreateTestStudent(s.T(), s.db, "student2@example.com")
	second, err := s.repo.CreateAccountsForStudent(other.ID)
	s.NoError(err)

	seen := make(map[string]bool)
	for _, account := range append(first, second...) {
		s.False(seen[account.AccountNumber])
		seen[account.AccountNumber] = true
	}
	s.Len(seen, 4)
}

// Test GenerateUniqueAccountNumber functionality
func (s *AccountRepositorySuite) TestGenerateUniqueAccountNumber() {
	checking, err := s.repo.GenerateUniqueAccountNumber(models.AccountTypeChecking)
	s.NoError(err)
	s.Len(checking, 10)
	s.Equal(models.CheckingPrefix, checking[:2])

	savings, err := s.repo.GenerateUniqueAccountNumber(models.AccountTypeSavings)
	s.NoError(err)
	s.Len(savings, 10)
	s.Equal(models.SavingsPrefix, savings[:2])

	_, err = s.repo.GenerateUniqueAccountNumber("credit")
	s.Error(err)
}

// Test ExecuteAtomicDeposit functionality
func (s *AccountRepositorySuite) TestExecuteAtomicDeposit() {
	account := s.createAccount(models.AccountTypeChecking, decimal.NewFromInt(10))

	txID, err := s.repo.ExecuteAtomicDeposit(account.ID, decimal.NewFromInt(15), "Weekly allowance", time.Now())
	s.NoError(err)
	s.NotEqual(uuid.Nil, txID)

	updated, err := s.repo.GetByID(account.ID)
	s.NoError(err)
	s.Equal("25", updated.Balance.String())

	var record models.Transaction
	s.NoError(s.db.DB.First(&record, "id = ?", txID).Error)
	s.Equal(models.TransactionTypeDeposit, record.TransactionType)
	s.Equal("10", record.BalanceBefore.String())
	s.Equal("25", record.BalanceAfter.String())
	s.Equal("Weekly allowance", record.Description)
}

func (s *AccountRepositorySuite) TestExecuteAtomicDeposit_Backdated() {
	account := s.createAccount(models.AccountTypeChecking, decimal.Zero)

	occurredAt := time.Now().AddDate(0, 0, -3)
	txID, err := s.repo.ExecuteAtomicDeposit(account.ID, decimal.NewFromInt(5), "Backdated deposit", occurredAt)
	s.NoError(err)

	var record models.Transaction
	s.NoError(s.db.DB.First(&record, "id = ?", txID).Error)
	s.WithinDuration(occurredAt, record.CreatedAt, time.Second)
}

func (s *AccountRepositorySuite) TestExecuteAtomicDeposit_AccountNotFound() {
	_, err := s.repo.ExecuteAtomicDeposit(uuid.New(), decimal.NewFromInt(5), "Deposit", time.Now())
	s.ErrorIs(err, ErrAccountNotFound)
}

func (s *AccountRepositorySuite) TestExecuteAtomicDeposit_ClosedAccount() {
	account := s.createAccount(models.AccountTypeChecking, decimal.NewFromInt(10))
	s.NoError(s.db.DB.Model(account).Update("status", models.AccountStatusClosed).Error)

	_, err := s.repo.ExecuteAtomicDeposit(account.ID, decimal.NewFromInt(5), "Deposit", time.Now())
	s.ErrorIs(err, ErrAccountNotActive)
}

// Test ExecuteAtomicWithdrawal functionality
func (s *AccountRepositorySuite) TestExecuteAtomicWithdrawal() {
	account := s.createAccount(models.AccountTypeChecking, decimal.NewFromInt(30))

	txID, err := s.repo.ExecuteAtomicWithdrawal(account.ID, decimal.NewFromInt(12), "Desk rent", time.Now())
	s.NoError(err)

	updated, err := s.repo.GetByID(account.ID)
	s.NoError(err)
	s.Equal("18", updated.Balance.String())

	var record models.Transaction
	s.NoError(s.db.DB.First(&record, "id = ?", txID).Error)
	s.Equal(models.TransactionTypeWithdrawal, record.TransactionType)
	s.Equal("30", record.BalanceBefore.String())
	s.Equal("18", record.BalanceAfter.String())
}

func (s *AccountRepositorySuite) TestExecuteAtomicWithdrawal_InsufficientFunds() {
	account := s.createAccount(models.AccountTypeChecking, decimal.NewFromInt(5))

	_, err := s.repo.ExecuteAtomicWithdrawal(account.ID, decimal.NewFromInt(10), "Fine", time.Now())
	s.ErrorIs(err, ErrInsufficientFunds)

	// Balance unchanged, no transaction recorded
	updated, err := s.repo.GetByID(account.ID)
	s.NoError(err)
	s.Equal("5", updated.Balance.String())

	var count int64
	s.NoError(s.db.DB.Model(&models.Transaction{}).Where("account_id = ?", account.ID).Count(&count).Error)
	s.Equal(int64(0), count)
}

// Test ExecuteAtomicTransfer functionality
func (s *AccountRepositorySuite) TestExecuteAtomicTransfer() {
	checking := s.createAccount(models.AccountTypeChecking, decimal.NewFromInt(40))
	savings := s.createAccount(models.AccountTypeSavings, decimal.NewFromInt(10))

	outTxID, inTxID, err := s.repo.ExecuteAtomicTransfer(checking.ID, savings.ID, decimal.NewFromInt(15), "Savings transfer")
	s.NoError(err)
	s.NotEqual(uuid.Nil, outTxID)
	s.NotEqual(uuid.Nil, inTxID)

	updatedChecking, err := s.repo.GetByID(checking.ID)
	s.NoError(err)
	s.Equal("25", updatedChecking.Balance.String())

	updatedSavings, err := s.repo.GetByID(savings.ID)
	s.NoError(err)
	s.Equal("25", updatedSavings.Balance.String())

	var outTx, inTx models.Transaction
	s.NoError(s.db.DB.First(&outTx, "id = ?", outTxID).Error)
	s.NoError(s.db.DB.First(&inTx, "id = ?", inTxID).Error)

	s.Equal(models.TransactionTypeTransferOut, outTx.TransactionType)
	s.Equal(models.TransactionTypeTransferIn, inTx.TransactionType)
	s.Equal(savings.ID, *outTx.CounterAccountID)
	s.Equal(checking.ID, *inTx.CounterAccountID)
	s.Equal("40", outTx.BalanceBefore.String())
	s.Equal("25", outTx.BalanceAfter.String())
	s.Equal("10", inTx.BalanceBefore.String())
	s.Equal("25", inTx.BalanceAfter.String())
}

func (s *AccountRepositorySuite) TestExecuteAtomicTransfer_InsufficientFunds() {
	checking := s.createAccount(models.AccountTypeChecking, decimal.NewFromInt(5))
	savings := s.createAccount(models.AccountTypeSavings, decimal.NewFromInt(10))

	_, _, err := s.repo.ExecuteAtomicTransfer(checking.ID, savings.ID, decimal.NewFromInt(20), "Savings transfer")
	s.ErrorIs(err, ErrInsufficientFunds)

	// Both balances unchanged
	updatedChecking, err := s.repo.GetByID(checking.ID)
	s.NoError(err)
	s.Equal("5", updatedChecking.Balance.String())

	updatedSavings, err := s.repo.GetByID(savings.ID)
	s.NoError(err)
	s.Equal("10", updatedSavings.Balance.String())
}

// Test GetActiveAccounts functionality
func (s *AccountRepositorySuite) TestGetActiveAccounts() {
	s.createAccount(models.AccountTypeChecking, decimal.Zero)
	closed := s.createAccount(models.AccountTypeSavings, decimal.Zero)
	s.NoError(s.db.DB.Model(closed).Update("status", models.AccountStatusClosed).Error)

	accounts, total, err := s.repo.GetActiveAccounts(0, 10)
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Len(accounts, 1)
	s.Equal(models.AccountStatusActive, accounts[0].Status)
}

// Test balance reconstruction from the transaction log
func (s *AccountRepositorySuite) TestBalanceMatchesTransactionHistory() {
	account := s.createAccount(models.AccountTypeChecking, decimal.Zero)

	_, err := s.repo.ExecuteAtomicDeposit(account.ID, decimal.NewFromInt(100), "Deposit", time.Now())
	s.NoError(err)
	_, err = s.repo.ExecuteAtomicWithdrawal(account.ID, decimal.NewFromInt(30), "Withdrawal", time.Now())
	s.NoError(err)
	_, err = s.repo.ExecuteAtomicDeposit(account.ID, decimal.NewFromInt(7), "Deposit", time.Now())
	s.NoError(err)

	var records []models.Transaction
	s.NoError(s.db.DB.Where("account_id = ?", account.ID).Find(&records).Error)

	reconstructed := decimal.Zero
	for _, record := range records {
		if record.IsCredit() {
			reconstructed = reconstructed.Add(record.Amount)
		} else {
			reconstructed = reconstructed.Sub(record.Amount)
		}
	}

	updated, err := s.repo.GetByID(account.ID)
	s.NoError(err)
	s.Equal(updated.Balance.String(), reconstructed.String())
	s.Equal("77", reconstructed.String())
}
