package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classbank/internal/models"
	"classbank/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAccountNotActive    = errors.New("account is not active")
	ErrUnauthorized        = errors.New("unauthorized access to account")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrSameAccountTransfer = errors.New("cannot transfer to same account")
	ErrNotTeachersStudent  = errors.New("student is not enrolled in any of the teacher's classes")
)

// ledgerService implements LedgerServiceInterface
type ledgerService struct {
	accountRepo     repositories.AccountRepositoryInterface
	transactionRepo repositories.TransactionRepositoryInterface
	classRepo       repositories.ClassRepositoryInterface
	userRepo        repositories.UserRepositoryInterface
	auditRepo       repositories.AuditLogRepositoryInterface
	logger          *slog.Logger
}

// NewLedgerService creates a ledger service
func NewLedgerService(
	accountRepo repositories.AccountRepositoryInterface,
	transactionRepo repositories.TransactionRepositoryInterface,
	classRepo repositories.ClassRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	logger *slog.Logger,
) LedgerServiceInterface {
	return &ledgerService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		classRepo:       classRepo,
		userRepo:        userRepo,
		auditRepo:       auditRepo,
		logger:          logger,
	}
}

// OpenAccountsForStudent creates the checking/savings pair for a new student
func (s *ledgerService) OpenAccountsForStudent(studentID uuid.UUID) ([]models.Account, error) {
	student, err := s.userRepo.GetByID(studentID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to verify student: %w", err)
	}

	if !student.IsStudent() {
		return nil, fmt.Errorf("accounts can only be opened for students")
	}

	existing, err := s.accountRepo.GetByStudentID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing accounts: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	accounts, err := s.accountRepo.CreateAccountsForStudent(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts: %w", err)
	}

	s.logger.Info("opened accounts for student",
		"student_id", studentID,
		"count", len(accounts))

	return accounts, nil
}

// GetStudentAccounts returns a student's accounts. Students see their own;
// teachers see accounts of students enrolled in their classes.
func (s *ledgerService) GetStudentAccounts(requestorID, studentID uuid.UUID) ([]models.Account, error) {
	if err := s.authorizeStudentAccess(requestorID, studentID); err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.GetByStudentID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount returns one account after authorization
func (s *ledgerService) GetAccount(requestorID, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := s.authorizeStudentAccess(requestorID, account.StudentID); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccountTransactions returns an account's transaction history, newest first
func (s *ledgerService) GetAccountTransactions(requestorID, accountID uuid.UUID, offset, limit int) ([]models.Transaction, int64, error) {
	if _, err := s.GetAccount(requestorID, accountID); err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	transactions, total, err := s.transactionRepo.GetByAccountID(accountID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, total, nil
}

// Deposit credits a student's account on behalf of a teacher
func (s *ledgerService) Deposit(teacherID, studentID uuid.UUID, accountType string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	account, err := s.resolveTeacherMutation(teacherID, studentID, accountType, amount)
	if err != nil {
		return nil, err
	}

	txID, err := s.accountRepo.ExecuteAtomicDeposit(account.ID, amount, description, time.Now())
	if err != nil {
		return nil, s.mapLedgerError(err)
	}

	s.recordLedgerAudit(teacherID, models.AuditActionDeposit, account, txID, amount)

	transaction, err := s.transactionRepo.GetByID(txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit transaction: %w", err)
	}
	return transaction, nil
}

// Withdraw debits a student's account on behalf of a teacher
func (s *ledgerService) Withdraw(teacherID, studentID uuid.UUID, accountType string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	account, err := s.resolveTeacherMutation(teacherID, studentID, accountType, amount)
	if err != nil {
		return nil, err
	}

	txID, err := s.accountRepo.ExecuteAtomicWithdrawal(account.ID, amount, description, time.Now())
	if err != nil {
		return nil, s.mapLedgerError(err)
	}

	s.recordLedgerAudit(teacherID, models.AuditActionWithdrawal, account, txID, amount)

	transaction, err := s.transactionRepo.GetByID(txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawal transaction: %w", err)
	}
	return transaction, nil
}

// Transfer moves funds between a student's own checking and savings accounts
func (s *ledgerService) Transfer(studentID uuid.UUID, fromType, toType string, amount decimal.Decimal) (*models.Transaction, *models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrInvalidAmount
	}
	if fromType == toType {
		return nil, nil, ErrSameAccountTransfer
	}

	fromAccount, err := s.accountRepo.GetByStudentIDAndType(studentID, fromType)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("failed to get source account: %w", err)
	}

	toAccount, err := s.accountRepo.GetByStudentIDAndType(studentID, toType)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("failed to get destination account: %w", err)
	}

	description := fmt.Sprintf("Transfer from %s to %s", fromAccount.Label(), toAccount.Label())

	outTxID, inTxID, err := s.accountRepo.ExecuteAtomicTransfer(fromAccount.ID, toAccount.ID, amount, description)
	if err != nil {
		return nil, nil, s.mapLedgerError(err)
	}

	s.recordLedgerAudit(studentID, models.AuditActionTransfer, fromAccount, outTxID, amount)

	outTx, err := s.transactionRepo.GetByID(outTxID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load transfer-out transaction: %w", err)
	}
	inTx, err := s.transactionRepo.GetByID(inTxID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load transfer-in transaction: %w", err)
	}

	return outTx, inTx, nil
}

// authorizeStudentAccess allows the student themselves, or a teacher with the
// student enrolled in one of their classes.
func (s *ledgerService) authorizeStudentAccess(requestorID, studentID uuid.UUID) error {
	if requestorID == studentID {
		return nil
	}

	requestor, err := s.userRepo.GetByID(requestorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to verify requestor: %w", err)
	}

	if !requestor.IsTeacher() {
		s.logger.Warn("unauthorized account access attempt",
			"requestor_id", requestorID,
			"student_id", studentID)
		return ErrUnauthorized
	}

	has, err := s.classRepo.TeacherHasStudent(requestorID, studentID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !has {
		s.logger.Warn("teacher requested account of unenrolled student",
			"teacher_id", requestorID,
			"student_id", studentID)
		return ErrNotTeachersStudent
	}

	return nil
}

// resolveTeacherMutation validates a teacher-initiated deposit or withdrawal
// and returns the target account.
func (s *ledgerService) resolveTeacherMutation(teacherID, studentID uuid.UUID, accountType string, amount decimal.Decimal) (*models.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	has, err := s.classRepo.TeacherHasStudent(teacherID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !has {
		return nil, ErrNotTeachersStudent
	}

	account, err := s.accountRepo.GetByStudentIDAndType(studentID, accountType)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// mapLedgerError converts repository sentinels to service sentinels
func (s *ledgerService) mapLedgerError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repositories.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, repositories.ErrAccountNotActive):
		return ErrAccountNotActive
	default:
		return err
	}
}

func (s *ledgerService) recordLedgerAudit(actorID uuid.UUID, action string, account *models.Account, txID uuid.UUID, amount decimal.Decimal) {
	if err := s.auditRepo.Create(&models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "account",
		ResourceID: account.AccountNumber,
		IPAddress:  "system",
		UserAgent:  "internal",
		Metadata: models.JSONBMap{
			"transaction_id": txID.String(),
			"amount":         amount.String(),
			"account_type":   account.AccountType,
		},
	}); err != nil {
		s.logger.Error("failed to create audit log", "error", err, "action", action)
	}
}
