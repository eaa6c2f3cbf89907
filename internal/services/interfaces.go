package services

import (
	"context"
	"time"

	"classbank/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerServiceInterface defines the contract for account ledger operations
type LedgerServiceInterface interface {
	GetStudentAccounts(requestorID, studentID uuid.UUID) ([]models.Account, error)
	GetAccount(requestorID, accountID uuid.UUID) (*models.Account, error)
	GetAccountTransactions(requestorID, accountID uuid.UUID, offset, limit int) ([]models.Transaction, int64, error)
	Deposit(teacherID, studentID uuid.UUID, accountType string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Withdraw(teacherID, studentID uuid.UUID, accountType string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Transfer(studentID uuid.UUID, fromType, toType string, amount decimal.Decimal) (*models.Transaction, *models.Transaction, error)
	OpenAccountsForStudent(studentID uuid.UUID) ([]models.Account, error)
}

// FundingRequest describes a batch add/remove-funds instruction from a teacher
type FundingRequest struct {
	StudentIDs    []uuid.UUID
	AccountType   string
	Kind          string
	Amount        decimal.Decimal
	Description   string
	EffectiveDate time.Time
	Recurrence    string
}

// StudentFundingResult is the per-student outcome of a batch funding request
type StudentFundingResult struct {
	StudentID     uuid.UUID  `json:"student_id"`
	Success       bool       `json:"success"`
	Scheduled     bool       `json:"scheduled"`
	OperationID   *uuid.UUID `json:"operation_id,omitempty"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// FundingBatchResult aggregates per-student outcomes. Success is true only if
// every student succeeded; Warning carries a summary when some failed.
type FundingBatchResult struct {
	Success bool                   `json:"success"`
	Results []StudentFundingResult `json:"results"`
	Warning string                 `json:"warning,omitempty"`
}

// FundingRunReport summarizes one execution sweep over due operations
type FundingRunReport struct {
	Processed int `json:"processed"`
	Executed  int `json:"executed"`
	Failed    int `json:"failed"`
}

// FundingServiceInterface defines the contract for the funding engine
type FundingServiceInterface interface {
	ApplyFunding(ctx context.Context, teacherID uuid.UUID, req FundingRequest) (*FundingBatchResult, error)
	ExecuteDueOperations(ctx context.Context, now time.Time) (*FundingRunReport, error)
	CancelOperation(teacherID, operationID uuid.UUID) error
	ListOperations(teacherID uuid.UUID, offset, limit int) ([]models.ScheduledFundOperation, int64, error)
}

// StoreItemInput carries teacher-supplied store item fields
type StoreItemInput struct {
	Name        string
	Emoji       string
	Description string
	Price       decimal.Decimal
	Quantity    int
	IsAvailable bool
	ClassIDs    []uuid.UUID
}

// PurchaseResult is the outcome of a settled purchase
type PurchaseResult struct {
	Purchase      *models.StudentPurchase `json:"purchase"`
	TransactionID uuid.UUID               `json:"transaction_id"`
	NewBalance    decimal.Decimal         `json:"new_balance"`
}

// StoreServiceInterface defines the contract for the class store
type StoreServiceInterface interface {
	CreateItem(ctx context.Context, teacherID uuid.UUID, input StoreItemInput) (*models.StoreItem, error)
	UpdateItem(ctx context.Context, teacherID, itemID uuid.UUID, input StoreItemInput) (*models.StoreItem, error)
	DeleteItem(ctx context.Context, teacherID, itemID uuid.UUID) error
	GetItem(itemID uuid.UUID) (*models.StoreItem, error)
	ListTeacherItems(teacherID uuid.UUID) ([]models.StoreItem, error)
	ListStudentItems(studentID uuid.UUID) ([]models.StoreItem, error)
	Purchase(ctx context.Context, studentID, itemID uuid.UUID, quantity int) (*PurchaseResult, error)
	ListStudentPurchases(requestorID, studentID uuid.UUID) ([]models.StudentPurchase, error)
}

// StatementDownload is a rendered statement ready to stream to the client
type StatementDownload struct {
	Filename    string
	ContentType string
	Content     []byte
	GeneratedAt time.Time
	FromCache   bool
}

// StatementRunReport summarizes one monthly statement generation sweep
type StatementRunReport struct {
	Accounts  int `json:"accounts"`
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// StatementServiceInterface defines the contract for statement generation
type StatementServiceInterface interface {
	GetMonthlyStatement(ctx context.Context, requestorID, accountID uuid.UUID, month, year int) (*StatementDownload, error)
	GenerateMonthlyStatements(ctx context.Context, now time.Time) (*StatementRunReport, error)
	ListStatements(requestorID, studentID uuid.UUID) ([]models.BankStatement, error)
}

// AuditLoggerInterface defines structured audit event logging
type AuditLoggerInterface interface {
	LogLedgerMutation(ctx context.Context, action string, accountID, transactionID uuid.UUID, amount string)
	LogFundingApplied(ctx context.Context, teacherID, studentID uuid.UUID, kind string, amount string, scheduled bool)
	LogFundingExecution(ctx context.Context, operationID uuid.UUID, status string, reason string)
	LogPurchase(ctx context.Context, studentID, itemID, transactionID uuid.UUID, quantity int, total string)
	LogStatementGenerated(ctx context.Context, accountID uuid.UUID, month, year int, fromCache bool)
	LogAuthorizationDenied(ctx context.Context, requestorID uuid.UUID, resource, reason string)
}

// MetricsRecorderInterface defines the contract for recording operational metrics
type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}
