package repositories

import (
	"time"

	"classbank/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByIDs(ids []uuid.UUID) ([]models.User, error)
	Update(user *models.User) error
	Delete(id uuid.UUID) error
	ListByRole(role string, offset, limit int) ([]*models.User, int64, error)
}

// ClassRepositoryInterface defines the contract for class and enrollment operations
type ClassRepositoryInterface interface {
	Create(class *models.Class) error
	GetByID(id uuid.UUID) (*models.Class, error)
	GetByTeacherID(teacherID uuid.UUID) ([]models.Class, error)
	Update(class *models.Class) error
	Delete(id uuid.UUID) error
	Enroll(enrollment *models.Enrollment) error
	DropEnrollment(classID, studentID uuid.UUID) error
	GetActiveEnrollments(classID uuid.UUID) ([]models.Enrollment, error)
	GetStudentsInClass(classID uuid.UUID) ([]models.User, error)
	GetClassesForStudent(studentID uuid.UUID) ([]models.Class, error)
	TeacherHasStudent(teacherID, studentID uuid.UUID) (bool, error)
	GetPrimaryClassForStudent(studentID uuid.UUID) (*models.Class, error)
}

// AccountRepositoryInterface defines the contract for account repository operations
type AccountRepositoryInterface interface {
	Create(account *models.Account) error
	GetByID(id uuid.UUID) (*models.Account, error)
	GetByAccountNumber(accountNumber string) (*models.Account, error)
	GetByStudentID(studentID uuid.UUID) ([]models.Account, error)
	GetByStudentIDAndType(studentID uuid.UUID, accountType string) (*models.Account, error)
	GetActiveAccounts(offset, limit int) ([]models.Account, int64, error)
	Update(account *models.Account) error
	GenerateUniqueAccountNumber(accountType string) (string, error)
	CreateAccountsForStudent(studentID uuid.UUID) ([]models.Account, error)
	ExecuteAtomicDeposit(accountID uuid.UUID, amount decimal.Decimal, description string, occurredAt time.Time) (uuid.UUID, error)
	ExecuteAtomicWithdrawal(accountID uuid.UUID, amount decimal.Decimal, description string, occurredAt time.Time) (uuid.UUID, error)
	ExecuteAtomicTransfer(fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, description string) (outTxID, inTxID uuid.UUID, err error)
}

// TransactionRepositoryInterface defines the contract for transaction repository operations
type TransactionRepositoryInterface interface {
	Create(transaction *models.Transaction) error
	GetByID(id uuid.UUID) (*models.Transaction, error)
	GetByAccountID(accountID uuid.UUID, offset, limit int) ([]models.Transaction, int64, error)
	GetByDateRange(accountID uuid.UUID, startDate, endDate time.Time) ([]models.Transaction, error)
	CountByDateRange(accountID uuid.UUID, startDate, endDate time.Time) (int64, error)
}

// StoreRepositoryInterface defines the contract for store item and purchase operations
type StoreRepositoryInterface interface {
	CreateItem(item *models.StoreItem) error
	GetItemByID(id uuid.UUID) (*models.StoreItem, error)
	GetItemsByTeacherID(teacherID uuid.UUID) ([]models.StoreItem, error)
	GetItemsForClass(classID uuid.UUID) ([]models.StoreItem, error)
	UpdateItem(item *models.StoreItem) error
	DeleteItem(id uuid.UUID) error
	AssignItemToClasses(itemID uuid.UUID, classIDs []uuid.UUID) error
	GetPurchasesByStudentID(studentID uuid.UUID) ([]models.StudentPurchase, error)
	GetPurchasesByItemID(itemID uuid.UUID) ([]models.StudentPurchase, error)
	ExecuteAtomicPurchase(studentID, itemID, accountID uuid.UUID, quantity int) (*models.StudentPurchase, uuid.UUID, error)
}

// ScheduledOperationRepositoryInterface defines the contract for scheduled fund operations
type ScheduledOperationRepositoryInterface interface {
	Create(op *models.ScheduledFundOperation) error
	GetByID(id uuid.UUID) (*models.ScheduledFundOperation, error)
	GetByTeacherID(teacherID uuid.UUID, offset, limit int) ([]models.ScheduledFundOperation, int64, error)
	GetByStudentID(studentID uuid.UUID) ([]models.ScheduledFundOperation, error)
	GetDue(now time.Time, limit int) ([]models.ScheduledFundOperation, error)
	Update(op *models.ScheduledFundOperation) error
	Cancel(id uuid.UUID) error
}

// StatementRepositoryInterface defines the contract for bank statement records
type StatementRepositoryInterface interface {
	Upsert(statement *models.BankStatement) error
	GetByAccountAndPeriod(accountID uuid.UUID, month, year int) (*models.BankStatement, error)
	GetByStudentID(studentID uuid.UUID) ([]models.BankStatement, error)
}

// AuditLogRepositoryInterface defines the contract for audit log repository operations
type AuditLogRepositoryInterface interface {
	Create(log *models.AuditLog) error
	GetByID(id uuid.UUID) (*models.AuditLog, error)
	GetByUserID(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	GetByAction(action string, offset, limit int) ([]*models.AuditLog, int64, error)
	GetByTimeRange(startTime, endTime time.Time, offset, limit int) ([]*models.AuditLog, int64, error)
	DeleteOlderThan(duration time.Duration) (int64, error)
}
