package repositories

import (
	"errors"
	"fmt"

	"classbank/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrStatementNotFound = errors.New("statement not found")
)

// statementRepository implements StatementRepositoryInterface
type statementRepository struct {
	db *gorm.DB
}

// NewStatementRepository creates a new statement repository
func NewStatementRepository(db *gorm.DB) StatementRepositoryInterface {
	return &statementRepository{
		db: db,
	}
}

// Upsert records a generated statement, replacing any existing record for the
// same account and period.
func (r *statementRepository) Upsert(statement *models.BankStatement) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.BankStatement
		err := tx.Where("account_id = ? AND month = ? AND year = ?",
			statement.AccountID, statement.Month, statement.Year).
			First(&existing).Error
		switch {
		case err == nil:
			existing.ObjectKey = statement.ObjectKey
			existing.GeneratedAt = statement.GeneratedAt
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update statement record: %w", err)
			}
			*statement = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(statement).Error; err != nil {
				return fmt.Errorf("failed to create statement record: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("failed to look up statement record: %w", err)
		}
	})
}

// GetByAccountAndPeriod retrieves the statement record for an account and period
func (r *statementRepository) GetByAccountAndPeriod(accountID uuid.UUID, month, year int) (*models.BankStatement, error) {
	var statement models.BankStatement
	if err := r.db.Where("account_id = ? AND month = ? AND year = ?",
		accountID, month, year).First(&statement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatementNotFound
		}
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}
	return &statement, nil
}

// GetByStudentID retrieves all statement records for a student, newest first
func (r *statementRepository) GetByStudentID(studentID uuid.UUID) ([]models.BankStatement, error) {
	var statements []models.BankStatement
	if err := r.db.Where("student_id = ?", studentID).
		Order("year DESC, month DESC").
		Find(&statements).Error; err != nil {
		return nil, fmt.Errorf("failed to get statements for student: %w", err)
	}
	return statements, nil
}
