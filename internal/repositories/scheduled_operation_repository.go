package repositories

import (
	"errors"
	"fmt"
	"time"

	"classbank/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrScheduledOperationNotFound = errors.New("scheduled operation not found")
	ErrOperationNotPending        = errors.New("scheduled operation is not pending")
)

// scheduledOperationRepository implements ScheduledOperationRepositoryInterface
type scheduledOperationRepository struct {
	db *gorm.DB
}

// NewScheduledOperationRepository creates a new scheduled operation repository
func NewScheduledOperationRepository(db *gorm.DB) ScheduledOperationRepositoryInterface {
	return &scheduledOperationRepository{
		db: db,
	}
}

// Create creates a new scheduled operation
func (r *scheduledOperationRepository) Create(op *models.ScheduledFundOperation) error {
	if err := r.db.Create(op).Error; err != nil {
		return fmt.Errorf("failed to create scheduled operation: %w", err)
	}
	return nil
}

// GetByID retrieves a scheduled operation by ID
func (r *scheduledOperationRepository) GetByID(id uuid.UUID) (*models.ScheduledFundOperation, error) {
	op := &models.ScheduledFundOperation{ID: id}
	if err := r.db.First(op).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduledOperationNotFound
		}
		return nil, fmt.Errorf("failed to get scheduled operation: %w", err)
	}
	return op, nil
}

// GetByTeacherID retrieves a teacher's scheduled operations with pagination
func (r *scheduledOperationRepository) GetByTeacherID(teacherID uuid.UUID, offset, limit int) ([]models.ScheduledFundOperation, int64, error) {
	var ops []models.ScheduledFundOperation
	var total int64

	query := r.db.Model(&models.ScheduledFundOperation{}).Where("teacher_id = ?", teacherID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count scheduled operations: %w", err)
	}

	if err := query.Offset(offset).Limit(limit).
		Order("effective_date DESC").Find(&ops).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get scheduled operations: %w", err)
	}

	return ops, total, nil
}

// GetByStudentID retrieves a student's scheduled operations
func (r *scheduledOperationRepository) GetByStudentID(studentID uuid.UUID) ([]models.ScheduledFundOperation, error) {
	var ops []models.ScheduledFundOperation
	if err := r.db.Where("student_id = ?", studentID).
		Order("effective_date DESC").Find(&ops).Error; err != nil {
		return nil, fmt.Errorf("failed to get scheduled operations for student: %w", err)
	}
	return ops, nil
}

// GetDue retrieves pending operations whose effective date is on or before
// now, oldest first. The date comparison ignores time of day.
func (r *scheduledOperationRepository) GetDue(now time.Time, limit int) ([]models.ScheduledFundOperation, error) {
	cutoff := models.DateOnly(now).AddDate(0, 0, 1)

	var ops []models.ScheduledFundOperation
	if err := r.db.Where("status = ? AND effective_date < ?",
		models.FundOperationStatusPending, cutoff).
		Order("effective_date ASC").
		Limit(limit).
		Find(&ops).Error; err != nil {
		return nil, fmt.Errorf("failed to get due operations: %w", err)
	}
	return ops, nil
}

// Update updates a scheduled operation
func (r *scheduledOperationRepository) Update(op *models.ScheduledFundOperation) error {
	if err := r.db.Save(op).Error; err != nil {
		return fmt.Errorf("failed to update scheduled operation: %w", err)
	}
	return nil
}

// Cancel marks a pending operation as cancelled. Executed or failed
// operations cannot be cancelled.
func (r *scheduledOperationRepository) Cancel(id uuid.UUID) error {
	result := r.db.Model(&models.ScheduledFundOperation{}).
		Where("id = ? AND status = ?", id, models.FundOperationStatusPending).
		Update("status", models.FundOperationStatusCancelled)

	if result.Error != nil {
		return fmt.Errorf("failed to cancel scheduled operation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&models.ScheduledFundOperation{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check scheduled operation: %w", err)
		}
		if count == 0 {
			return ErrScheduledOperationNotFound
		}
		return ErrOperationNotPending
	}
	return nil
}
