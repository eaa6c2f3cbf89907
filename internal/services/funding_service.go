package services

import (
	"context"
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
	ErrOperationNotFound   = errors.New("scheduled operation not found")
	ErrOperationNotOwned   = errors.New("scheduled operation belongs to another teacher")
	ErrOperationNotPending = errors.New("scheduled operation is not pending")
	ErrNoStudents          = errors.New("at least one student is required")
	ErrInvalidKind         = errors.New("funding kind must be add or remove")
	ErrInvalidRecurrence   = errors.New("invalid recurrence")
)

// fundingService implements FundingServiceInterface
type fundingService struct {
	accountRepo   repositories.AccountRepositoryInterface
	scheduledRepo repositories.ScheduledOperationRepositoryInterface
	classRepo     repositories.ClassRepositoryInterface
	auditRepo     repositories.AuditLogRepositoryInterface
	metrics       MetricsRecorderInterface
	logger        *slog.Logger
	batchSize     int
}

// NewFundingService creates a funding service. batchSize bounds how many due
// operations a single execution sweep picks up.
func NewFundingService(
	accountRepo repositories.AccountRepositoryInterface,
	scheduledRepo repositories.ScheduledOperationRepositoryInterface,
	classRepo repositories.ClassRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
	batchSize int,
) FundingServiceInterface {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &fundingService{
		accountRepo:   accountRepo,
		scheduledRepo: scheduledRepo,
		classRepo:     classRepo,
		auditRepo:     auditRepo,
		metrics:       metrics,
		logger:        logger,
		batchSize:     batchSize,
	}
}

// ApplyFunding processes a batch add/remove-funds instruction. Operations
// effective today or in the past execute immediately (backdated to the
// effective date); future-dated operations are scheduled. Recurring
// instructions additionally get a pending row for their next occurrence. Each
// student is processed independently, so one failure never rolls back the
// others.
func (s *fundingService) ApplyFunding(ctx context.Context, teacherID uuid.UUID, req FundingRequest) (*FundingBatchResult, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	if req.Recurrence == "" {
		req.Recurrence = models.RecurrenceOnce
	}

	now := time.Now()
	effectiveDate := req.EffectiveDate
	if effectiveDate.IsZero() {
		effectiveDate = now
	}
	isFuture := models.DateOnly(effectiveDate).After(models.DateOnly(now))

	result := &FundingBatchResult{
		Success: true,
		Results: make([]StudentFundingResult, 0, len(req.StudentIDs)),
	}

	failed := 0
	for _, studentID := range req.StudentIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		studentResult := s.applyToStudent(teacherID, studentID, req, effectiveDate, isFuture)
		if !studentResult.Success {
			failed++
			result.Success = false
		}
		result.Results = append(result.Results, studentResult)
	}

	if failed > 0 {
		result.Warning = fmt.Sprintf("%d of %d students could not be processed", failed, len(req.StudentIDs))
	}

	s.metrics.IncrementCounter("funding_batches_total", map[string]string{"kind": req.Kind})
	s.logger.Info("funding batch processed",
		"teacher_id", teacherID,
		"kind", req.Kind,
		"students", len(req.StudentIDs),
		"failed", failed,
		"scheduled", isFuture)

	return result, nil
}

func (s *fundingService) applyToStudent(teacherID, studentID uuid.UUID, req FundingRequest, effectiveDate time.Time, isFuture bool) StudentFundingResult {
	result := StudentFundingResult{StudentID: studentID}

	has, err := s.classRepo.TeacherHasStudent(teacherID, studentID)
	if err != nil {
		result.Error = "failed to verify enrollment"
		return result
	}
	if !has {
		result.Error = "student is not enrolled in any of your classes"
		return result
	}

	if isFuture {
		op, err := s.scheduleOperation(teacherID, studentID, req, effectiveDate)
		if err != nil {
			result.Error = "failed to schedule operation"
			return result
		}

		result.Success = true
		result.Scheduled = true
		result.OperationID = &op.ID
		return result
	}

	txID, err := s.executeImmediate(studentID, req.AccountType, req.Kind, req.Amount, req.Description, effectiveDate)
	if err != nil {
		result.Error = s.userFacingReason(err)
		return result
	}

	s.recordFundingAudit(teacherID, s.auditActionForKind(req.Kind), txID, req, false)

	result.Success = true
	result.TransactionID = &txID

	// A recurring instruction whose first occurrence just executed still needs
	// a pending row for the next occurrence so the sweep can roll the chain
	// forward.
	if req.Recurrence != models.RecurrenceOnce {
		seed := &models.ScheduledFundOperation{Recurrence: req.Recurrence, EffectiveDate: models.DateOnly(effectiveDate)}
		next, err := s.scheduleOperation(teacherID, studentID, req, seed.NextEffectiveDate())
		if err != nil {
			// The funds already landed, so the result keeps the transaction ID,
			// but a missing next occurrence is a failure the teacher must see.
			result.Success = false
			result.Error = "funds were applied but the recurring schedule could not be created"
			return result
		}
		result.OperationID = &next.ID
	}

	return result
}

func (s *fundingService) scheduleOperation(teacherID, studentID uuid.UUID, req FundingRequest, effectiveDate time.Time) (*models.ScheduledFundOperation, error) {
	op := &models.ScheduledFundOperation{
		TeacherID:     teacherID,
		StudentID:     studentID,
		AccountType:   req.AccountType,
		Kind:          req.Kind,
		Amount:        req.Amount,
		Description:   req.Description,
		EffectiveDate: models.DateOnly(effectiveDate),
		Recurrence:    req.Recurrence,
	}
	if err := s.scheduledRepo.Create(op); err != nil {
		s.logger.Error("failed to schedule funding operation",
			"teacher_id", teacherID, "student_id", studentID, "error", err)
		return nil, err
	}

	s.recordFundingAudit(teacherID, models.AuditActionFundingScheduled, op.ID, req, true)
	return op, nil
}

// executeImmediate applies one add/remove against a student's account,
// backdating the transaction to the effective date.
func (s *fundingService) executeImmediate(studentID uuid.UUID, accountType, kind string, amount decimal.Decimal, description string, occurredAt time.Time) (uuid.UUID, error) {
	account, err := s.accountRepo.GetByStudentIDAndType(studentID, accountType)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return uuid.Nil, ErrAccountNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get account: %w", err)
	}

	if kind == models.FundOperationKindAdd {
		return s.accountRepo.ExecuteAtomicDeposit(account.ID, amount, description, occurredAt)
	}
	return s.accountRepo.ExecuteAtomicWithdrawal(account.ID, amount, description, occurredAt)
}

// ExecuteDueOperations runs every pending operation whose effective date has
// arrived. Recurring operations that execute successfully spawn their next
// occurrence; failed runs do not, so a broken chain stops instead of piling
// up failures.
func (s *fundingService) ExecuteDueOperations(ctx context.Context, now time.Time) (*FundingRunReport, error) {
	started := time.Now()
	report := &FundingRunReport{}

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		due, err := s.scheduledRepo.GetDue(now, s.batchSize)
		if err != nil {
			return report, fmt.Errorf("failed to fetch due operations: %w", err)
		}
		if len(due) == 0 {
			break
		}

		for i := range due {
			op := &due[i]
			report.Processed++

			txID, execErr := s.executeImmediate(op.StudentID, op.AccountType, op.Kind, op.Amount, op.Description, op.EffectiveDate)
			if execErr != nil {
				report.Failed++
				op.MarkFailed(s.userFacingReason(execErr))
				if err := s.scheduledRepo.Update(op); err != nil {
					s.logger.Error("failed to mark operation failed", "operation_id", op.ID, "error", err)
				}
				s.recordExecutionAudit(op, models.AuditActionFundingFailed, op.FailureReason)
				s.logger.Warn("scheduled funding operation failed",
					"operation_id", op.ID,
					"student_id", op.StudentID,
					"kind", op.Kind,
					"reason", op.FailureReason)
				continue
			}

			report.Executed++
			op.MarkExecuted()
			if err := s.scheduledRepo.Update(op); err != nil {
				s.logger.Error("failed to mark operation executed", "operation_id", op.ID, "error", err)
			}
			s.recordExecutionAudit(op, models.AuditActionFundingExecuted, txID.String())

			if op.IsRecurring() {
				next := op.NextOccurrence()
				if err := s.scheduledRepo.Create(next); err != nil {
					s.logger.Error("failed to create next occurrence",
						"operation_id", op.ID, "error", err)
				}
			}
		}

		if len(due) < s.batchSize {
			break
		}
	}

	s.metrics.RecordProcessingTime("funding_execution_sweep", time.Since(started))
	s.metrics.IncrementCounter("funding_operations_executed_total", nil)
	s.logger.Info("funding execution sweep complete",
		"processed", report.Processed,
		"executed", report.Executed,
		"failed", report.Failed,
		"duration", time.Since(started))

	return report, nil
}

// CancelOperation cancels a pending operation owned by the teacher
func (s *fundingService) CancelOperation(teacherID, operationID uuid.UUID) error {
	op, err := s.scheduledRepo.GetByID(operationID)
	if err != nil {
		if errors.Is(err, repositories.ErrScheduledOperationNotFound) {
			return ErrOperationNotFound
		}
		return fmt.Errorf("failed to get operation: %w", err)
	}

	if op.TeacherID != teacherID {
		return ErrOperationNotOwned
	}

	if err := s.scheduledRepo.Cancel(operationID); err != nil {
		if errors.Is(err, repositories.ErrOperationNotPending) {
			return ErrOperationNotPending
		}
		if errors.Is(err, repositories.ErrScheduledOperationNotFound) {
			return ErrOperationNotFound
		}
		return fmt.Errorf("failed to cancel operation: %w", err)
	}

	s.recordExecutionAudit(op, models.AuditActionFundingCancelled, "")
	s.logger.Info("scheduled funding operation cancelled",
		"operation_id", operationID,
		"teacher_id", teacherID)

	return nil
}

// ListOperations returns a teacher's scheduled operations, newest first
func (s *fundingService) ListOperations(teacherID uuid.UUID, offset, limit int) ([]models.ScheduledFundOperation, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ops, total, err := s.scheduledRepo.GetByTeacherID(teacherID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list operations: %w", err)
	}
	return ops, total, nil
}

func (s *fundingService) validateRequest(req FundingRequest) error {
	if len(req.StudentIDs) == 0 {
		return ErrNoStudents
	}
	if req.Kind != models.FundOperationKindAdd && req.Kind != models.FundOperationKindRemove {
		return ErrInvalidKind
	}
	if req.Recurrence != "" && !models.IsValidRecurrence(req.Recurrence) {
		return ErrInvalidRecurrence
	}
	if !models.IsValidAccountType(req.AccountType) {
		return models.ErrInvalidAccountType
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// userFacingReason maps execution errors to short reasons safe to surface in
// batch results and failure_reason columns.
func (s *fundingService) userFacingReason(err error) string {
	switch {
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, repositories.ErrAccountNotFound):
		return "account not found"
	case errors.Is(err, repositories.ErrInsufficientFunds):
		return "insufficient funds"
	case errors.Is(err, repositories.ErrAccountNotActive):
		return "account is not active"
	default:
		return "operation failed"
	}
}

func (s *fundingService) auditActionForKind(kind string) string {
	if kind == models.FundOperationKindAdd {
		return models.AuditActionDeposit
	}
	return models.AuditActionWithdrawal
}

func (s *fundingService) recordFundingAudit(teacherID uuid.UUID, action string, refID uuid.UUID, req FundingRequest, scheduled bool) {
	if err := s.auditRepo.Create(&models.AuditLog{
		UserID:     &teacherID,
		Action:     action,
		Resource:   "funding",
		ResourceID: refID.String(),
		IPAddress:  "system",
		UserAgent:  "internal",
		Metadata: models.JSONBMap{
			"kind":         req.Kind,
			"amount":       req.Amount.String(),
			"account_type": req.AccountType,
			"recurrence":   req.Recurrence,
			"scheduled":    scheduled,
		},
	}); err != nil {
		s.logger.Error("failed to create audit log", "error", err, "action", action)
	}
}

func (s *fundingService) recordExecutionAudit(op *models.ScheduledFundOperation, action, detail string) {
	if err := s.auditRepo.Create(&models.AuditLog{
		UserID:     &op.TeacherID,
		Action:     action,
		Resource:   "funding",
		ResourceID: op.ID.String(),
		IPAddress:  "system",
		UserAgent:  "internal",
		Metadata: models.JSONBMap{
			"student_id": op.StudentID.String(),
			"kind":       op.Kind,
			"amount":     op.Amount.String(),
			"detail":     detail,
		},
	}); err != nil {
		s.logger.Error("failed to create audit log", "error", err, "action", action)
	}
}
