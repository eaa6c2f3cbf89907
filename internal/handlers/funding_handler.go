package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"classbank/internal/dto"
	"classbank/internal/errors"
	"classbank/internal/models"
	"classbank/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// FundingHandler handles funding engine HTTP requests
type FundingHandler struct {
	fundingService services.FundingServiceInterface
	auditLogger    services.AuditLoggerInterface
}

// NewFundingHandler creates a new funding handler
func NewFundingHandler(fundingService services.FundingServiceInterface, auditLogger services.AuditLoggerInterface) *FundingHandler {
	return &FundingHandler{
		fundingService: fundingService,
		auditLogger:    auditLogger,
	}
}

// ApplyFunding applies a batch add/remove-funds instruction
// @Summary Apply funding to students
// @Description Add or remove funds for multiple students at once. Present-dated operations execute immediately; future-dated ones are scheduled; recurring instructions also schedule their next occurrence. Each student is processed independently.
// @Tags Funding
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ApplyFundingRequest true "Funding instruction"
// @Success 200 {object} dto.FundingBatchResponse "Per-student outcomes"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body, FUNDING_003 - Invalid kind, FUNDING_004 - Invalid recurrence, FUNDING_005 - No students"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "AUTH_004 - Requires teacher role"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /funding [post]
func (h *FundingHandler) ApplyFunding(c echo.Context) error {
	teacherID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if !isTeacher(c) {
		return SendError(c, errors.AuthInsufficientPermission)
	}

	var req dto.ApplyFundingRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	}

	studentIDs := make([]uuid.UUID, 0, len(req.StudentIDs))
	for _, idStr := range req.StudentIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid student ID: "+idStr))
		}
		studentIDs = append(studentIDs, id)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return SendError(c, errors.LedgerInvalidAmount, errors.WithDetails("Amount must be greater than 0"))
	}

	var effectiveDate time.Time
	if req.EffectiveDate != "" {
		effectiveDate, err = time.ParseInLocation("2006-01-02", req.EffectiveDate, time.Local)
		if err != nil {
			return SendError(c, errors.ValidationInvalidDate, errors.WithDetails("Effective date must be YYYY-MM-DD"))
		}
	}

	recurrence := req.Recurrence
	if recurrence == "" {
		recurrence = models.RecurrenceOnce
	}

	result, err := h.fundingService.ApplyFunding(c.Request().Context(), teacherID, services.FundingRequest{
		StudentIDs:    studentIDs,
		AccountType:   req.AccountType,
		Kind:          req.Kind,
		Amount:        amount,
		Description:   req.Description,
		EffectiveDate: effectiveDate,
		Recurrence:    recurrence,
	})
	if err != nil {
		return h.mapFundingErr(c, err)
	}

	return c.JSON(http.StatusOK, dto.FundingBatchResponse{
		Success: result.Success,
		Results: result.Results,
		Warning: result.Warning,
	})
}

// ListOperations retrieves the teacher's scheduled funding operations
// @Summary List scheduled funding operations
// @Description Retrieve the authenticated teacher's scheduled operations, newest first
// @Tags Funding
// @Security BearerAuth
// @Produce json
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Number of results (max 100)" default(20)
// @Success 200 {object} dto.ScheduledOperationListResponse "Paginated operations"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "AUTH_004 - Requires teacher role"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /funding/operations [get]
func (h *FundingHandler) ListOperations(c echo.Context) error {
	teacherID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if !isTeacher(c) {
		return SendError(c, errors.AuthInsufficientPermission)
	}

	offset := getIntParam(c, "offset", 0)
	limit := getIntParam(c, "limit", 20)

	operations, total, err := h.fundingService.ListOperations(teacherID, offset, limit)
	if err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ScheduledOperationListResponse{
		Operations: operations,
		Total:      total,
		Offset:     offset,
		Limit:      limit,
	})
}

// CancelOperation cancels a pending scheduled operation
// @Summary Cancel a scheduled operation
// @Description Cancel a pending scheduled funding operation owned by the authenticated teacher
// @Tags Funding
// @Security BearerAuth
// @Produce json
// @Param operationId path string true "Operation ID (UUID)"
// @Success 200 {object} dto.MessageResponse "Operation cancelled"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid operation ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "AUTH_004 - Operation belongs to another teacher"
// @Failure 404 {object} errors.ErrorResponse "FUNDING_001 - Operation not found"
// @Failure 409 {object} errors.ErrorResponse "FUNDING_002 - Operation is not pending"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /funding/operations/{operationId} [delete]
func (h *FundingHandler) CancelOperation(c echo.Context) error {
	teacherID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if !isTeacher(c) {
		return SendError(c, errors.AuthInsufficientPermission)
	}

	operationID, err := uuid.Parse(c.Param("operationId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid operation ID"))
	}

	if err := h.fundingService.CancelOperation(teacherID, operationID); err != nil {
		return h.mapFundingErr(c, err)
	}

	h.auditLogger.LogFundingExecution(c.Request().Context(), operationID, models.FundOperationStatusCancelled, "cancelled by teacher")

	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Operation cancelled successfully"})
}

// RunDueOperations executes all due scheduled operations. Secured by the
// scheduler bearer token, not user authentication.
// @Summary Execute due funding operations
// @Description Scheduler-triggered sweep that executes every pending operation whose effective date has arrived
// @Tags Scheduler
// @Security CronAuth
// @Produce json
// @Success 200 {object} dto.FundingRunResponse "Sweep report"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid scheduler token"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /cron/funding/run [post]
func (h *FundingHandler) RunDueOperations(c echo.Context) error {
	report, err := h.fundingService.ExecuteDueOperations(c.Request().Context(), time.Now())
	if err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.FundingRunResponse{
		Processed: report.Processed,
		Executed:  report.Executed,
		Failed:    report.Failed,
		Message:   "Funding sweep completed",
	})
}

func (h *FundingHandler) mapFundingErr(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrNoStudents):
		return SendError(c, errors.FundingNoStudents)
	case stderrors.Is(err, services.ErrInvalidKind):
		return SendError(c, errors.FundingInvalidKind)
	case stderrors.Is(err, services.ErrInvalidRecurrence):
		return SendError(c, errors.FundingInvalidRecurrence)
	case stderrors.Is(err, services.ErrInvalidAmount):
		return SendError(c, errors.LedgerInvalidAmount)
	case stderrors.Is(err, models.ErrInvalidAccountType):
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid account type"))
	case stderrors.Is(err, services.ErrOperationNotFound):
		return SendError(c, errors.FundingOperationNotFound)
	case stderrors.Is(err, services.ErrOperationNotOwned):
		return SendError(c, errors.AuthInsufficientPermission)
	case stderrors.Is(err, services.ErrOperationNotPending):
		return SendError(c, errors.FundingNotPending)
	default:
		return SendSystemError(c, err)
	}
}
