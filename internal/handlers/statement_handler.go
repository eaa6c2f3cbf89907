package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"classbank/internal/dto"
	"classbank/internal/errors"
	"classbank/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// StatementHandler handles statement HTTP requests
type StatementHandler struct {
	statementService services.StatementServiceInterface
	auditLogger      services.AuditLoggerInterface
}

// NewStatementHandler creates a new statement handler
func NewStatementHandler(statementService services.StatementServiceInterface, auditLogger services.AuditLoggerInterface) *StatementHandler {
	return &StatementHandler{
		statementService: statementService,
		auditLogger:      auditLogger,
	}
}

// DownloadStatement streams a monthly statement workbook
// @Summary Download monthly statement
// @Description Download the xlsx statement for an account and period. Completed months are served from cache; the current month renders fresh.
// @Tags Statements
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param accountId path string true "Account ID (UUID)"
// @Param month query int true "Statement month (1-12)"
// @Param year query int true "Statement year"
// @Success 200 {file} binary "Statement workbook"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid parameters, STATEMENT_003 - Future period"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "ENROLL_003 - Student not enrolled in requestor's classes"
// @Failure 404 {object} errors.ErrorResponse "LEDGER_001 - Account not found"
// @Failure 422 {object} errors.ErrorResponse "STATEMENT_002 - No transactions in period"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /accounts/{accountId}/statement [get]
func (h *StatementHandler) DownloadStatement(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid account ID"))
	}

	month := getIntParam(c, "month", 0)
	year := getIntParam(c, "year", 0)
	if month < 1 || month > 12 || year < 2000 {
		return SendError(c, errors.ValidationOutOfRange, errors.WithDetails("month must be 1-12 and year must be valid"))
	}

	download, err := h.statementService.GetMonthlyStatement(c.Request().Context(), userID, accountID, month, year)
	if err != nil {
		return h.mapStatementErr(c, err)
	}

	h.auditLogger.LogStatementGenerated(c.Request().Context(), accountID, month, year, download.FromCache)

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, download.Filename))
	return c.Blob(http.StatusOK, download.ContentType, download.Content)
}

// ListStatements retrieves the cached statement records for a student
// @Summary List statements
// @Description List the generated statement records for a student's accounts
// @Tags Statements
// @Security BearerAuth
// @Produce json
// @Param studentId path string true "Student ID (UUID)"
// @Success 200 {object} dto.StatementListResponse "List of statement records"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid student ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "ENROLL_003 - Student not enrolled in requestor's classes"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /students/{studentId}/statements [get]
func (h *StatementHandler) ListStatements(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid student ID"))
	}

	statements, err := h.statementService.ListStatements(userID, studentID)
	if err != nil {
		return h.mapStatementErr(c, err)
	}

	return c.JSON(http.StatusOK, dto.StatementListResponse{Statements: statements})
}

// RunMonthlyGeneration generates statements for the previous month. Secured by
// the scheduler bearer token, not user authentication.
// @Summary Generate monthly statements
// @Description Scheduler-triggered sweep that renders and caches statements for the previous month across all active accounts
// @Tags Scheduler
// @Security CronAuth
// @Produce json
// @Success 200 {object} dto.StatementRunResponse "Sweep report"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid scheduler token"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /cron/statements/run [post]
func (h *StatementHandler) RunMonthlyGeneration(c echo.Context) error {
	report, err := h.statementService.GenerateMonthlyStatements(c.Request().Context(), time.Now())
	if err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.StatementRunResponse{
		Accounts:  report.Accounts,
		Generated: report.Generated,
		Skipped:   report.Skipped,
		Failed:    report.Failed,
		Message:   "Statement sweep completed",
	})
}

func (h *StatementHandler) mapStatementErr(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrAccountNotFound):
		return SendError(c, errors.LedgerAccountNotFound)
	case stderrors.Is(err, services.ErrStatementNotFound):
		return SendError(c, errors.StatementNotFound)
	case stderrors.Is(err, services.ErrEmptyPeriod):
		return SendError(c, errors.StatementEmptyPeriod)
	case stderrors.Is(err, services.ErrFuturePeriod):
		return SendError(c, errors.StatementFuturePeriod)
	case stderrors.Is(err, services.ErrNotTeachersStudent):
		return SendError(c, errors.EnrollNotTeachersStudent)
	default:
		return SendSystemError(c, err)
	}
}
