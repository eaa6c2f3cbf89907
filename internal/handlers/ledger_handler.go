package handlers

import (
	stderrors "errors"
	"net/http"

	"classbank/internal/dto"
	"classbank/internal/errors"
	"classbank/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// LedgerHandler handles account and transaction HTTP requests
type LedgerHandler struct {
	ledgerService services.LedgerServiceInterface
	auditLogger   services.AuditLoggerInterface
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService services.LedgerServiceInterface, auditLogger services.AuditLoggerInterface) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		auditLogger:   auditLogger,
	}
}

// GetStudentAccounts retrieves a student's accounts
// @Summary Get student accounts
// @Description Retrieve both accounts of a student. Students see their own; teachers see accounts of students enrolled in their classes.
// @Tags Ledger
// @Security BearerAuth
// @Produce json
// @Param studentId path string true "Student ID (UUID)"
// @Success 200 {object} dto.AccountListResponse "List of the student's accounts"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid student ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "ENROLL_003 - Student not enrolled in requestor's classes"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /students/{studentId}/accounts [get]
func (h *LedgerHandler) GetStudentAccounts(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid student ID"))
	}

	accounts, err := h.ledgerService.GetStudentAccounts(userID, studentID)
	if err != nil {
		return h.mapLedgerErr(c, err)
	}

	return c.JSON(http.StatusOK, dto.AccountListResponse{Accounts: accounts})
}

// OpenStudentAccounts opens the checking/savings pair for a student
// @Summary Open student accounts
// @Description Open the checking and savings account pair for a student. Idempotent: existing accounts are returned unchanged.
// @Tags Ledger
// @Security BearerAuth
// @Produce json
// @Param studentId path string true "Student ID (UUID)"
// @Success 201 {object} dto.AccountListResponse "Accounts for the student"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid student ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "AUTH_004 - Requires teacher role"
// @Failure 404 {object} errors.ErrorResponse "ENROLL_001 - Student not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /students/{studentId}/accounts [post]
func (h *LedgerHandler) OpenStudentAccounts(c echo.Context) error {
	if _, err := getUserIDFromContext(c); err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if !isTeacher(c) {
		return SendError(c, errors.AuthInsufficientPermission)
	}

	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid student ID"))
	}

	accounts, err := h.ledgerService.OpenAccountsForStudent(studentID)
	if err != nil {
		if stderrors.Is(err, services.ErrUserNotFound) {
			return SendError(c, errors.EnrollStudentNotFound)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.AccountListResponse{Accounts: accounts})
}

// GetAccount retrieves a specific account by ID
// @Summary Get account by ID
// @Description Retrieve one account. Authorization follows the same rules as student accounts.
// @Tags Ledger
// @Security BearerAuth
// @Produce json
// @Param accountId path string true "Account ID (UUID)"
// @Success 200 {object} models.Account "Account details"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid account ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "ENROLL_003 - Student not enrolled in requestor's classes"
// @Failure 404 {object} errors.ErrorResponse "LEDGER_001 - Account not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /accounts/{accountId} [get]
func (h *LedgerHandler) GetAccount(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid account ID"))
	}

	account, err := h.ledgerService.GetAccount(userID, accountID)
	if err != nil {
		return h.mapLedgerErr(c, err)
	}

	return c.JSON(http.StatusOK, account)
}

// GetAccountTransactions retrieves an account's transaction history
// @Summary Get account transactions
// @Description Retrieve paginated transaction history for an account, newest first
// @Tags Ledger
// @Security BearerAuth
// @Produce json
// @Param accountId path string true "Account ID (UUID)"
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Number of results (max 100)" default(20)
// @Success 200 {object} dto.TransactionListResponse "Paginated transactions"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid account ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "LEDGER_001 - Account not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /accounts/{accountId}/transactions [get]
func (h *LedgerHandler) GetAccountTransactions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid account ID"))
	}

	offset := getIntParam(c, "offset", 0)
	limit := getIntParam(c, "limit", 20)

	transactions, total, err := h.ledgerService.GetAccountTransactions(userID, accountID, offset, limit)
	if err != nil {
		return h.mapLedgerErr(c, err)
	}

	return c.JSON(http.StatusOK, dto.TransactionListResponse{
		Transactions: transactions,
		Total:        total,
		Offset:       offset,
		Limit:        limit,
	})
}

// Deposit credits a student's account
// @Summary Deposit into a student account
// @Description Teacher deposits funds into the account of a student enrolled in one of their classes
// @Tags Ledger
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.DepositRequest true "Deposit details"
// @Success 201 {object} dto.TransactionResponse "Deposit recorded"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body, LEDGER_004 - Invalid amount"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "AUTH_004 - Requires teacher role, ENROLL_003 - Student not in teacher's classes"
// @Failure 404 {object} errors.ErrorResponse "LEDGER_001 - Account not found"
// @Failure 422 {object} errors.ErrorResponse "LEDGER_002 - Account not active"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /ledger/deposit [post]
func (h *LedgerHandler) Deposit(c echo.Context) error {
	return h.handleTeacherMutation(c, true)
}

// Withdraw debits a student's account
// @Summary Withdraw from a student account
// @Description Teacher withdraws funds from the account of a student enrolled in one of their classes
// @Tags Ledger
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.WithdrawRequest true "Withdrawal details"
// @Success 201 {object} dto.TransactionResponse "Withdrawal recorded"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body, LEDGER_004 - Invalid amount"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "AUTH_004 - Requires teacher role, ENROLL_003 - Student not in teacher's classes"
// @Failure 404 {object} errors.ErrorResponse "LEDGER_001 - Account not found"
// @Failure 422 {object} errors.ErrorResponse "LEDGER_002 - Account not active, LEDGER_003 - Insufficient funds"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /ledger/withdraw [post]
func (h *LedgerHandler) Withdraw(c echo.Context) error {
	return h.handleTeacherMutation(c, false)
}

func (h *LedgerHandler) handleTeacherMutation(c echo.Context, isDeposit bool) error {
	teacherID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if !isTeacher(c) {
		return SendError(c, errors.AuthInsufficientPermission)
	}

	var req dto.DepositRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid student ID"))
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return SendError(c, errors.LedgerInvalidAmount, errors.WithDetails("Amount must be greater than 0"))
	}

	var transaction interface{}
	var message string
	if isDeposit {
		transaction, err = h.ledgerService.Deposit(teacherID, studentID, req.AccountType, amount, req.Description)
		message = "Deposit recorded successfully"
	} else {
		transaction, err = h.ledgerService.Withdraw(teacherID, studentID, req.AccountType, amount, req.Description)
		message = "Withdrawal recorded successfully"
	}
	if err != nil {
		return h.mapLedgerErr(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"transaction": transaction,
		"message":     message,
	})
}

// Transfer moves funds between the student's own accounts
// @Summary Transfer between own accounts
// @Description Student transfers funds between their checking and savings accounts
// @Tags Ledger
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.TransferRequest true "Transfer details"
// @Success 200 {object} dto.TransferResponse "Transfer completed"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body, LEDGER_004 - Invalid amount, LEDGER_005 - Same account"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "LEDGER_001 - Account not found"
// @Failure 422 {object} errors.ErrorResponse "LEDGER_002 - Account not active, LEDGER_003 - Insufficient funds"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /ledger/transfer [post]
func (h *LedgerHandler) Transfer(c echo.Context) error {
	studentID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.TransferRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return SendError(c, errors.LedgerInvalidAmount, errors.WithDetails("Amount must be greater than 0"))
	}

	outTx, inTx, err := h.ledgerService.Transfer(studentID, req.FromAccountType, req.ToAccountType, amount)
	if err != nil {
		return h.mapLedgerErr(c, err)
	}

	h.auditLogger.LogLedgerMutation(c.Request().Context(), "transfer", outTx.AccountID, outTx.ID, amount.String())

	return c.JSON(http.StatusOK, dto.TransferResponse{
		Message:        "Transfer completed successfully",
		OutTransaction: outTx,
		InTransaction:  inTx,
	})
}

func (h *LedgerHandler) mapLedgerErr(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrAccountNotFound):
		return SendError(c, errors.LedgerAccountNotFound)
	case stderrors.Is(err, services.ErrAccountNotActive):
		return SendError(c, errors.LedgerAccountInactive)
	case stderrors.Is(err, services.ErrInsufficientFunds):
		return SendError(c, errors.LedgerInsufficientFunds)
	case stderrors.Is(err, services.ErrInvalidAmount):
		return SendError(c, errors.LedgerInvalidAmount)
	case stderrors.Is(err, services.ErrSameAccountTransfer):
		return SendError(c, errors.LedgerSameAccount)
	case stderrors.Is(err, services.ErrNotTeachersStudent):
		return SendError(c, errors.EnrollNotTeachersStudent)
	case stderrors.Is(err, services.ErrUserNotFound):
		return SendError(c, errors.EnrollStudentNotFound)
	case stderrors.Is(err, services.ErrUnauthorized):
		return SendError(c, errors.AuthInsufficientPermission)
	default:
		return SendSystemError(c, err)
	}
}
