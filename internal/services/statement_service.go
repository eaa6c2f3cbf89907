package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classbank/internal/models"
	"classbank/internal/repositories"
	"classbank/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const statementContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	ErrStatementNotFound = errors.New("statement not found")
	ErrEmptyPeriod       = errors.New("no transactions in the requested period")
	ErrFuturePeriod      = errors.New("statements cannot be generated for future periods")
)

// statementService implements StatementServiceInterface
type statementService struct {
	accountRepo     repositories.AccountRepositoryInterface
	transactionRepo repositories.TransactionRepositoryInterface
	statementRepo   repositories.StatementRepositoryInterface
	userRepo        repositories.UserRepositoryInterface
	classRepo       repositories.ClassRepositoryInterface
	auditRepo       repositories.AuditLogRepositoryInterface
	blobStore       storage.BlobStore
	metrics         MetricsRecorderInterface
	logger          *slog.Logger
}

// NewStatementService creates a statement service
func NewStatementService(
	accountRepo repositories.AccountRepositoryInterface,
	transactionRepo repositories.TransactionRepositoryInterface,
	statementRepo repositories.StatementRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	classRepo repositories.ClassRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	blobStore storage.BlobStore,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) StatementServiceInterface {
	return &statementService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		statementRepo:   statementRepo,
		userRepo:        userRepo,
		classRepo:       classRepo,
		auditRepo:       auditRepo,
		blobStore:       blobStore,
		metrics:         metrics,
		logger:          logger,
	}
}

// GetMonthlyStatement returns the statement for an account and period.
// Completed months are served from the cached artifact when one exists;
// the current month (and cache misses) render fresh and refresh the cache.
func (s *statementService) GetMonthlyStatement(ctx context.Context, requestorID, accountID uuid.UUID, month, year int) (*StatementDownload, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be between 1 and 12")
	}

	now := time.Now()
	periodStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	if periodStart.After(now) {
		return nil, ErrFuturePeriod
	}

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

	periodEnd := periodStart.AddDate(0, 1, 0)
	monthComplete := !periodEnd.After(now)
	filename := models.StatementFilename(month, year, account.AccountType)

	// Completed months never change, so a cached artifact is authoritative.
	if monthComplete {
		record, err := s.statementRepo.GetByAccountAndPeriod(accountID, month, year)
		if err == nil {
			content, getErr := s.blobStore.Get(ctx, record.ObjectKey)
			if getErr == nil {
				s.metrics.IncrementCounter("statements_served_total", map[string]string{"source": "cache"})
				s.recordStatementAudit(requestorID, models.AuditActionStatementViewed, accountID, month, year)
				return &StatementDownload{
					Filename:    filename,
					ContentType: statementContentType,
					Content:     content,
					GeneratedAt: record.GeneratedAt,
					FromCache:   true,
				}, nil
			}
			// Stale record pointing at a missing blob: fall through and regenerate
			s.logger.Warn("cached statement artifact missing, regenerating",
				"account_id", accountID,
				"object_key", record.ObjectKey,
				"error", getErr)
		} else if !errors.Is(err, repositories.ErrStatementNotFound) {
			return nil, fmt.Errorf("failed to look up cached statement: %w", err)
		}
	}

	content, generatedAt, err := s.renderStatement(ctx, account, month, year, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	if monthComplete {
		if err := s.cacheStatement(ctx, account, month, year, content, generatedAt); err != nil {
			// Serving the fresh render still succeeds even if caching fails
			s.logger.Error("failed to cache statement", "account_id", accountID, "error", err)
		}
	}

	s.metrics.IncrementCounter("statements_served_total", map[string]string{"source": "fresh"})
	s.recordStatementAudit(requestorID, models.AuditActionStatementGenerated, accountID, month, year)

	return &StatementDownload{
		Filename:    filename,
		ContentType: statementContentType,
		Content:     content,
		GeneratedAt: generatedAt,
		FromCache:   false,
	}, nil
}

// GenerateMonthlyStatements renders and caches statements for the previous
// month across all active accounts. Accounts with no transactions in the
// period are skipped; individual failures do not stop the sweep.
func (s *statementService) GenerateMonthlyStatements(ctx context.Context, now time.Time) (*StatementRunReport, error) {
	started := time.Now()
	report := &StatementRunReport{}

	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, -1, 0)
	periodEnd := periodStart.AddDate(0, 1, 0)
	month := int(periodStart.Month())
	year := periodStart.Year()

	const pageSize = 200
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		accounts, total, err := s.accountRepo.GetActiveAccounts(offset, pageSize)
		if err != nil {
			return report, fmt.Errorf("failed to list active accounts: %w", err)
		}

		for i := range accounts {
			account := &accounts[i]
			report.Accounts++

			count, err := s.transactionRepo.CountByDateRange(account.ID, periodStart, periodEnd)
			if err != nil {
				report.Failed++
				s.logger.Error("failed to count transactions for statement",
					"account_id", account.ID, "error", err)
				continue
			}
			if count == 0 {
				report.Skipped++
				continue
			}

			content, generatedAt, err := s.renderStatement(ctx, account, month, year, periodStart, periodEnd)
			if err != nil {
				report.Failed++
				s.logger.Error("failed to render statement",
					"account_id", account.ID, "month", month, "year", year, "error", err)
				continue
			}

			if err := s.cacheStatement(ctx, account, month, year, content, generatedAt); err != nil {
				report.Failed++
				s.logger.Error("failed to cache statement",
					"account_id", account.ID, "error", err)
				continue
			}

			report.Generated++
		}

		offset += pageSize
		if int64(offset) >= total {
			break
		}
	}

	s.metrics.RecordProcessingTime("statement_generation_sweep", time.Since(started))
	s.logger.Info("statement generation sweep complete",
		"month", month,
		"year", year,
		"accounts", report.Accounts,
		"generated", report.Generated,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", time.Since(started))

	return report, nil
}

// ListStatements returns the cached statement records for a student
func (s *statementService) ListStatements(requestorID, studentID uuid.UUID) ([]models.BankStatement, error) {
	if err := s.authorizeStudentAccess(requestorID, studentID); err != nil {
		return nil, err
	}

	statements, err := s.statementRepo.GetByStudentID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	return statements, nil
}

// renderStatement builds the xlsx artifact for one account and period
func (s *statementService) renderStatement(ctx context.Context, account *models.Account, month, year int, periodStart, periodEnd time.Time) ([]byte, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}

	transactions, err := s.transactionRepo.GetByDateRange(account.ID, periodStart, periodEnd)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get transactions: %w", err)
	}
	if len(transactions) == 0 {
		return nil, time.Time{}, ErrEmptyPeriod
	}

	student, err := s.userRepo.GetByID(account.StudentID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get student: %w", err)
	}

	className := ""
	if class, err := s.classRepo.GetPrimaryClassForStudent(account.StudentID); err == nil {
		className = class.Name
	}

	content, err := buildStatementWorkbook(account, student, className, month, year, transactions)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to build statement workbook: %w", err)
	}

	return content, time.Now(), nil
}

// cacheStatement stores the artifact and upserts the period record
func (s *statementService) cacheStatement(ctx context.Context, account *models.Account, month, year int, content []byte, generatedAt time.Time) error {
	objectKey := models.StatementObjectKey(account.ID, month, year)

	if err := s.blobStore.Put(ctx, objectKey, content); err != nil {
		return fmt.Errorf("failed to store statement artifact: %w", err)
	}

	if err := s.statementRepo.Upsert(&models.BankStatement{
		AccountID:   account.ID,
		StudentID:   account.StudentID,
		Month:       month,
		Year:        year,
		ObjectKey:   objectKey,
		GeneratedAt: generatedAt,
	}); err != nil {
		return fmt.Errorf("failed to upsert statement record: %w", err)
	}

	return nil
}

func (s *statementService) authorizeStudentAccess(requestorID, studentID uuid.UUID) error {
	if requestorID == studentID {
		return nil
	}

	has, err := s.classRepo.TeacherHasStudent(requestorID, studentID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !has {
		return ErrNotTeachersStudent
	}
	return nil
}

func (s *statementService) recordStatementAudit(requestorID uuid.UUID, action string, accountID uuid.UUID, month, year int) {
	if err := s.auditRepo.Create(&models.AuditLog{
		UserID:     &requestorID,
		Action:     action,
		Resource:   "statement",
		ResourceID: accountID.String(),
		IPAddress:  "system",
		UserAgent:  "internal",
		Metadata: models.JSONBMap{
			"month": month,
			"year":  year,
		},
	}); err != nil {
		s.logger.Error("failed to create audit log", "error", err, "action", action)
	}
}

// buildStatementWorkbook renders the statement spreadsheet: a header block
// identifying the student, class, account and period, followed by one row per
// transaction with a running balance, and a closing summary.
func buildStatementWorkbook(account *models.Account, student *models.User, className string, month, year int, transactions []models.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Statement"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}

	period := fmt.Sprintf("%s %d", time.Month(month).String(), year)
	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s Statement - %s", account.Label(), period))
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	f.SetCellValue(sheet, "A2", "Student:")
	f.SetCellValue(sheet, "B2", student.FullName())
	f.SetCellValue(sheet, "A3", "Class:")
	f.SetCellValue(sheet, "B3", className)
	f.SetCellValue(sheet, "A4", "Account Number:")
	f.SetCellValue(sheet, "B4", account.AccountNumber)

	f.SetCellValue(sheet, "A5", "Opening Balance:")
	f.SetCellValue(sheet, "B5", toFloat(openingBalanceFor(transactions)))
	f.SetCellStyle(sheet, "B5", "B5", moneyStyle)

	const headerRow = 7
	headers := []string{"Date", "Time", "Description", "Type", "Amount", "Balance"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheet, cell, header)
	}
	startCell, _ := excelize.CoordinatesToCellName(1, headerRow)
	endCell, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	f.SetCellStyle(sheet, startCell, endCell, headerStyle)

	row := headerRow + 1
	for _, tx := range transactions {
		amount := tx.Amount
		if !tx.IsCredit() {
			amount = amount.Neg()
		}

		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), tx.CreatedAt.Format("2006-01-02"))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), tx.CreatedAt.Format("15:04"))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), tx.Description)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), transactionTypeLabel(tx.TransactionType))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), toFloat(amount))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), toFloat(tx.BalanceAfter))
		f.SetCellStyle(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("F%d", row), moneyStyle)
		row++
	}

	closingBalance := transactions[len(transactions)-1].BalanceAfter
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row+1), "Closing Balance:")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", row+1), toFloat(closingBalance))
	f.SetCellStyle(sheet, fmt.Sprintf("F%d", row+1), fmt.Sprintf("F%d", row+1), moneyStyle)

	f.SetColWidth(sheet, "A", "B", 12)
	f.SetColWidth(sheet, "C", "C", 40)
	f.SetColWidth(sheet, "D", "F", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// openingBalanceFor derives the period's opening balance from the first
// transaction's snapshot.
func openingBalanceFor(transactions []models.Transaction) decimal.Decimal {
	if len(transactions) == 0 {
		return decimal.Zero
	}
	return transactions[0].BalanceBefore
}

func transactionTypeLabel(transactionType string) string {
	switch transactionType {
	case models.TransactionTypeDeposit:
		return "Deposit"
	case models.TransactionTypeWithdrawal:
		return "Withdrawal"
	case models.TransactionTypeTransferIn:
		return "Transfer In"
	case models.TransactionTypeTransferOut:
		return "Transfer Out"
	default:
		return transactionType
	}
}

func toFloat(d decimal.Decimal) float64 {
	value, _ := d.Float64()
	return value
}
