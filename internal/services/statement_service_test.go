package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"classbank/internal/database"
	"classbank/internal/models"
	"classbank/internal/repositories"
	"classbank/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// StatementServiceSuite defines the test suite for StatementService
type StatementServiceSuite struct {
	suite.Suite
	db          *database.DB
	service     StatementServiceInterface
	accountRepo repositories.AccountRepositoryInterface
	blobStore   storage.BlobStore
	testTeacher *models.User
	testStudent *models.User
	checking    *models.Account
}

// SetupTest runs before each test in the suite
func (s *StatementServiceSuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())

	blobStore, err := storage.NewFileBlobStore(s.T().TempDir())
	s.NoError(err)
	s.blobStore = blobStore

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.accountRepo = repositories.NewAccountRepository(s.db.DB)
	s.service = NewStatementService(
		s.accountRepo,
		repositories.NewTransactionRepository(s.db.DB),
		repositories.NewStatementRepository(s.db.DB),
		repositories.NewUserRepository(s.db.DB),
		repositories.NewClassRepository(s.db.DB),
		repositories.NewAuditLogRepository(s.db.DB),
		blobStore,
		NewPrometheusMetricsWithRegisterer(prometheus.NewRegistry()),
		logger,
	)

	s.testTeacher = database.CreateTestTeacher(s.T(), s.db, "teacher@example.com")
	s.testStudent = database.CreateTestStudent(s.T(), s.db, "student@example.com")

	class := &models.Class{TeacherID: s.testTeacher.ID, Name: "Math 5"}
	s.NoError(s.db.Create(class).Error)
	s.NoError(s.db.Create(&models.Enrollment{
		ClassID:   class.ID,
		StudentID: s.testStudent.ID,
	}).Error)

	accounts, err := s.accountRepo.CreateAccountsForStudent(s.testStudent.ID)
	s.NoError(err)
	s.checking = &accounts[0]
}

// TearDownTest runs after each test in the suite
func (s *StatementServiceSuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

// TestStatementServiceSuite runs the test suite
func TestStatementServiceSuite(t *testing.T) {
	suite.Run(t, new(StatementServiceSuite))
}

func (s *StatementServiceSuite) depositAt(amount int64, occurredAt time.Time) {
	_, err := s.accountRepo.ExecuteAtomicDeposit(s.checking.ID,
		decimal.NewFromInt(amount), "Deposit", occurredAt)
	s.NoError(err)
}

// previousMonth returns the first day of last month plus the month/year pair
func (s *StatementServiceSuite) previousMonth() (time.Time, int, int) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, -1, 0)
	return start, int(start.Month()), start.Year()
}

// xlsx files start with the PK zip signature
func (s *StatementServiceSuite) assertWorkbook(content []byte) {
	s.True(len(content) > 4)
	s.True(bytes.HasPrefix(content, []byte("PK")))
}

// Test a completed month: first request renders and caches, second serves
// the cached artifact.
func (s *StatementServiceSuite) TestGetMonthlyStatement_CompletedMonthCaches() {
	start, month, year := s.previousMonth()
	s.depositAt(50, start.AddDate(0, 0, 3))

	first, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, month, year)
	s.NoError(err)
	s.False(first.FromCache)
	s.assertWorkbook(first.Content)
	s.Equal(models.StatementFilename(month, year, models.AccountTypeChecking), first.Filename)

	second, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, month, year)
	s.NoError(err)
	s.True(second.FromCache)
	s.Equal(first.Content, second.Content)
}

// Test the current month is always rendered fresh and never cached
func (s *StatementServiceSuite) TestGetMonthlyStatement_CurrentMonthAlwaysFresh() {
	now := time.Now()
	s.depositAt(50, now)

	first, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, int(now.Month()), now.Year())
	s.NoError(err)
	s.False(first.FromCache)

	second, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, int(now.Month()), now.Year())
	s.NoError(err)
	s.False(second.FromCache)

	// No cache record was written for the open month
	statements, err := s.service.ListStatements(s.testStudent.ID, s.testStudent.ID)
	s.NoError(err)
	s.Len(statements, 0)
}

// Test a stale cache record whose artifact is gone regenerates
func (s *StatementServiceSuite) TestGetMonthlyStatement_StaleBlobRegenerates() {
	start, month, year := s.previousMonth()
	s.depositAt(50, start.AddDate(0, 0, 3))

	first, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, month, year)
	s.NoError(err)
	s.False(first.FromCache)

	// Remove the artifact behind the cache record
	s.NoError(s.blobStore.Delete(context.Background(),
		models.StatementObjectKey(s.checking.ID, month, year)))

	regenerated, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, month, year)
	s.NoError(err)
	s.False(regenerated.FromCache)
	s.assertWorkbook(regenerated.Content)

	// The cache is repaired: the next request is served from it again
	third, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, month, year)
	s.NoError(err)
	s.True(third.FromCache)
}

// Test error cases
func (s *StatementServiceSuite) TestGetMonthlyStatement_FuturePeriod() {
	future := time.Now().AddDate(0, 2, 0)
	_, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, int(future.Month()), future.Year())
	s.ErrorIs(err, ErrFuturePeriod)
}

func (s *StatementServiceSuite) TestGetMonthlyStatement_EmptyPeriod() {
	_, month, year := s.previousMonth()
	_, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, month, year)
	s.ErrorIs(err, ErrEmptyPeriod)
}

func (s *StatementServiceSuite) TestGetMonthlyStatement_InvalidMonth() {
	_, err := s.service.GetMonthlyStatement(context.Background(), s.testStudent.ID, s.checking.ID, 13, 2026)
	s.Error(err)
}

func (s *StatementServiceSuite) TestGetMonthlyStatement_Authorization() {
	start, month, year := s.previousMonth()
	s.depositAt(50, start.AddDate(0, 0, 3))

	// The enrolled teacher may download
	_, err := s.service.GetMonthlyStatement(context.Background(), s.testTeacher.ID, s.checking.ID, month, year)
	s.NoError(err)

	// An unrelated teacher may not
	otherTeacher := database.CreateTestTeacher(s.T(), s.db, "other@example.com")
	_, err = s.service.GetMonthlyStatement(context.Background(), otherTeacher.ID, s.checking.ID, month, year)
	s.ErrorIs(err, ErrNotTeachersStudent)
}

// Test the monthly sweep generates statements for active accounts with
// activity and skips the rest.
func (s *StatementServiceSuite) TestGenerateMonthlyStatements() {
	start, month, year := s.previousMonth()
	s.depositAt(50, start.AddDate(0, 0, 3))

	// A second student with accounts but no activity last month
	idle := database.CreateTestStudent(s.T(), s.db, "idle@example.com")
	_, err := s.accountRepo.CreateAccountsForStudent(idle.ID)
	s.NoError(err)

	report, err := s.service.GenerateMonthlyStatements(context.Background(), time.Now())
	s.NoError(err)
	s.Equal(4, report.Accounts)
	s.Equal(1, report.Generated)
	s.Equal(3, report.Skipped)
	s.Equal(0, report.Failed)

	// The generated statement is cached and listed
	statements, err := s.service.ListStatements(s.testStudent.ID, s.testStudent.ID)
	s.NoError(err)
	s.Len(statements, 1)
	s.Equal(month, statements[0].Month)
	s.Equal(year, statements[0].Year)

	content, err := s.blobStore.Get(context.Background(), statements[0].ObjectKey)
	s.NoError(err)
	s.assertWorkbook(content)
}

// Test ListStatements authorization
func (s *StatementServiceSuite) TestListStatements_Authorization() {
	otherStudent := database.CreateTestStudent(s.T(), s.db, "other@example.com")
	_, err := s.service.ListStatements(otherStudent.ID, s.testStudent.ID)
	s.ErrorIs(err, ErrNotTeachersStudent)
}
