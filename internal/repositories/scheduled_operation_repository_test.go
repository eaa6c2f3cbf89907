package repositories

import (
	"testing"
	"time"

	"classbank/internal/database"
	"classbank/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// ScheduledOperationRepositorySuite defines the test suite for ScheduledOperationRepository
type ScheduledOperationRepositorySuite struct {
	suite.Suite
	db          *database.DB
	repo        ScheduledOperationRepositoryInterface
	testTeacher *models.User
	testStudent *models.User
}

// SetupTest runs before each test in the suite
func (s *ScheduledOperationRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewScheduledOperationRepository(s.db.DB)
	s.testTeacher = database.CreateTestTeacher(s.T(), s.db, "teacher@example.com")
	s.testStudent = database.CreateTestStudent(s.T(), s.db, "student@example.com")
}

// TearDownTest runs after each test in the suite
func (s *ScheduledOperationRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

// TestScheduledOperationRepositorySuite runs the test suite
func TestScheduledOperationRepositorySuite(t *testing.T) {
	suite.Run(t, new(ScheduledOperationRepositorySuite))
}

func (s *ScheduledOperationRepositorySuite) createOperation(effectiveDate time.Time, recurrence string) *models.ScheduledFundOperation {
	op := &models.ScheduledFundOperation{
		TeacherID:     s.testTeacher.ID,
		StudentID:     s.testStudent.ID,
		AccountType:   models.AccountTypeChecking,
		Kind:          models.FundOperationKindAdd,
		Amount:        decimal.NewFromInt(10),
		Description:   "Weekly allowance",
		EffectiveDate: models.DateOnly(effectiveDate),
		Recurrence:    recurrence,
	}
	s.NoError(s.repo.Create(op))
	return op
}

// Test Create and GetByID functionality
func (s *ScheduledOperationRepositorySuite) TestCreateAndGetByID() {
	op := s.createOperation(time.Now().AddDate(0, 0, 7), models.RecurrenceOnce)

	found, err := s.repo.GetByID(op.ID)
	s.NoError(err)
	s.Equal(op.ID, found.ID)
	s.Equal(models.FundOperationStatusPending, found.Status)

	_, err = s.repo.GetByID(uuid.New())
	s.ErrorIs(err, ErrScheduledOperationNotFound)
}

// Test GetDue functionality
func (s *ScheduledOperationRepositorySuite) TestGetDue() {
	now := time.Now()
	overdue := s.createOperation(now.AddDate(0, 0, -3), models.RecurrenceOnce)
	dueToday := s.createOperation(now, models.RecurrenceOnce)
	s.createOperation(now.AddDate(0, 0, 5), models.RecurrenceOnce)

	due, err := s.repo.GetDue(now, 100)
	s.NoError(err)
	s.Len(due, 2)

	// Oldest first
	s.Equal(overdue.ID, due[0].ID)
	s.Equal(dueToday.ID, due[1].ID)
}

func (s *ScheduledOperationRepositorySuite) TestGetDue_SkipsNonPending() {
	now := time.Now()
	executed := s.createOperation(now.AddDate(0, 0, -1), models.RecurrenceOnce)
	executed.MarkExecuted()
	s.NoError(s.repo.Update(executed))

	cancelled := s.createOperation(now.AddDate(0, 0, -1), models.RecurrenceOnce)
	s.NoError(s.repo.Cancel(cancelled.ID))

	due, err := s.repo.GetDue(now, 100)
	s.NoError(err)
	s.Len(due, 0)
}

func (s *ScheduledOperationRepositorySuite) TestGetDue_RespectsLimit() {
	now := time.Now()
	for i := 0; i < 5; i++ {
		s.createOperation(now.AddDate(0, 0, -i), models.RecurrenceOnce)
	}

	due, err := s.repo.GetDue(now, 3)
	s.NoError(err)
	s.Len(due, 3)
}

// Test Cancel functionality
func (s *ScheduledOperationRepositorySuite) TestCancel() {
	op := s.createOperation(time.Now().AddDate(0, 0, 7), models.RecurrenceOnce)

	s.NoError(s.repo.Cancel(op.ID))

	found, err := s.repo.GetByID(op.ID)
	s.NoError(err)
	s.Equal(models.FundOperationStatusCancelled, found.Status)
}

func (s *ScheduledOperationRepositorySuite) TestCancel_NotPending() {
	op := s.createOperation(time.Now().AddDate(0, 0, 7), models.RecurrenceOnce)
	op.MarkExecuted()
	s.NoError(s.repo.Update(op))

	s.ErrorIs(s.repo.Cancel(op.ID), ErrOperationNotPending)
}

func (s *ScheduledOperationRepositorySuite) TestCancel_NotFound() {
	s.ErrorIs(s.repo.Cancel(uuid.New()), ErrScheduledOperationNotFound)
}

// Test GetByTeacherID pagination
func (s *ScheduledOperationRepositorySuite) TestGetByTeacherID() {
	for i := 0; i < 3; i++ {
		s.createOperation(time.Now().AddDate(0, 0, i), models.RecurrenceWeekly)
	}

	ops, total, err := s.repo.GetByTeacherID(s.testTeacher.ID, 0, 2)
	s.NoError(err)
	s.Equal(int64(3), total)
	s.Len(ops, 2)

	ops, total, err = s.repo.GetByTeacherID(s.testTeacher.ID, 2, 2)
	s.NoError(err)
	s.Equal(int64(3), total)
	s.Len(ops, 1)
}
