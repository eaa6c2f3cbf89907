package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"classbank/internal/database"
	"classbank/internal/models"
	"classbank/internal/repositories"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// StoreServiceSuite defines the test suite for StoreService
type StoreServiceSuite struct {
	suite.Suite
	db          *database.DB
	service     StoreServiceInterface
	accountRepo repositories.AccountRepositoryInterface
	testTeacher *models.User
	testStudent *models.User
	testClass   *models.Class
}

// SetupTest runs before each test in the suite
func (s *StoreServiceSuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.accountRepo = repositories.NewAccountRepository(s.db.DB)
	s.service = NewStoreService(
		repositories.NewStoreRepository(s.db.DB),
		s.accountRepo,
		repositories.NewClassRepository(s.db.DB),
		repositories.NewAuditLogRepository(s.db.DB),
		NewPrometheusMetricsWithRegisterer(prometheus.NewRegistry()),
		logger,
	)

	s.testTeacher = database.CreateTestTeacher(s.T(), s.db, "teacher@example.com")
	s.testStudent = database.CreateTestStudent(s.T(), s.db, "student@example.com")

	s.testClass = &models.Class{TeacherID: s.testTeacher.ID, Name: "Math 5"}
	s.NoError(s.db.Create(s.testClass).Error)
	s.NoError(s.db.Create(&models.Enrollment{
		ClassID:   s.testClass.ID,
		StudentID: s.testStudent.ID,
	}).Error)
}

// TearDownTest runs after each test in the suite
func (s *StoreServiceSuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

// TestStoreServiceSuite runs the test suite
func TestStoreServiceSuite(t *testing.T) {
	suite.Run(t, new(StoreServiceSuite))
}

func (s *StoreServiceSuite) itemInput(price int64, quantity int) StoreItemInput {
	return StoreItemInput{
		Name:        "Homework Pass",
		Emoji:       "🎟️",
		Description: "Skip one homework assignment",
		Price:       decimal.NewFromInt(price),
		Quantity:    quantity,
		IsAvailable: true,
		ClassIDs:    []uuid.UUID{s.testClass.ID},
	}
}

func (s *StoreServiceSuite) createItem(price int64, quantity int) *models.StoreItem {
	item, err := s.service.CreateItem(context.Background(), s.testTeacher.ID, s.itemInput(price, quantity))
	s.NoError(err)
	return item
}

func (s *StoreServiceSuite) fundCheckingAccount(balance int64) *models.Account {
	accounts, err := s.accountRepo.CreateAccountsForStudent(s.testStudent.ID)
	s.NoError(err)
	checking := accounts[0]
	if balance > 0 {
		_, err = s.accountRepo.ExecuteAtomicDeposit(checking.ID, decimal.NewFromInt(balance), "Opening deposit", checking.CreatedAt)
		s.NoError(err)
	}
	return &checking
}

// Test CreateItem functionality
func (s *StoreServiceSuite) TestCreateItem() {
	item := s.createItem(5, 10)
	s.NotEqual(uuid.Nil, item.ID)
	s.Equal(s.testTeacher.ID, item.TeacherID)

	// Visible to the enrolled student
	items, err := s.service.ListStudentItems(s.testStudent.ID)
	s.NoError(err)
	s.Len(items, 1)
	s.Equal(item.ID, items[0].ID)
}

func (s *StoreServiceSuite) TestCreateItem_RejectsForeignClass() {
	otherTeacher := database.CreateTestTeacher(s.T(), s.db, "other@example.com")

	_, err := s.service.CreateItem(context.Background(), otherTeacher.ID, s.itemInput(5, 10))
	s.Error(err)
}

// Test UpdateItem functionality
func (s *StoreServiceSuite) TestUpdateItem() {
	item := s.createItem(5, 10)

	input := s.itemInput(8, 3)
	input.Name = "Golden Homework Pass"
	updated, err := s.service.UpdateItem(context.Background(), s.testTeacher.ID, item.ID, input)
	s.NoError(err)
	s.Equal("Golden Homework Pass", updated.Name)
	s.Equal("8", updated.Price.String())
	s.Equal(3, updated.Quantity)
}

func (s *StoreServiceSuite) TestUpdateItem_NotOwned() {
	item := s.createItem(5, 10)
	otherTeacher := database.CreateTestTeacher(s.T(), s.db, "other@example.com")

	input := s.itemInput(5, 10)
	input.ClassIDs = nil
	_, err := s.service.UpdateItem(context.Background(), otherTeacher.ID, item.ID, input)
	s.ErrorIs(err, ErrItemNotOwned)
}

// Test DeleteItem functionality
func (s *StoreServiceSuite) TestDeleteItem() {
	item := s.createItem(5, 10)

	s.NoError(s.service.DeleteItem(context.Background(), s.testTeacher.ID, item.ID))

	_, err := s.service.GetItem(item.ID)
	s.ErrorIs(err, ErrItemNotFound)
}

func (s *StoreServiceSuite) TestDeleteItem_PreservesPurchaseHistory() {
	item := s.createItem(5, 10)
	s.fundCheckingAccount(50)

	_, err := s.service.Purchase(context.Background(), s.testStudent.ID, item.ID, 1)
	s.NoError(err)

	s.NoError(s.service.DeleteItem(context.Background(), s.testTeacher.ID, item.ID))

	purchases, err := s.service.ListStudentPurchases(s.testStudent.ID, s.testStudent.ID)
	s.NoError(err)
	s.Len(purchases, 1)
}

// Test Purchase functionality
func (s *StoreServiceSuite) TestPurchase() {
	item := s.createItem(5, 10)
	s.fundCheckingAccount(30)

	result, err := s.service.Purchase(context.Background(), s.testStudent.ID, item.ID, 2)
	s.NoError(err)
	s.Equal(2, result.Purchase.Quantity)
	s.Equal("10", result.Purchase.TotalPrice.String())
	s.Equal("20", result.NewBalance.String())
	s.NotEqual(uuid.Nil, result.TransactionID)
}

func (s *StoreServiceSuite) TestPurchase_ItemNotInStudentClass() {
	// Item exists but is not assigned to any of the student's classes
	input := s.itemInput(5, 10)
	input.ClassIDs = nil
	item, err := s.service.CreateItem(context.Background(), s.testTeacher.ID, input)
	s.NoError(err)
	s.fundCheckingAccount(30)

	_, err = s.service.Purchase(context.Background(), s.testStudent.ID, item.ID, 1)
	s.ErrorIs(err, ErrItemNotInClass)
}

func (s *StoreServiceSuite) TestPurchase_InsufficientFunds() {
	item := s.createItem(5, 10)
	s.fundCheckingAccount(3)

	_, err := s.service.Purchase(context.Background(), s.testStudent.ID, item.ID, 1)
	s.ErrorIs(err, ErrInsufficientFunds)
}

func (s *StoreServiceSuite) TestPurchase_OutOfStock() {
	item := s.createItem(5, 1)
	s.fundCheckingAccount(50)

	_, err := s.service.Purchase(context.Background(), s.testStudent.ID, item.ID, 2)
	s.ErrorIs(err, ErrItemOutOfStock)
}

func (s *StoreServiceSuite) TestPurchase_InvalidQuantity() {
	item := s.createItem(5, 10)
	s.fundCheckingAccount(50)

	_, err := s.service.Purchase(context.Background(), s.testStudent.ID, item.ID, 0)
	s.ErrorIs(err, ErrInvalidQuantity)
}

func (s *StoreServiceSuite) TestPurchase_NoCheckingAccount() {
	item := s.createItem(5, 10)

	_, err := s.service.Purchase(context.Background(), s.testStudent.ID, item.ID, 1)
	s.ErrorIs(err, ErrAccountNotFound)
}

// Test repeat purchases accumulate into one row
func (s *StoreServiceSuite) TestPurchase_Accumulates() {
	item := s.createItem(5, 10)
	s.fundCheckingAccount(100)

	first, err := s.service.Purchase(context.Background(), s.testStudent.ID, item.ID, 1)
	s.NoError(err)

	second, err := s.service.Purchase(context.Background(), s.testStudent.ID, item.ID, 2)
	s.NoError(err)

	s.Equal(first.Purchase.ID, second.Purchase.ID)
	s.Equal(3, second.Purchase.Quantity)
	s.Equal("15", second.Purchase.TotalPrice.String())

	purchases, err := s.service.ListStudentPurchases(s.testStudent.ID, s.testStudent.ID)
	s.NoError(err)
	s.Len(purchases, 1)
}

// Test ListStudentItems deduplication across classes
func (s *StoreServiceSuite) TestListStudentItems_Deduplicates() {
	secondClass := &models.Class{TeacherID: s.testTeacher.ID, Name: "History 5"}
	s.NoError(s.db.Create(secondClass).Error)
	s.NoError(s.db.Create(&models.Enrollment{
		ClassID:   secondClass.ID,
		StudentID: s.testStudent.ID,
	}).Error)

	input := s.itemInput(5, 10)
	input.ClassIDs = []uuid.UUID{s.testClass.ID, secondClass.ID}
	_, err := s.service.CreateItem(context.Background(), s.testTeacher.ID, input)
	s.NoError(err)

	items, err := s.service.ListStudentItems(s.testStudent.ID)
	s.NoError(err)
	s.Len(items, 1)
}

// Test ListStudentPurchases authorization
func (s *StoreServiceSuite) TestListStudentPurchases_Authorization() {
	// Teacher with the student enrolled may view
	_, err := s.service.ListStudentPurchases(s.testTeacher.ID, s.testStudent.ID)
	s.NoError(err)

	// A teacher without the student enrolled may not
	otherTeacher := database.CreateTestTeacher(s.T(), s.db, "other@example.com")
	_, err = s.service.ListStudentPurchases(otherTeacher.ID, s.testStudent.ID)
	s.ErrorIs(err, ErrNotTeachersStudent)
}
