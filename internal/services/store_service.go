package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"classbank/internal/models"
	"classbank/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound     = errors.New("store item not found")
	ErrItemNotOwned     = errors.New("store item belongs to another teacher")
	ErrItemNotAvailable = errors.New("store item is not available")
	ErrItemOutOfStock   = errors.New("store item has insufficient stock")
	ErrItemNotInClass   = errors.New("store item is not offered to the student's classes")
	ErrInvalidQuantity  = errors.New("purchase quantity must be positive")
)

// storeService implements StoreServiceInterface
type storeService struct {
	storeRepo   repositories.StoreRepositoryInterface
	accountRepo repositories.AccountRepositoryInterface
	classRepo   repositories.ClassRepositoryInterface
	auditRepo   repositories.AuditLogRepositoryInterface
	metrics     MetricsRecorderInterface
	logger      *slog.Logger
}

// NewStoreService creates a store service
func NewStoreService(
	storeRepo repositories.StoreRepositoryInterface,
	accountRepo repositories.AccountRepositoryInterface,
	classRepo repositories.ClassRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) StoreServiceInterface {
	return &storeService{
		storeRepo:   storeRepo,
		accountRepo: accountRepo,
		classRepo:   classRepo,
		auditRepo:   auditRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateItem creates a store item and assigns it to the teacher's classes
func (s *storeService) CreateItem(ctx context.Context, teacherID uuid.UUID, input StoreItemInput) (*models.StoreItem, error) {
	if err := s.verifyClassOwnership(teacherID, input.ClassIDs); err != nil {
		return nil, err
	}

	item := &models.StoreItem{
		TeacherID:   teacherID,
		Name:        input.Name,
		Emoji:       input.Emoji,
		Description: input.Description,
		Price:       input.Price,
		Quantity:    input.Quantity,
		IsAvailable: input.IsAvailable,
	}

	if err := s.storeRepo.CreateItem(item); err != nil {
		return nil, fmt.Errorf("failed to create store item: %w", err)
	}

	if len(input.ClassIDs) > 0 {
		if err := s.storeRepo.AssignItemToClasses(item.ID, input.ClassIDs); err != nil {
			return nil, fmt.Errorf("failed to assign item to classes: %w", err)
		}
	}

	s.recordStoreAudit(teacherID, models.AuditActionItemCreated, item)
	s.logger.Info("store item created",
		"item_id", item.ID,
		"teacher_id", teacherID,
		"name", item.Name)

	return item, nil
}

// UpdateItem updates an item owned by the teacher, replacing its class
// assignments with the provided list.
func (s *storeService) UpdateItem(ctx context.Context, teacherID, itemID uuid.UUID, input StoreItemInput) (*models.StoreItem, error) {
	item, err := s.getOwnedItem(teacherID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.verifyClassOwnership(teacherID, input.ClassIDs); err != nil {
		return nil, err
	}

	item.Name = input.Name
	item.Emoji = input.Emoji
	item.Description = input.Description
	item.Price = input.Price
	item.Quantity = input.Quantity
	item.IsAvailable = input.IsAvailable

	if err := s.storeRepo.UpdateItem(item); err != nil {
		return nil, fmt.Errorf("failed to update store item: %w", err)
	}

	if err := s.storeRepo.AssignItemToClasses(item.ID, input.ClassIDs); err != nil {
		return nil, fmt.Errorf("failed to assign item to classes: %w", err)
	}

	s.recordStoreAudit(teacherID, models.AuditActionItemUpdated, item)

	return item, nil
}

// DeleteItem soft deletes an item owned by the teacher. Existing purchase
// records keep pointing at the deleted row.
func (s *storeService) DeleteItem(ctx context.Context, teacherID, itemID uuid.UUID) error {
	item, err := s.getOwnedItem(teacherID, itemID)
	if err != nil {
		return err
	}

	if err := s.storeRepo.DeleteItem(itemID); err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to delete store item: %w", err)
	}

	s.recordStoreAudit(teacherID, models.AuditActionItemDeleted, item)
	s.logger.Info("store item deleted", "item_id", itemID, "teacher_id", teacherID)

	return nil
}

// GetItem returns a store item by ID
func (s *storeService) GetItem(itemID uuid.UUID) (*models.StoreItem, error) {
	item, err := s.storeRepo.GetItemByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get store item: %w", err)
	}
	return item, nil
}

// ListTeacherItems returns all items owned by a teacher
func (s *storeService) ListTeacherItems(teacherID uuid.UUID) ([]models.StoreItem, error) {
	items, err := s.storeRepo.GetItemsByTeacherID(teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teacher items: %w", err)
	}
	return items, nil
}

// ListStudentItems returns the items offered to any of the student's classes,
// deduplicated across classes.
func (s *storeService) ListStudentItems(studentID uuid.UUID) ([]models.StoreItem, error) {
	classes, err := s.classRepo.GetClassesForStudent(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student classes: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	items := make([]models.StoreItem, 0)
	for _, class := range classes {
		classItems, err := s.storeRepo.GetItemsForClass(class.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get items for class: %w", err)
		}
		for _, item := range classItems {
			if !seen[item.ID] {
				seen[item.ID] = true
				items = append(items, item)
			}
		}
	}

	return items, nil
}

// Purchase settles a student's purchase against their checking account. The
// item must be offered to one of the student's classes; stock and funds are
// checked atomically inside the settlement transaction.
func (s *storeService) Purchase(ctx context.Context, studentID, itemID uuid.UUID, quantity int) (*PurchaseResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	inClass, err := s.itemOfferedToStudent(itemID, studentID)
	if err != nil {
		return nil, err
	}
	if !inClass {
		s.logger.Warn("purchase attempt for item outside student classes",
			"student_id", studentID,
			"item_id", itemID)
		return nil, ErrItemNotInClass
	}

	account, err := s.accountRepo.GetByStudentIDAndType(studentID, models.AccountTypeChecking)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get checking account: %w", err)
	}

	purchase, txID, err := s.storeRepo.ExecuteAtomicPurchase(studentID, itemID, account.ID, quantity)
	if err != nil {
		return nil, s.mapPurchaseError(err)
	}

	updated, err := s.accountRepo.GetByID(account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload account: %w", err)
	}

	s.metrics.IncrementCounter("store_purchases_total", nil)
	s.recordPurchaseAudit(studentID, item, txID, quantity)
	s.logger.Info("purchase settled",
		"student_id", studentID,
		"item_id", itemID,
		"quantity", quantity,
		"transaction_id", txID)

	return &PurchaseResult{
		Purchase:      purchase,
		TransactionID: txID,
		NewBalance:    updated.Balance,
	}, nil
}

// ListStudentPurchases returns a student's accumulated purchases. Students see
// their own; teachers see purchases of students enrolled in their classes.
func (s *storeService) ListStudentPurchases(requestorID, studentID uuid.UUID) ([]models.StudentPurchase, error) {
	if requestorID != studentID {
		has, err := s.classRepo.TeacherHasStudent(requestorID, studentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !has {
			return nil, ErrNotTeachersStudent
		}
	}

	purchases, err := s.storeRepo.GetPurchasesByStudentID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// itemOfferedToStudent checks whether the item is assigned to any class the
// student is actively enrolled in.
func (s *storeService) itemOfferedToStudent(itemID, studentID uuid.UUID) (bool, error) {
	classes, err := s.classRepo.GetClassesForStudent(studentID)
	if err != nil {
		return false, fmt.Errorf("failed to get student classes: %w", err)
	}

	for _, class := range classes {
		items, err := s.storeRepo.GetItemsForClass(class.ID)
		if err != nil {
			return false, fmt.Errorf("failed to get items for class: %w", err)
		}
		for _, item := range items {
			if item.ID == itemID {
				return true, nil
			}
		}
	}

	return false, nil
}

func (s *storeService) getOwnedItem(teacherID, itemID uuid.UUID) (*models.StoreItem, error) {
	item, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if item.TeacherID != teacherID {
		return nil, ErrItemNotOwned
	}
	return item, nil
}

func (s *storeService) verifyClassOwnership(teacherID uuid.UUID, classIDs []uuid.UUID) error {
	for _, classID := range classIDs {
		class, err := s.classRepo.GetByID(classID)
		if err != nil {
			if errors.Is(err, repositories.ErrClassNotFound) {
				return fmt.Errorf("class %s not found", classID)
			}
			return fmt.Errorf("failed to get class: %w", err)
		}
		if class.TeacherID != teacherID {
			return fmt.Errorf("class %s belongs to another teacher", classID)
		}
	}
	return nil
}

func (s *storeService) mapPurchaseError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrItemNotFound):
		return ErrItemNotFound
	case errors.Is(err, repositories.ErrItemNotAvailable):
		return ErrItemNotAvailable
	case errors.Is(err, repositories.ErrItemOutOfStock):
		return ErrItemOutOfStock
	case errors.Is(err, repositories.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repositories.ErrAccountNotActive):
		return ErrAccountNotActive
	case errors.Is(err, repositories.ErrInsufficientFunds):
		return ErrInsufficientFunds
	default:
		return err
	}
}

func (s *storeService) recordStoreAudit(teacherID uuid.UUID, action string, item *models.StoreItem) {
	if err := s.auditRepo.Create(&models.AuditLog{
		UserID:     &teacherID,
		Action:     action,
		Resource:   "store_item",
		ResourceID: item.ID.String(),
		IPAddress:  "system",
		UserAgent:  "internal",
		Metadata: models.JSONBMap{
			"name":     item.Name,
			"price":    item.Price.String(),
			"quantity": item.Quantity,
		},
	}); err != nil {
		s.logger.Error("failed to create audit log", "error", err, "action", action)
	}
}

func (s *storeService) recordPurchaseAudit(studentID uuid.UUID, item *models.StoreItem, txID uuid.UUID, quantity int) {
	if err := s.auditRepo.Create(&models.AuditLog{
		UserID:     &studentID,
		Action:     models.AuditActionPurchase,
		Resource:   "store_item",
		ResourceID: item.ID.String(),
		IPAddress:  "system",
		UserAgent:  "internal",
		Metadata: models.JSONBMap{
			"item_name":      item.Name,
			"quantity":       quantity,
			"total":          item.TotalCost(quantity).String(),
			"transaction_id": txID.String(),
		},
	}); err != nil {
		s.logger.Error("failed to create audit log", "error", err, "action", models.AuditActionPurchase)
	}
}
