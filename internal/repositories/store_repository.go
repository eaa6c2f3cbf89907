package repositories

import (
	"errors"
	"fmt"

	"classbank/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound     = errors.New("store item not found")
	ErrItemNotAvailable = errors.New("store item is not available")
	ErrItemOutOfStock   = errors.New("store item has insufficient stock")
)

// storeRepository implements StoreRepositoryInterface
type storeRepository struct {
	db *gorm.DB
}

// NewStoreRepository creates a new store repository
func NewStoreRepository(db *gorm.DB) StoreRepositoryInterface {
	return &storeRepository{
		db: db,
	}
}

// CreateItem creates a new store item
func (r *storeRepository) CreateItem(item *models.StoreItem) error {
	if err := r.db.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create store item: %w", err)
	}
	return nil
}

// GetItemByID retrieves a store item by ID
func (r *storeRepository) GetItemByID(id uuid.UUID) (*models.StoreItem, error) {
	item := &models.StoreItem{ID: id}
	if err := r.db.First(item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get store item: %w", err)
	}
	return item, nil
}

// GetItemsByTeacherID retrieves all items owned by a teacher
func (r *storeRepository) GetItemsByTeacherID(teacherID uuid.UUID) ([]models.StoreItem, error) {
	var items []models.StoreItem
	if err := r.db.Where("teacher_id = ?", teacherID).
		Order("name ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get store items for teacher: %w", err)
	}
	return items, nil
}

// GetItemsForClass retrieves the items assigned to a class
func (r *storeRepository) GetItemsForClass(classID uuid.UUID) ([]models.StoreItem, error) {
	var items []models.StoreItem
	if err := r.db.
		Joins("JOIN store_item_classes ON store_item_classes.store_item_id = store_items.id").
		Where("store_item_classes.class_id = ?", classID).
		Order("store_items.name ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get store items for class: %w", err)
	}
	return items, nil
}

// UpdateItem updates a store item
func (r *storeRepository) UpdateItem(item *models.StoreItem) error {
	if err := r.db.Save(item).Error; err != nil {
		return fmt.Errorf("failed to update store item: %w", err)
	}
	return nil
}

// DeleteItem soft deletes a store item. Purchase history survives deletion.
func (r *storeRepository) DeleteItem(id uuid.UUID) error {
	result := r.db.Delete(&models.StoreItem{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete store item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// AssignItemToClasses replaces the item's class assignments
func (r *storeRepository) AssignItemToClasses(itemID uuid.UUID, classIDs []uuid.UUID) error {
	item := &models.StoreItem{ID: itemID}

	classes := make([]models.Class, len(classIDs))
	for i, classID := range classIDs {
		classes[i] = models.Class{ID: classID}
	}

	if err := r.db.Model(item).Association("Classes").Replace(classes); err != nil {
		return fmt.Errorf("failed to assign item to classes: %w", err)
	}
	return nil
}

// GetPurchasesByStudentID retrieves a student's accumulated purchases
func (r *storeRepository) GetPurchasesByStudentID(studentID uuid.UUID) ([]models.StudentPurchase, error) {
	var purchases []models.StudentPurchase
	if err := r.db.Preload("Item").
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to get purchases for student: %w", err)
	}
	return purchases, nil
}

// GetPurchasesByItemID retrieves all purchases of an item
func (r *storeRepository) GetPurchasesByItemID(itemID uuid.UUID) ([]models.StudentPurchase, error) {
	var purchases []models.StudentPurchase
	if err := r.db.Preload("Student").
		Where("item_id = ?", itemID).
		Order("updated_at DESC").
		Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to get purchases for item: %w", err)
	}
	return purchases, nil
}

// ExecuteAtomicPurchase settles a purchase in one database transaction: lock
// the item and the account, verify stock and funds, debit the account, record
// the withdrawal transaction, decrement inventory, and fold the purchase into
// the student's accumulated row. Any failure rolls the whole settlement back.
func (r *storeRepository) ExecuteAtomicPurchase(studentID, itemID, accountID uuid.UUID, quantity int) (*models.StudentPurchase, uuid.UUID, error) {
	var purchase *models.StudentPurchase
	var txID uuid.UUID

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Lock the item row so concurrent purchases serialize on stock
		item := &models.StoreItem{ID: itemID}
		if err := lockForUpdate(tx).First(item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to lock store item: %w", err)
		}

		if !item.IsAvailable {
			return ErrItemNotAvailable
		}
		if !item.CanPurchase(quantity) {
			return ErrItemOutOfStock
		}

		cost := item.TotalCost(quantity)

		// Lock the account and debit it
		account := &models.Account{ID: accountID}
		if err := lockForUpdate(tx).First(account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("failed to lock account: %w", err)
		}

		if !account.IsActive() {
			return ErrAccountNotActive
		}
		if account.Balance.LessThan(cost) {
			return ErrInsufficientFunds
		}

		balanceBefore := account.Balance
		newBalance := balanceBefore.Sub(cost)
		if err := tx.Model(account).Update("balance", newBalance).Error; err != nil {
			return fmt.Errorf("failed to debit account: %w", err)
		}

		record := &models.Transaction{
			AccountID:       accountID,
			TransactionType: models.TransactionTypeWithdrawal,
			Amount:          cost,
			BalanceBefore:   balanceBefore,
			BalanceAfter:    newBalance,
			Description:     fmt.Sprintf("Store purchase: %s x%d", item.Name, quantity),
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create purchase transaction: %w", err)
		}
		txID = record.ID

		// Decrement inventory
		if err := tx.Model(item).Update("quantity", item.Quantity-quantity).Error; err != nil {
			return fmt.Errorf("failed to decrement item stock: %w", err)
		}

		// Fold into the student's accumulated purchase row, or create it
		var existing models.StudentPurchase
		err := tx.Where("student_id = ? AND item_id = ?", studentID, itemID).
			First(&existing).Error
		switch {
		case err == nil:
			existing.Accumulate(quantity, cost)
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update purchase record: %w", err)
			}
			purchase = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := models.StudentPurchase{
				StudentID:  studentID,
				ItemID:     itemID,
				Quantity:   quantity,
				TotalPrice: cost,
				Status:     models.PurchaseStatusActive,
			}
			if err := tx.Create(&created).Error; err != nil {
				return fmt.Errorf("failed to create purchase record: %w", err)
			}
			purchase = &created
		default:
			return fmt.Errorf("failed to look up purchase record: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}

	return purchase, txID, nil
}
