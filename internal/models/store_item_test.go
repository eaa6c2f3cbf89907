package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStoreItem_Validate(t *testing.T) {
	teacherID := uuid.New()

	tests := []struct {
		name    string
		item    StoreItem
		wantErr bool
	}{
		{
			name: "valid item",
			item: StoreItem{
				TeacherID:   teacherID,
				Name:        "Homework Pass",
				Emoji:       "📝",
				Price:       decimal.NewFromFloat(5.00),
				Quantity:    10,
				IsAvailable: true,
			},
		},
		{
			name: "free item is allowed",
			item: StoreItem{
				TeacherID: teacherID,
				Name:      "Sticker",
				Price:     decimal.Zero,
				Quantity:  100,
			},
		},
		{
			name:    "missing teacher",
			item:    StoreItem{Name: "Pencil", Price: decimal.NewFromFloat(1.00)},
			wantErr: true,
		},
		{
			name:    "missing name",
			item:    StoreItem{TeacherID: teacherID, Price: decimal.NewFromFloat(1.00)},
			wantErr: true,
		},
		{
			name:    "negative price",
			item:    StoreItem{TeacherID: teacherID, Name: "Pencil", Price: decimal.NewFromFloat(-1.00)},
			wantErr: true,
		},
		{
			name:    "negative quantity",
			item:    StoreItem{TeacherID: teacherID, Name: "Pencil", Price: decimal.NewFromFloat(1.00), Quantity: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoreItem_CanPurchase(t *testing.T) {
	item := StoreItem{Quantity: 5, IsAvailable: true}

	assert.True(t, item.CanPurchase(1))
	assert.True(t, item.CanPurchase(5))
	assert.False(t, item.CanPurchase(6))
	assert.False(t, item.CanPurchase(0))
	assert.False(t, item.CanPurchase(-1))

	item.IsAvailable = false
	assert.False(t, item.CanPurchase(1))

	soldOut := StoreItem{Quantity: 0, IsAvailable: true}
	assert.False(t, soldOut.CanPurchase(1))
}

func TestStoreItem_TotalCost(t *testing.T) {
	item := StoreItem{Price: decimal.NewFromFloat(2.50)}
	assert.True(t, item.TotalCost(3).Equal(decimal.NewFromFloat(7.50)))
	assert.True(t, item.TotalCost(1).Equal(decimal.NewFromFloat(2.50)))
}

func TestStudentPurchase_Accumulate(t *testing.T) {
	purchase := StudentPurchase{
		StudentID:  uuid.New(),
		ItemID:     uuid.New(),
		Quantity:   2,
		TotalPrice: decimal.NewFromFloat(10.00),
		Status:     PurchaseStatusRedeemed,
	}

	purchase.Accumulate(3, decimal.NewFromFloat(15.00))

	assert.Equal(t, 5, purchase.Quantity)
	assert.True(t, purchase.TotalPrice.Equal(decimal.NewFromFloat(25.00)))
	assert.Equal(t, PurchaseStatusActive, purchase.Status)
}
