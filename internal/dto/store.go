package dto

import (
	"classbank/internal/models"
)

// Store Request DTOs

// StoreItemRequest carries the fields for creating or updating a store item
type StoreItemRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Emoji       string   `json:"emoji,omitempty" validate:"omitempty,max=10"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Price       string   `json:"price" validate:"required"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	IsAvailable bool     `json:"is_available"`
	ClassIDs    []string `json:"class_ids" validate:"dive,uuid"`
}

// PurchaseRequest represents a student buying an item
type PurchaseRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// Store Response DTOs

// StoreItemResponse wraps a single store item
type StoreItemResponse struct {
	Item    *models.StoreItem `json:"item"`
	Message string            `json:"message,omitempty"`
}

// StoreItemListResponse lists store items
type StoreItemListResponse struct {
	Items []models.StoreItem `json:"items"`
}

// PurchaseResponse reports a settled purchase
type PurchaseResponse struct {
	Message       string                  `json:"message"`
	Purchase      *models.StudentPurchase `json:"purchase"`
	TransactionID string                  `json:"transaction_id"`
	NewBalance    string                  `json:"new_balance"`
}

// PurchaseListResponse lists a student's accumulated purchases
type PurchaseListResponse struct {
	Purchases []models.StudentPurchase `json:"purchases"`
}
