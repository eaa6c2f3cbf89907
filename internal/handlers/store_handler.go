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

// StoreHandler handles class store HTTP requests
type StoreHandler struct {
	storeService services.StoreServiceInterface
	auditLogger  services.AuditLoggerInterface
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(storeService services.StoreServiceInterface, auditLogger services.AuditLoggerInterface) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
		auditLogger:  auditLogger,
	}
}

// CreateItem creates a new store item
// @Summary Create store item
// @Description Teacher creates a store item and assigns it to their classes
// @Tags Store
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.StoreItemRequest true "Item details"
// @Success 201 {object} dto.StoreItemResponse "Item created"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "AUTH_004 - Requires teacher role"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /store/items [post]
func (h *StoreHandler) CreateItem(c echo.Context) error {
	teacherID, input, err := h.bindItemRequest(c)
	if err != nil {
		return err
	}

	item, err := h.storeService.CreateItem(c.Request().Context(), teacherID, *input)
	if err != nil {
		return h.mapStoreErr(c, err)
	}

	return c.JSON(http.StatusCreated, dto.StoreItemResponse{
		Item:    item,
		Message: "Item created successfully",
	})
}

// UpdateItem updates an existing store item
// @Summary Update store item
// @Description Teacher updates an item they own, replacing its class assignments
// @Tags Store
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param itemId path string true "Item ID (UUID)"
// @Param request body dto.StoreItemRequest true "Item details"
// @Success 200 {object} dto.StoreItemResponse "Item updated"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body or item ID"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "STORE_006 - Item belongs to another teacher"
// @Failure 404 {object} errors.ErrorResponse "STORE_001 - Item not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /store/items/{itemId} [put]
func (h *StoreHandler) UpdateItem(c echo.Context) error {
	teacherID, input, err := h.bindItemRequest(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid item ID"))
	}

	item, err := h.storeService.UpdateItem(c.Request().Context(), teacherID, itemID, *input)
	if err != nil {
		return h.mapStoreErr(c, err)
	}

	return c.JSON(http.StatusOK, dto.StoreItemResponse{
		Item:    item,
		Message: "Item updated successfully",
	})
}

// DeleteItem deletes a store item
// @Summary Delete store item
// @Description Teacher deletes an item they own. Purchase history is preserved.
// @Tags Store
// @Security BearerAuth
// @Produce json
// @Param itemId path string true "Item ID (UUID)"
// @Success 200 {object} dto.MessageResponse "Item deleted"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid item ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "STORE_006 - Item belongs to another teacher"
// @Failure 404 {object} errors.ErrorResponse "STORE_001 - Item not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /store/items/{itemId} [delete]
func (h *StoreHandler) DeleteItem(c echo.Context) error {
	teacherID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if !isTeacher(c) {
		return SendError(c, errors.AuthInsufficientPermission)
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid item ID"))
	}

	if err := h.storeService.DeleteItem(c.Request().Context(), teacherID, itemID); err != nil {
		return h.mapStoreErr(c, err)
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Item deleted successfully"})
}

// ListItems retrieves the store items visible to the requestor
// @Summary List store items
// @Description Teachers see the items they own; students see the items offered to their classes
// @Tags Store
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.StoreItemListResponse "List of items"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /store/items [get]
func (h *StoreHandler) ListItems(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if isTeacher(c) {
		teacherItems, err := h.storeService.ListTeacherItems(userID)
		if err != nil {
			return SendSystemError(c, err)
		}
		return c.JSON(http.StatusOK, dto.StoreItemListResponse{Items: teacherItems})
	}

	studentItems, err := h.storeService.ListStudentItems(userID)
	if err != nil {
		return SendSystemError(c, err)
	}
	return c.JSON(http.StatusOK, dto.StoreItemListResponse{Items: studentItems})
}

// GetItem retrieves one store item
// @Summary Get store item
// @Description Retrieve a single store item by ID
// @Tags Store
// @Security BearerAuth
// @Produce json
// @Param itemId path string true "Item ID (UUID)"
// @Success 200 {object} models.StoreItem "Item details"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid item ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "STORE_001 - Item not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /store/items/{itemId} [get]
func (h *StoreHandler) GetItem(c echo.Context) error {
	if _, err := getUserIDFromContext(c); err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid item ID"))
	}

	item, err := h.storeService.GetItem(itemID)
	if err != nil {
		return h.mapStoreErr(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// Purchase settles a student's purchase
// @Summary Purchase a store item
// @Description Student buys an item offered to one of their classes. Settlement debits the checking account, decrements inventory and folds the purchase into the student's accumulated record, all atomically.
// @Tags Store
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.PurchaseRequest true "Purchase details"
// @Success 200 {object} dto.PurchaseResponse "Purchase settled"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body, STORE_005 - Invalid quantity"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "STORE_004 - Item not offered to student's classes"
// @Failure 404 {object} errors.ErrorResponse "STORE_001 - Item not found"
// @Failure 422 {object} errors.ErrorResponse "STORE_002 - Item unavailable, STORE_003 - Out of stock, LEDGER_003 - Insufficient funds"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /store/purchase [post]
func (h *StoreHandler) Purchase(c echo.Context) error {
	studentID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid item ID"))
	}

	result, err := h.storeService.Purchase(c.Request().Context(), studentID, itemID, req.Quantity)
	if err != nil {
		return h.mapStoreErr(c, err)
	}

	h.auditLogger.LogPurchase(c.Request().Context(), studentID, itemID, result.TransactionID, req.Quantity, result.Purchase.TotalPrice.String())

	return c.JSON(http.StatusOK, dto.PurchaseResponse{
		Message:       "Purchase completed successfully",
		Purchase:      result.Purchase,
		TransactionID: result.TransactionID.String(),
		NewBalance:    result.NewBalance.String(),
	})
}

// ListStudentPurchases retrieves a student's accumulated purchases
// @Summary List student purchases
// @Description Students see their own purchases; teachers see purchases of students enrolled in their classes
// @Tags Store
// @Security BearerAuth
// @Produce json
// @Param studentId path string true "Student ID (UUID)"
// @Success 200 {object} dto.PurchaseListResponse "List of purchases"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid student ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "ENROLL_003 - Student not enrolled in requestor's classes"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /students/{studentId}/purchases [get]
func (h *StoreHandler) ListStudentPurchases(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	studentID, err := uuid.Parse(c.Param("studentId"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid student ID"))
	}

	purchases, err := h.storeService.ListStudentPurchases(userID, studentID)
	if err != nil {
		return h.mapStoreErr(c, err)
	}

	return c.JSON(http.StatusOK, dto.PurchaseListResponse{Purchases: purchases})
}

func (h *StoreHandler) bindItemRequest(c echo.Context) (uuid.UUID, *services.StoreItemInput, error) {
	teacherID, err := getUserIDFromContext(c)
	if err != nil {
		return uuid.Nil, nil, SendError(c, errors.AuthMissingToken)
	}

	if !isTeacher(c) {
		return uuid.Nil, nil, SendError(c, errors.AuthInsufficientPermission)
	}

	var req dto.StoreItemRequest
	if err := c.Bind(&req); err != nil {
		return uuid.Nil, nil, SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return uuid.Nil, nil, SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.LessThan(decimal.Zero) {
		return uuid.Nil, nil, SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid price"))
	}

	classIDs := make([]uuid.UUID, 0, len(req.ClassIDs))
	for _, idStr := range req.ClassIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return uuid.Nil, nil, SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid class ID: "+idStr))
		}
		classIDs = append(classIDs, id)
	}

	return teacherID, &services.StoreItemInput{
		Name:        req.Name,
		Emoji:       req.Emoji,
		Description: req.Description,
		Price:       price,
		Quantity:    req.Quantity,
		IsAvailable: req.IsAvailable,
		ClassIDs:    classIDs,
	}, nil
}

func (h *StoreHandler) mapStoreErr(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrItemNotFound):
		return SendError(c, errors.StoreItemNotFound)
	case stderrors.Is(err, services.ErrItemNotOwned):
		return SendError(c, errors.StoreNotItemOwner)
	case stderrors.Is(err, services.ErrItemNotAvailable):
		return SendError(c, errors.StoreItemUnavailable)
	case stderrors.Is(err, services.ErrItemOutOfStock):
		return SendError(c, errors.StoreItemOutOfStock)
	case stderrors.Is(err, services.ErrItemNotInClass):
		return SendError(c, errors.StoreItemNotInClass)
	case stderrors.Is(err, services.ErrInvalidQuantity):
		return SendError(c, errors.StoreInvalidQuantity)
	case stderrors.Is(err, services.ErrInsufficientFunds):
		return SendError(c, errors.LedgerInsufficientFunds)
	case stderrors.Is(err, services.ErrAccountNotFound):
		return SendError(c, errors.LedgerAccountNotFound)
	case stderrors.Is(err, services.ErrAccountNotActive):
		return SendError(c, errors.LedgerAccountInactive)
	case stderrors.Is(err, services.ErrNotTeachersStudent):
		return SendError(c, errors.EnrollNotTeachersStudent)
	default:
		return SendSystemError(c, err)
	}
}
