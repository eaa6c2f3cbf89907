package dto

import (
	"classbank/internal/models"
	"classbank/internal/services"
)

// Funding Request DTOs

// ApplyFundingRequest represents a batch add/remove-funds instruction.
// EffectiveDate is optional (defaults to today) and accepts YYYY-MM-DD;
// Recurrence defaults to once.
type ApplyFundingRequest struct {
	StudentIDs    []string `json:"student_ids" validate:"required,min=1,dive,uuid"`
	AccountType   string   `json:"account_type" validate:"required,oneof=checking savings"`
	Kind          string   `json:"kind" validate:"required,oneof=add remove"`
	Amount        string   `json:"amount" validate:"required"`
	Description   string   `json:"description" validate:"required,min=1,max=255"`
	EffectiveDate string   `json:"effective_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Recurrence    string   `json:"recurrence,omitempty" validate:"omitempty,oneof=once weekly biweekly monthly"`
}

// Funding Response DTOs

// FundingBatchResponse reports per-student outcomes of a funding batch
type FundingBatchResponse struct {
	Success bool                            `json:"success"`
	Results []services.StudentFundingResult `json:"results"`
	Warning string                          `json:"warning,omitempty"`
}

// ScheduledOperationListResponse represents a paginated list of scheduled operations
type ScheduledOperationListResponse struct {
	Operations []models.ScheduledFundOperation `json:"operations"`
	Total      int64                           `json:"total"`
	Offset     int                             `json:"offset"`
	Limit      int                             `json:"limit"`
}

// FundingRunResponse reports one execution sweep triggered by the scheduler
type FundingRunResponse struct {
	Processed int    `json:"processed"`
	Executed  int    `json:"executed"`
	Failed    int    `json:"failed"`
	Message   string `json:"message"`
}
