package dto

import (
	"classbank/internal/models"
)

// Statement Response DTOs

// StatementListResponse lists the cached statement records for a student
type StatementListResponse struct {
	Statements []models.BankStatement `json:"statements"`
}

// StatementRunResponse reports one generation sweep triggered by the scheduler
type StatementRunResponse struct {
	Accounts  int    `json:"accounts"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Message   string `json:"message"`
}
