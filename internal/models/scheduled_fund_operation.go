package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	FundOperationKindAdd    = "add"
	FundOperationKindRemove = "remove"

	RecurrenceOnce     = "once"
	RecurrenceWeekly   = "weekly"
	RecurrenceBiweekly = "biweekly"
	RecurrenceMonthly  = "monthly"

	FundOperationStatusPending   = "pending"
	FundOperationStatusExecuted  = "executed"
	FundOperationStatusFailed    = "failed"
	FundOperationStatusCancelled = "cancelled"
)

var (
	ErrInvalidFundOperationKind = errors.New("invalid fund operation kind")
	ErrInvalidRecurrence        = errors.New("invalid recurrence")
)

// ScheduledFundOperation is a future-dated add/remove-funds instruction,
// optionally recurring. It lives in its own table, decoupled from any
// user-visible calendar; a periodic trigger executes due rows and rolls
// recurring chains forward one occurrence at a time.
type ScheduledFundOperation struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TeacherID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"teacher_id"`
	StudentID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"student_id"`
	AccountType   string          `gorm:"type:varchar(20);not null" json:"account_type"`
	Kind          string          `gorm:"type:varchar(10);not null" json:"kind"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	EffectiveDate time.Time       `gorm:"not null;index:idx_scheduled_ops_due,priority:2" json:"effective_date"`
	Recurrence    string          `gorm:"type:varchar(20);not null;default:'once'" json:"recurrence"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index:idx_scheduled_ops_due,priority:1" json:"status"`
	ExecutedAt    *time.Time      `json:"executed_at,omitempty"`
	FailureReason string          `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`

	// Associations
	Teacher User `gorm:"foreignKey:TeacherID" json:"-"`
	Student User `gorm:"foreignKey:StudentID" json:"-"`
}

// BeforeCreate hook for ScheduledFundOperation
func (o *ScheduledFundOperation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	if o.Status == "" {
		o.Status = FundOperationStatusPending
	}
	if o.Recurrence == "" {
		o.Recurrence = RecurrenceOnce
	}

	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = now
	}

	return o.Validate()
}

// Validate validates the scheduled operation fields
func (o *ScheduledFundOperation) Validate() error {
	if o.TeacherID == uuid.Nil {
		return errors.New("teacher ID is required")
	}

	if o.StudentID == uuid.Nil {
		return errors.New("student ID is required")
	}

	if !IsValidAccountType(o.AccountType) {
		return ErrInvalidAccountType
	}

	if o.Kind != FundOperationKindAdd && o.Kind != FundOperationKindRemove {
		return ErrInvalidFundOperationKind
	}

	if !IsValidRecurrence(o.Recurrence) {
		return ErrInvalidRecurrence
	}

	if o.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("operation amount must be positive")
	}

	if o.EffectiveDate.IsZero() {
		return errors.New("effective date is required")
	}

	return nil
}

// IsPending returns true if the operation has not yet run
func (o *ScheduledFundOperation) IsPending() bool {
	return o.Status == FundOperationStatusPending
}

// IsRecurring returns true if the operation repeats
func (o *ScheduledFundOperation) IsRecurring() bool {
	return o.Recurrence != RecurrenceOnce
}

// IsDue reports whether the operation should execute at the given time,
// comparing dates only.
func (o *ScheduledFundOperation) IsDue(now time.Time) bool {
	return o.IsPending() && !DateOnly(o.EffectiveDate).After(DateOnly(now))
}

// NextEffectiveDate returns the effective date of the following occurrence.
// Monthly recurrence anchors on the day of month of the current date
// (AddDate normalization handles short months).
func (o *ScheduledFundOperation) NextEffectiveDate() time.Time {
	switch o.Recurrence {
	case RecurrenceWeekly:
		return o.EffectiveDate.AddDate(0, 0, 7)
	case RecurrenceBiweekly:
		return o.EffectiveDate.AddDate(0, 0, 14)
	case RecurrenceMonthly:
		return o.EffectiveDate.AddDate(0, 1, 0)
	default:
		return o.EffectiveDate
	}
}

// NextOccurrence builds the pending row for the following occurrence of a
// recurring operation.
func (o *ScheduledFundOperation) NextOccurrence() *ScheduledFundOperation {
	return &ScheduledFundOperation{
		TeacherID:     o.TeacherID,
		StudentID:     o.StudentID,
		AccountType:   o.AccountType,
		Kind:          o.Kind,
		Amount:        o.Amount,
		Description:   o.Description,
		EffectiveDate: o.NextEffectiveDate(),
		Recurrence:    o.Recurrence,
		Status:        FundOperationStatusPending,
	}
}

// MarkExecuted records a successful run
func (o *ScheduledFundOperation) MarkExecuted() {
	o.Status = FundOperationStatusExecuted
	now := time.Now()
	o.ExecutedAt = &now
}

// MarkFailed records a failed run with its reason
func (o *ScheduledFundOperation) MarkFailed(reason string) {
	o.Status = FundOperationStatusFailed
	now := time.Now()
	o.ExecutedAt = &now
	o.FailureReason = reason
}

// TableName returns the table name for ScheduledFundOperation
func (o *ScheduledFundOperation) TableName() string {
	return "scheduled_fund_operations"
}

// Helper functions

// IsValidRecurrence checks if the recurrence descriptor is valid
func IsValidRecurrence(recurrence string) bool {
	switch recurrence {
	case RecurrenceOnce, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

// DateOnly strips the time-of-day component, keeping the location
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
