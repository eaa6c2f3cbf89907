package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScheduledOp() ScheduledFundOperation {
	return ScheduledFundOperation{
		TeacherID:     uuid.New(),
		StudentID:     uuid.New(),
		AccountType:   AccountTypeChecking,
		Kind:          FundOperationKindAdd,
		Amount:        decimal.NewFromFloat(10.00),
		Description:   "Weekly allowance",
		EffectiveDate: time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC),
		Recurrence:    RecurrenceWeekly,
		Status:        FundOperationStatusPending,
	}
}

func TestScheduledFundOperation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScheduledFundOperation)
		wantErr bool
	}{
		{
			name:   "valid recurring add",
			mutate: func(o *ScheduledFundOperation) {},
		},
		{
			name:   "valid one-off remove",
			mutate: func(o *ScheduledFundOperation) { o.Kind = FundOperationKindRemove; o.Recurrence = RecurrenceOnce },
		},
		{
			name:    "missing teacher",
			mutate:  func(o *ScheduledFundOperation) { o.TeacherID = uuid.Nil },
			wantErr: true,
		},
		{
			name:    "missing student",
			mutate:  func(o *ScheduledFundOperation) { o.StudentID = uuid.Nil },
			wantErr: true,
		},
		{
			name:    "invalid account type",
			mutate:  func(o *ScheduledFundOperation) { o.AccountType = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid kind",
			mutate:  func(o *ScheduledFundOperation) { o.Kind = "multiply" },
			wantErr: true,
		},
		{
			name:    "invalid recurrence",
			mutate:  func(o *ScheduledFundOperation) { o.Recurrence = "daily" },
			wantErr: true,
		},
		{
			name:    "non-positive amount",
			mutate:  func(o *ScheduledFundOperation) { o.Amount = decimal.Zero },
			wantErr: true,
		},
		{
			name:    "missing effective date",
			mutate:  func(o *ScheduledFundOperation) { o.EffectiveDate = time.Time{} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := validScheduledOp()
			tt.mutate(&op)
			err := op.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduledFundOperation_IsDue(t *testing.T) {
	op := validScheduledOp()
	op.EffectiveDate = time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC)

	// due on the effective date regardless of time of day
	assert.True(t, op.IsDue(time.Date(2026, time.June, 5, 0, 30, 0, 0, time.UTC)))
	assert.True(t, op.IsDue(time.Date(2026, time.June, 6, 0, 0, 0, 0, time.UTC)))
	assert.False(t, op.IsDue(time.Date(2026, time.June, 4, 23, 59, 0, 0, time.UTC)))

	op.Status = FundOperationStatusExecuted
	assert.False(t, op.IsDue(time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)))
}

func TestScheduledFundOperation_NextEffectiveDate(t *testing.T) {
	base := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		recurrence string
		want       time.Time
	}{
		{RecurrenceWeekly, time.Date(2026, time.February, 7, 0, 0, 0, 0, time.UTC)},
		{RecurrenceBiweekly, time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC)},
		// Jan 31 + 1 month normalizes past the end of February
		{RecurrenceMonthly, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)},
		{RecurrenceOnce, base},
	}

	for _, tt := range tests {
		t.Run(tt.recurrence, func(t *testing.T) {
			op := validScheduledOp()
			op.EffectiveDate = base
			op.Recurrence = tt.recurrence
			assert.Equal(t, tt.want, op.NextEffectiveDate())
		})
	}
}

func TestScheduledFundOperation_NextOccurrence(t *testing.T) {
	op := validScheduledOp()
	op.ID = uuid.New()
	op.Status = FundOperationStatusExecuted

	next := op.NextOccurrence()
	require.NotNil(t, next)
	assert.Equal(t, uuid.Nil, next.ID, "next occurrence gets its own ID on create")
	assert.Equal(t, op.StudentID, next.StudentID)
	assert.Equal(t, op.Kind, next.Kind)
	assert.True(t, next.Amount.Equal(op.Amount))
	assert.Equal(t, FundOperationStatusPending, next.Status)
	assert.Equal(t, op.EffectiveDate.AddDate(0, 0, 7), next.EffectiveDate)
}

func TestScheduledFundOperation_MarkExecutedAndFailed(t *testing.T) {
	op := validScheduledOp()
	op.MarkExecuted()
	assert.Equal(t, FundOperationStatusExecuted, op.Status)
	require.NotNil(t, op.ExecutedAt)

	failed := validScheduledOp()
	failed.MarkFailed("insufficient funds")
	assert.Equal(t, FundOperationStatusFailed, failed.Status)
	assert.Equal(t, "insufficient funds", failed.FailureReason)
	require.NotNil(t, failed.ExecutedAt)
}
