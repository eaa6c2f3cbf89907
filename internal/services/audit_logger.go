package services

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

type contextKey string

// CorrelationIDKey is the context key carrying the per-request correlation ID
const CorrelationIDKey contextKey = "correlation_id"

// auditLogger emits structured audit events to the application log stream.
// Durable audit rows live in the audit_logs table; this logger is the
// real-time operational trail.
type auditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates an audit logger writing JSON to stdout
func NewAuditLogger() AuditLoggerInterface {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &auditLogger{
		logger: slog.New(handler).With("component", "audit"),
	}
}

// NewAuditLoggerWithLogger creates an audit logger on an existing logger,
// mainly for tests.
func NewAuditLoggerWithLogger(logger *slog.Logger) AuditLoggerInterface {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

func (a *auditLogger) LogLedgerMutation(ctx context.Context, action string, accountID, transactionID uuid.UUID, amount string) {
	a.logger.InfoContext(ctx, "ledger mutation",
		"event", action,
		"account_id", accountID,
		"transaction_id", transactionID,
		"amount", amount,
		"correlation_id", getCorrelationID(ctx))
}

func (a *auditLogger) LogFundingApplied(ctx context.Context, teacherID, studentID uuid.UUID, kind string, amount string, scheduled bool) {
	a.logger.InfoContext(ctx, "funding applied",
		"event", "funding_applied",
		"teacher_id", teacherID,
		"student_id", studentID,
		"kind", kind,
		"amount", amount,
		"scheduled", scheduled,
		"correlation_id", getCorrelationID(ctx))
}

func (a *auditLogger) LogFundingExecution(ctx context.Context, operationID uuid.UUID, status string, reason string) {
	a.logger.InfoContext(ctx, "funding execution",
		"event", "funding_execution",
		"operation_id", operationID,
		"status", status,
		"reason", reason,
		"correlation_id", getCorrelationID(ctx))
}

func (a *auditLogger) LogPurchase(ctx context.Context, studentID, itemID, transactionID uuid.UUID, quantity int, total string) {
	a.logger.InfoContext(ctx, "store purchase",
		"event", "purchase_settled",
		"student_id", studentID,
		"item_id", itemID,
		"transaction_id", transactionID,
		"quantity", quantity,
		"total", total,
		"correlation_id", getCorrelationID(ctx))
}

func (a *auditLogger) LogStatementGenerated(ctx context.Context, accountID uuid.UUID, month, year int, fromCache bool) {
	a.logger.InfoContext(ctx, "statement served",
		"event", "statement_served",
		"account_id", accountID,
		"month", month,
		"year", year,
		"from_cache", fromCache,
		"correlation_id", getCorrelationID(ctx))
}

func (a *auditLogger) LogAuthorizationDenied(ctx context.Context, requestorID uuid.UUID, resource, reason string) {
	a.logger.WarnContext(ctx, "authorization denied",
		"event", "authorization_denied",
		"requestor_id", requestorID,
		"resource", resource,
		"reason", reason,
		"correlation_id", getCorrelationID(ctx))
}

func getCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return "unknown"
}
