package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthMissingToken           ErrorCode = "AUTH_001"
	AuthExpiredToken           ErrorCode = "AUTH_002"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_003"
	AuthInsufficientPermission ErrorCode = "AUTH_004"
	AuthUnknownPrincipal       ErrorCode = "AUTH_005"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
	ValidationInvalidDate   ErrorCode = "VALIDATION_005"
)

// Ledger error codes (LEDGER_*)
const (
	LedgerAccountNotFound    ErrorCode = "LEDGER_001"
	LedgerAccountInactive    ErrorCode = "LEDGER_002"
	LedgerInsufficientFunds  ErrorCode = "LEDGER_003"
	LedgerInvalidAmount      ErrorCode = "LEDGER_004"
	LedgerSameAccount        ErrorCode = "LEDGER_005"
	LedgerTransactionNotFound ErrorCode = "LEDGER_006"
)

// Enrollment error codes (ENROLL_*)
const (
	EnrollStudentNotFound   ErrorCode = "ENROLL_001"
	EnrollClassNotFound     ErrorCode = "ENROLL_002"
	EnrollNotTeachersStudent ErrorCode = "ENROLL_003"
	EnrollAlreadyEnrolled   ErrorCode = "ENROLL_004"
)

// Funding error codes (FUNDING_*)
const (
	FundingOperationNotFound ErrorCode = "FUNDING_001"
	FundingNotPending        ErrorCode = "FUNDING_002"
	FundingInvalidKind       ErrorCode = "FUNDING_003"
	FundingInvalidRecurrence ErrorCode = "FUNDING_004"
	FundingNoStudents        ErrorCode = "FUNDING_005"
)

// Store error codes (STORE_*)
const (
	StoreItemNotFound     ErrorCode = "STORE_001"
	StoreItemUnavailable  ErrorCode = "STORE_002"
	StoreItemOutOfStock   ErrorCode = "STORE_003"
	StoreItemNotInClass   ErrorCode = "STORE_004"
	StoreInvalidQuantity  ErrorCode = "STORE_005"
	StoreNotItemOwner     ErrorCode = "STORE_006"
)

// Statement error codes (STATEMENT_*)
const (
	StatementNotFound      ErrorCode = "STATEMENT_001"
	StatementEmptyPeriod   ErrorCode = "STATEMENT_002"
	StatementFuturePeriod  ErrorCode = "STATEMENT_003"
	StatementRenderFailed  ErrorCode = "STATEMENT_004"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_004"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Authentication errors
	AuthMissingToken:           "Authorization token is required",
	AuthExpiredToken:           "Authorization token has expired",
	AuthInvalidTokenFormat:     "Invalid authorization token format",
	AuthInsufficientPermission: "Insufficient permissions to access this resource",
	AuthUnknownPrincipal:       "Authenticated principal is not known to this service",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationOutOfRange:    "Field value is out of allowed range",
	ValidationInvalidDate:   "Invalid date format or range",

	// Ledger errors
	LedgerAccountNotFound:     "Account not found",
	LedgerAccountInactive:     "Account is closed or inactive",
	LedgerInsufficientFunds:   "Insufficient account balance",
	LedgerInvalidAmount:       "Amount must be a positive value",
	LedgerSameAccount:         "Cannot transfer to the same account",
	LedgerTransactionNotFound: "Transaction not found",

	// Enrollment errors
	EnrollStudentNotFound:    "Student not found",
	EnrollClassNotFound:      "Class not found",
	EnrollNotTeachersStudent: "Student is not enrolled in any of your classes",
	EnrollAlreadyEnrolled:    "Student is already enrolled in this class",

	// Funding errors
	FundingOperationNotFound: "Scheduled funding operation not found",
	FundingNotPending:        "Only pending funding operations can be cancelled",
	FundingInvalidKind:       "Funding kind must be add or remove",
	FundingInvalidRecurrence: "Recurrence must be once, weekly, biweekly or monthly",
	FundingNoStudents:        "At least one student is required",

	// Store errors
	StoreItemNotFound:    "Store item not found",
	StoreItemUnavailable: "Store item is not available for purchase",
	StoreItemOutOfStock:  "Store item has insufficient stock",
	StoreItemNotInClass:  "Store item is not offered to your class",
	StoreInvalidQuantity: "Purchase quantity must be a positive value",
	StoreNotItemOwner:    "Store item belongs to another teacher",

	// Statement errors
	StatementNotFound:     "Statement not found",
	StatementEmptyPeriod:  "No transactions in the requested period",
	StatementFuturePeriod: "Statements cannot be generated for future periods",
	StatementRenderFailed: "Statement could not be generated",

	// System errors
	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
