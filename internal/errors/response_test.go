package errors

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ResponseTestSuite defines the test suite for error responses
type ResponseTestSuite struct {
	suite.Suite
}

// TestResponseTestSuite runs the test suite
func TestResponseTestSuite(t *testing.T) {
	suite.Run(t, new(ResponseTestSuite))
}

func (s *ResponseTestSuite) TestNewErrorResponse() {
	response := NewErrorResponse(LedgerAccountNotFound, "trace-123")

	s.Equal("LEDGER_001", response.Error.Code)
	s.Equal("Account not found", response.Error.Message)
	s.Equal("trace-123", response.Error.TraceID)
	s.Empty(response.Error.Details)
}

func (s *ResponseTestSuite) TestNewErrorResponse_WithOptions() {
	response := NewErrorResponse(LedgerInsufficientFunds, "trace-456",
		WithMessage("Checking account cannot cover this purchase"),
		WithDetails("balance: 3.50", "required: 10.00"),
	)

	s.Equal("LEDGER_003", response.Error.Code)
	s.Equal("Checking account cannot cover this purchase", response.Error.Message)
	s.Len(response.Error.Details, 2)
}

func (s *ResponseTestSuite) TestNewValidationError() {
	fieldErrors := map[string]string{
		"amount": "must be positive",
	}

	response := NewValidationError(fieldErrors, "trace-789")

	s.Equal(string(ValidationGeneral), response.Error.Code)
	s.Len(response.Error.Details, 1)
	s.Contains(response.Error.Details[0], "amount")
}

func (s *ResponseTestSuite) TestWrapSystemError() {
	originalErr := json.Unmarshal([]byte("{"), &struct{}{})
	response, err := WrapSystemError(originalErr, "trace-abc")

	s.Equal(string(SystemInternalError), response.Error.Code)
	s.Equal(originalErr, err)
	// Internal details never leak to the client
	s.NotContains(response.Error.Message, "unexpected end")
}

func (s *ResponseTestSuite) TestToJSON() {
	response := NewErrorResponse(StoreItemOutOfStock, "trace-json")

	data, err := response.ToJSON()
	s.NoError(err)

	var decoded ErrorResponse
	s.NoError(json.Unmarshal(data, &decoded))
	s.Equal("STORE_003", decoded.Error.Code)
	s.Equal("trace-json", decoded.Error.TraceID)
}

func (s *ResponseTestSuite) TestGetHTTPStatus() {
	testCases := []struct {
		code     ErrorCode
		expected int
	}{
		{ValidationGeneral, http.StatusBadRequest},
		{LedgerInvalidAmount, http.StatusBadRequest},
		{LedgerSameAccount, http.StatusBadRequest},
		{AuthMissingToken, http.StatusUnauthorized},
		{AuthExpiredToken, http.StatusUnauthorized},
		{AuthInsufficientPermission, http.StatusForbidden},
		{EnrollNotTeachersStudent, http.StatusForbidden},
		{StoreItemNotInClass, http.StatusForbidden},
		{LedgerAccountNotFound, http.StatusNotFound},
		{StoreItemNotFound, http.StatusNotFound},
		{StatementNotFound, http.StatusNotFound},
		{FundingNotPending, http.StatusConflict},
		{EnrollAlreadyEnrolled, http.StatusConflict},
		{LedgerInsufficientFunds, http.StatusUnprocessableEntity},
		{StoreItemOutOfStock, http.StatusUnprocessableEntity},
		{StatementEmptyPeriod, http.StatusUnprocessableEntity},
		{SystemRateLimitExceeded, http.StatusTooManyRequests},
		{SystemServiceUnavailable, http.StatusServiceUnavailable},
		{SystemInternalError, http.StatusInternalServerError},
		{ErrorCode("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		s.Equal(tc.expected, GetHTTPStatus(tc.code), "code %s", tc.code)
	}
}

func (s *ResponseTestSuite) TestIsClientAndServerError() {
	clientErr := NewErrorResponse(LedgerAccountNotFound, "t")
	s.True(clientErr.IsClientError())
	s.False(clientErr.IsServerError())

	serverErr := NewErrorResponse(SystemDatabaseError, "t")
	s.False(serverErr.IsClientError())
	s.True(serverErr.IsServerError())
}

func (s *ResponseTestSuite) TestString() {
	response := NewErrorResponse(LedgerAccountNotFound, "trace-str")
	str := response.String()
	s.Contains(str, "LEDGER_001")
	s.Contains(str, "trace-str")
}
