package gateway

import (
	stderrors "errors"
	"fmt"
)

// ServiceError is a non-success response from a downstream payments service.
// StatusCode and ErrorCode feed the safety-net exclusion tokens.
type ServiceError struct {
	Service    string
	StatusCode int
	ErrorCode  string
	Message    string
	Target     string
}

func (e *ServiceError) Error() string {
	if e.ErrorCode == "" {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d (%s): %s", e.Service, e.StatusCode, e.ErrorCode, e.Message)
}

// AsServiceError unwraps err into a ServiceError.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Error codes returned by the instrument service that the orchestrator
// translates into validation failures.
const (
	ErrorCodeAccountNotFound          = "AccountNotFound"
	ErrorCodeAccountPINotFound        = "AccountPINotFound"
	ErrorCodeInvalidAccountID         = "InvalidAccountId"
	ErrorCodePaymentInstrumentUnknown = "PaymentInstrumentNotFound"
)
