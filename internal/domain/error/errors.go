package error

import (
	"github.com/0xsj/overwatch-pkg/errors"
)

// Domain error codes
const (
	// Session errors
	CodeSessionNotFound         errors.Code = "PAYMENT_SESSION_NOT_FOUND"
	CodeSessionIDRequired       errors.Code = "PAYMENT_SESSION_ID_REQUIRED"
	CodeSessionSignatureInvalid errors.Code = "PAYMENT_SESSION_SIGNATURE_INVALID"
	CodeSessionSigningFailed    errors.Code = "PAYMENT_SESSION_SIGNING_FAILED"

	// Purchase context errors
	CodeUnauthorizedMotoPaymentSession errors.Code = "UNAUTHORIZED_MOTO_PAYMENT_SESSION"
	CodeSettingsVersionMismatch        errors.Code = "SETTINGS_VERSION_MISMATCH"
	CodeAccountIDRequired              errors.Code = "ACCOUNT_ID_REQUIRED"
	CodeInvalidAccountID               errors.Code = "INVALID_ACCOUNT_ID"

	// Payment instrument errors
	CodePaymentInstrumentNotFound   errors.Code = "PAYMENT_INSTRUMENT_NOT_FOUND"
	CodePaymentInstrumentIDRequired errors.Code = "PAYMENT_INSTRUMENT_ID_REQUIRED"
	CodePaymentInstrumentInvalid    errors.Code = "PAYMENT_INSTRUMENT_VALIDATION_FAILED"

	// Challenge errors
	CodeChallengeWindowSizeInvalid errors.Code = "CHALLENGE_WINDOW_SIZE_INVALID"
	CodeChallengeStatusInvalid     errors.Code = "CHALLENGE_STATUS_INVALID"
	CodeHandlerVersionInvalid      errors.Code = "HANDLER_VERSION_INVALID"

	// Integration errors, logged and never surfaced
	CodeDirectoryServerInfoNotFound errors.Code = "DS_INFO_NOT_FOUND"
	CodeACSSignatureInvalid         errors.Code = "ACS_SIGNED_CONTENT_INVALID"
	CodeTrustConfigUnavailable      errors.Code = "DS_TRUST_CONFIG_UNAVAILABLE"

	// Caller errors
	CodeCallerUnauthorized errors.Code = "CALLER_UNAUTHORIZED"
)

// Session errors
var (
	ErrSessionNotFound = errors.New(errors.KindNotFound, CodeSessionNotFound, "payment session not found")

	ErrSessionIDRequired = errors.New(errors.KindValidation, CodeSessionIDRequired, "payment session ID is required")

	ErrSessionSignatureInvalid = errors.New(errors.KindValidation, CodeSessionSignatureInvalid, "payment session signature does not match")

	ErrSessionSigningFailed = errors.New(errors.KindInternal, CodeSessionSigningFailed, "failed to sign payment session")
)

// Purchase context errors
var (
	ErrUnauthorizedMotoPaymentSession = errors.New(errors.KindValidation, CodeUnauthorizedMotoPaymentSession, "caller is not authorized to create MOTO payment sessions")

	ErrSettingsVersionMismatch = errors.New(errors.KindValidation, CodeSettingsVersionMismatch, "partner settings version does not match the target version")

	ErrAccountIDRequired = errors.New(errors.KindValidation, CodeAccountIDRequired, "account ID is required")

	ErrInvalidAccountID = errors.New(errors.KindValidation, CodeInvalidAccountID, "account ID is invalid")
)

// Payment instrument errors
var (
	ErrPaymentInstrumentNotFound = errors.New(errors.KindValidation, CodePaymentInstrumentNotFound, "payment instrument not found for account")

	ErrPaymentInstrumentIDRequired = errors.New(errors.KindValidation, CodePaymentInstrumentIDRequired, "payment instrument ID is required")

	ErrPaymentInstrumentInvalid = errors.New(errors.KindDomain, CodePaymentInstrumentInvalid, "payment instrument validation failed")
)

// Challenge errors
var (
	ErrChallengeWindowSizeInvalid = errors.New(errors.KindValidation, CodeChallengeWindowSizeInvalid, "challenge window size is not supported")

	ErrChallengeStatusInvalid = errors.New(errors.KindValidation, CodeChallengeStatusInvalid, "challenge status is invalid")

	ErrHandlerVersionInvalid = errors.New(errors.KindValidation, CodeHandlerVersionInvalid, "handler version is invalid")
)

// Caller errors
var (
	ErrCallerUnauthorized = errors.New(errors.KindUnauthorized, CodeCallerUnauthorized, "caller token is missing or invalid")
)
