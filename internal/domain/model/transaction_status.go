package model

import "strings"

// TransactionStatus is the 3DS transStatus returned by the directory server or ACS.
type TransactionStatus string

const (
	TransactionStatusY  TransactionStatus = "Y"  // authenticated
	TransactionStatusN  TransactionStatus = "N"  // not authenticated
	TransactionStatusU  TransactionStatus = "U"  // could not be performed
	TransactionStatusA  TransactionStatus = "A"  // attempted
	TransactionStatusC  TransactionStatus = "C"  // challenge required
	TransactionStatusR  TransactionStatus = "R"  // rejected
	TransactionStatusD  TransactionStatus = "D"  // decoupled
	TransactionStatusI  TransactionStatus = "I"  // informational only
	TransactionStatusFR TransactionStatus = "FR" // rejected by fraud screening
)

func (s TransactionStatus) String() string {
	return string(s)
}

// ParseTransactionStatus normalises a raw transStatus. Unrecognised values are
// returned as-is so that mapping rules can still address them.
func ParseTransactionStatus(s string) TransactionStatus {
	return TransactionStatus(strings.ToUpper(strings.TrimSpace(s)))
}

// TransactionStatusReasonIssuerTimeout is the reason code an ACS returns when
// the cardholder never finished the challenge.
const TransactionStatusReasonIssuerTimeout = "TSR14"

// CancelIndicator explains why a challenge was abandoned.
type CancelIndicator string

const (
	CancelIndicatorCancelledByCardHolder   CancelIndicator = "CancelledByCardHolder"
	CancelIndicatorCancelledByRequestor    CancelIndicator = "CancelledByRequestor"
	CancelIndicatorTransactionAbandoned    CancelIndicator = "TransactionAbandoned"
	CancelIndicatorTransactionTimedOut     CancelIndicator = "TransactionTimedOut"
	CancelIndicatorTransactionCReqTimedOut CancelIndicator = "TransactionCReqTimedOut"
	CancelIndicatorTransactionError        CancelIndicator = "TransactionError"
	CancelIndicatorUnknown                 CancelIndicator = "Unknown"
)

var cancelIndicators = []CancelIndicator{
	CancelIndicatorCancelledByCardHolder,
	CancelIndicatorCancelledByRequestor,
	CancelIndicatorTransactionAbandoned,
	CancelIndicatorTransactionTimedOut,
	CancelIndicatorTransactionCReqTimedOut,
	CancelIndicatorTransactionError,
	CancelIndicatorUnknown,
}

// ParseCancelIndicator matches an indicator name case-insensitively.
func ParseCancelIndicator(s string) (CancelIndicator, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, known := range cancelIndicators {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

func (c CancelIndicator) IsTimeout() bool {
	return c == CancelIndicatorTransactionTimedOut || c == CancelIndicatorTransactionCReqTimedOut
}

func (c CancelIndicator) IsCancellation() bool {
	switch c {
	case CancelIndicatorCancelledByCardHolder, CancelIndicatorCancelledByRequestor, CancelIndicatorTransactionAbandoned:
		return true
	default:
		return false
	}
}

// ChallengeIndicator expresses the requestor's preference for a challenge.
type ChallengeIndicator string

const (
	ChallengeIndicatorNoPreference         ChallengeIndicator = "NoPreference"
	ChallengeIndicatorChallengeRequested   ChallengeIndicator = "ChallengeRequestedPreference"
	ChallengeIndicatorNoChallengeRequested ChallengeIndicator = "NoChallengeRequested"
)

// MethodCompletionIndicator reports whether the 3DS method (fingerprint) ran.
type MethodCompletionIndicator string

const (
	MethodCompletionY MethodCompletionIndicator = "Y"
	MethodCompletionN MethodCompletionIndicator = "N"
	MethodCompletionU MethodCompletionIndicator = "U"
)

// EnrollmentStatus is reported back to app SDK callers.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled    EnrollmentStatus = "Enrolled"
	EnrollmentStatusNotEnrolled EnrollmentStatus = "NotEnrolled"
	EnrollmentStatusBypassed    EnrollmentStatus = "Bypassed"
)

// DefaultMessageVersion is used when neither the caller nor the ACS supplied one.
const DefaultMessageVersion = "2.1.0"
