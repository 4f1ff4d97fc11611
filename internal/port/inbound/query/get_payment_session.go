package query

import "github.com/0xsj/overwatch-payments/internal/domain/model"

// GetPaymentSession retrieves the signed public view of a session.
type GetPaymentSession struct {
	SessionID string
}

func (q GetPaymentSession) QueryName() string {
	return "payments.get_payment_session"
}

// GetPaymentSessionResult contains the session. Session is nil when it
// could not be read.
type GetPaymentSessionResult struct {
	Session *model.PaymentSession
}

// GetPaymentSessionHandler handles the GetPaymentSession query.
type GetPaymentSessionHandler = Handler[GetPaymentSession, GetPaymentSessionResult]
