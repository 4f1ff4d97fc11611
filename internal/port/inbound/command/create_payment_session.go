package command

import "github.com/0xsj/overwatch-payments/internal/domain/model"

// CreatePaymentSession decides whether a purchase needs a payment challenge.
type CreatePaymentSession struct {
	Data     *model.PaymentSessionData
	Features model.FeatureSet
}

func (c CreatePaymentSession) CommandName() string {
	return "payments.create_payment_session"
}

// CreatePaymentSessionResult contains the signed payment session.
type CreatePaymentSessionResult struct {
	Session *model.PaymentSession
}

// CreatePaymentSessionHandler handles the CreatePaymentSession command.
type CreatePaymentSessionHandler = Handler[CreatePaymentSession, CreatePaymentSessionResult]
