package command

import "github.com/0xsj/overwatch-payments/internal/domain/model"

// HandlePaymentChallenge starts the browser challenge of a signed session.
// The session must carry the signature it was issued with.
type HandlePaymentChallenge struct {
	AccountID string
	Browser   *model.BrowserInfo
	Session   *model.PaymentSession
}

func (c HandlePaymentChallenge) CommandName() string {
	return "payments.handle_payment_challenge"
}

// BrowserFlowResult tells the browser what to render next.
type BrowserFlowResult struct {
	Context *model.BrowserFlowContext
}

// HandlePaymentChallengeHandler handles the HandlePaymentChallenge command.
type HandlePaymentChallengeHandler = Handler[HandlePaymentChallenge, BrowserFlowResult]

// GetThreeDSMethodURL runs the browser fingerprint round directly, without
// the challenge-type dispatch of HandlePaymentChallenge.
type GetThreeDSMethodURL struct {
	AccountID string
	Browser   *model.BrowserInfo
	Session   *model.PaymentSession
}

func (c GetThreeDSMethodURL) CommandName() string {
	return "payments.get_3ds_method_url"
}

// GetThreeDSMethodURLHandler handles the GetThreeDSMethodURL command.
type GetThreeDSMethodURLHandler = Handler[GetThreeDSMethodURL, BrowserFlowResult]
