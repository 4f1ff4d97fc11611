package http

import (
	"github.com/0xsj/overwatch-pkg/httputil"
	"github.com/0xsj/overwatch-pkg/validation"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// CreatePaymentSessionRequest is the body of POST /paymentSessions.
type CreatePaymentSessionRequest struct {
	PaymentSessionData *model.PaymentSessionData `json:"paymentSessionData"`
}

func (r *CreatePaymentSessionRequest) validate() error {
	v := validation.New()
	v.Field("paymentSessionData", r.PaymentSessionData).Required()
	if d := r.PaymentSessionData; d != nil {
		v.Field("paymentSessionData.piid", d.PaymentInstrumentID).Required().MaxLength(128)
		v.Field("paymentSessionData.amount", d.Amount).Min(0)
		v.Field("paymentSessionData.currency", d.Currency).MaxLength(3)
		v.Field("paymentSessionData.deviceChannel", string(d.DeviceChannel)).
			When(d.DeviceChannel != "", validation.OneOf(string(model.DeviceChannelBrowser), string(model.DeviceChannelApp)))
		v.Field("paymentSessionData.successUrl", d.SuccessURL).When(d.SuccessURL != "", validation.URL())
		v.Field("paymentSessionData.failureUrl", d.FailureURL).When(d.FailureURL != "", validation.URL())
	}
	return httputil.ValidationError(v.Validate())
}

// BrowserChallengeRequest starts the browser challenge of a signed session.
type BrowserChallengeRequest struct {
	AccountID      string                `json:"accountId"`
	BrowserInfo    *model.BrowserInfo    `json:"browserInfo"`
	PaymentSession *model.PaymentSession `json:"paymentSession"`
}

func (r *BrowserChallengeRequest) validate(sessionID string) error {
	v := validation.New()
	v.Field("browserInfo", r.BrowserInfo).Required()
	v.Field("paymentSession", r.PaymentSession).Required()
	if r.PaymentSession != nil {
		v.Field("paymentSession.id", r.PaymentSession.ID).Required().OneOf(sessionID)
		v.Field("paymentSession.signature", r.PaymentSession.Signature).Required()
	}
	return httputil.ValidationError(v.Validate())
}

// AuthenticateAppRequest is the app SDK authenticate body.
type AuthenticateAppRequest struct {
	AccountID string `json:"accountId"`
	model.AppAuthenticationRequest
}

func (r *AuthenticateAppRequest) validate() error {
	v := validation.New()
	v.Field("sdk.sdkAppID", r.SDK.AppID).Required()
	v.Field("sdk.sdkTransID", r.SDK.TransID).Required()
	v.Field("sdk.sdkEphemPubKey", r.SDK.EphemeralPublicKey).Required()
	return httputil.ValidationError(v.Validate())
}

// CompleteChallengeRequest is the partner-initiated completion body.
type CompleteChallengeRequest struct {
	AccountID string `json:"accountId"`
}

// RedirectResponse carries the redirect for a finished challenge.
type RedirectResponse struct {
	RedirectURI string `json:"redirectUri"`
}
