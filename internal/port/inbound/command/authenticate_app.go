package command

import "github.com/0xsj/overwatch-payments/internal/domain/model"

// AuthenticateApp runs the app SDK authenticate round.
type AuthenticateApp struct {
	AccountID string
	SessionID string
	Request   model.AppAuthenticationRequest
}

func (c AuthenticateApp) CommandName() string {
	return "payments.authenticate_app"
}

// AuthenticateAppResult contains the response for the app SDK.
type AuthenticateAppResult struct {
	Response *model.AuthenticationResponse
}

// AuthenticateAppHandler handles the AuthenticateApp command.
type AuthenticateAppHandler = Handler[AuthenticateApp, AuthenticateAppResult]
