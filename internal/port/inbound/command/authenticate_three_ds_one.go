package command

import "github.com/0xsj/overwatch-payments/internal/domain/model"

// AuthenticateThreeDSOne starts a 3DS1 redirect challenge.
type AuthenticateThreeDSOne struct {
	SessionID string
}

func (c AuthenticateThreeDSOne) CommandName() string {
	return "payments.authenticate_3ds1"
}

// AuthenticateThreeDSOneResult contains the redirect form, if any.
type AuthenticateThreeDSOneResult struct {
	Challenge *model.ThreeDSOneChallenge
}

// AuthenticateThreeDSOneHandler handles the AuthenticateThreeDSOne command.
type AuthenticateThreeDSOneHandler = Handler[AuthenticateThreeDSOne, AuthenticateThreeDSOneResult]
