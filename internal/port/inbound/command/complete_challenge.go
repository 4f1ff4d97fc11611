package command

import "github.com/0xsj/overwatch-payments/internal/domain/model"

// CompleteChallenge records the final result of a 3DS2 challenge.
type CompleteChallenge struct {
	AccountID string
	SessionID string
}

func (c CompleteChallenge) CommandName() string {
	return "payments.complete_challenge"
}

// CompleteThreeDSOneChallenge records the final result of a 3DS1 challenge.
// Params are the authorization parameters the issuer posted back.
type CompleteThreeDSOneChallenge struct {
	AccountID string
	SessionID string
	Params    map[string]string
}

func (c CompleteThreeDSOneChallenge) CommandName() string {
	return "payments.complete_3ds1_challenge"
}

// CompleteChallengeResult contains the settled payment session.
type CompleteChallengeResult struct {
	Session *model.PaymentSession
}

// CompleteChallengeHandler handles the CompleteChallenge command.
type CompleteChallengeHandler = Handler[CompleteChallenge, CompleteChallengeResult]

// CompleteThreeDSOneChallengeHandler handles the CompleteThreeDSOneChallenge command.
type CompleteThreeDSOneChallengeHandler = Handler[CompleteThreeDSOneChallenge, CompleteChallengeResult]
