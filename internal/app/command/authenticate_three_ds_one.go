package command

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/command"
)

// authenticateThreeDSOneHandler implements command.AuthenticateThreeDSOneHandler.
type authenticateThreeDSOneHandler struct {
	orchestrator orchestrator.ChallengeOrchestrator
}

// NewAuthenticateThreeDSOneHandler creates a new AuthenticateThreeDSOneHandler.
func NewAuthenticateThreeDSOneHandler(orch orchestrator.ChallengeOrchestrator) command.AuthenticateThreeDSOneHandler {
	return &authenticateThreeDSOneHandler{orchestrator: orch}
}

func (h *authenticateThreeDSOneHandler) Handle(ctx context.Context, cmd command.AuthenticateThreeDSOne) (command.AuthenticateThreeDSOneResult, error) {
	if cmd.SessionID == "" {
		return command.AuthenticateThreeDSOneResult{}, domainerror.ErrSessionIDRequired
	}

	challenge, err := h.orchestrator.AuthenticateThreeDSOne(ctx, cmd.SessionID)
	if err != nil {
		return command.AuthenticateThreeDSOneResult{}, err
	}

	return command.AuthenticateThreeDSOneResult{Challenge: challenge}, nil
}
