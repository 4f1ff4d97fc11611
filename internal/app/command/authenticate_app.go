package command

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/command"
)

// authenticateAppHandler implements command.AuthenticateAppHandler.
type authenticateAppHandler struct {
	orchestrator orchestrator.ChallengeOrchestrator
}

// NewAuthenticateAppHandler creates a new AuthenticateAppHandler.
func NewAuthenticateAppHandler(orch orchestrator.ChallengeOrchestrator) command.AuthenticateAppHandler {
	return &authenticateAppHandler{orchestrator: orch}
}

func (h *authenticateAppHandler) Handle(ctx context.Context, cmd command.AuthenticateApp) (command.AuthenticateAppResult, error) {
	if cmd.SessionID == "" {
		return command.AuthenticateAppResult{}, domainerror.ErrSessionIDRequired
	}

	resp, err := h.orchestrator.AuthenticateApp(ctx, cmd.AccountID, cmd.SessionID, &cmd.Request)
	if err != nil {
		return command.AuthenticateAppResult{}, err
	}

	return command.AuthenticateAppResult{Response: resp}, nil
}
