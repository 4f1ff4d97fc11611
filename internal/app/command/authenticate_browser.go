package command

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/command"
)

// authenticateBrowserHandler implements command.AuthenticateBrowserHandler.
type authenticateBrowserHandler struct {
	orchestrator orchestrator.ChallengeOrchestrator
}

// NewAuthenticateBrowserHandler creates a new AuthenticateBrowserHandler.
func NewAuthenticateBrowserHandler(orch orchestrator.ChallengeOrchestrator) command.AuthenticateBrowserHandler {
	return &authenticateBrowserHandler{orchestrator: orch}
}

func (h *authenticateBrowserHandler) Handle(ctx context.Context, cmd command.AuthenticateBrowser) (command.BrowserFlowResult, error) {
	if cmd.SessionID == "" {
		return command.BrowserFlowResult{}, domainerror.ErrSessionIDRequired
	}

	fc, err := h.orchestrator.AuthenticateBrowser(ctx, cmd.SessionID, cmd.MethodCompleted)
	if err != nil {
		return command.BrowserFlowResult{}, err
	}

	return command.BrowserFlowResult{Context: fc}, nil
}
