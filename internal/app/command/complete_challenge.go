package command

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/command"
)

// completeChallengeHandler implements command.CompleteChallengeHandler.
type completeChallengeHandler struct {
	orchestrator orchestrator.ChallengeOrchestrator
}

// NewCompleteChallengeHandler creates a new CompleteChallengeHandler.
func NewCompleteChallengeHandler(orch orchestrator.ChallengeOrchestrator) command.CompleteChallengeHandler {
	return &completeChallengeHandler{orchestrator: orch}
}

func (h *completeChallengeHandler) Handle(ctx context.Context, cmd command.CompleteChallenge) (command.CompleteChallengeResult, error) {
	if cmd.SessionID == "" {
		return command.CompleteChallengeResult{}, domainerror.ErrSessionIDRequired
	}

	session, err := h.orchestrator.CompleteChallenge(ctx, cmd.AccountID, cmd.SessionID)
	if err != nil {
		return command.CompleteChallengeResult{}, err
	}

	return command.CompleteChallengeResult{Session: session}, nil
}

// completeThreeDSOneChallengeHandler implements command.CompleteThreeDSOneChallengeHandler.
type completeThreeDSOneChallengeHandler struct {
	orchestrator orchestrator.ChallengeOrchestrator
}

// NewCompleteThreeDSOneChallengeHandler creates a new CompleteThreeDSOneChallengeHandler.
func NewCompleteThreeDSOneChallengeHandler(orch orchestrator.ChallengeOrchestrator) command.CompleteThreeDSOneChallengeHandler {
	return &completeThreeDSOneChallengeHandler{orchestrator: orch}
}

func (h *completeThreeDSOneChallengeHandler) Handle(ctx context.Context, cmd command.CompleteThreeDSOneChallenge) (command.CompleteChallengeResult, error) {
	if cmd.SessionID == "" {
		return command.CompleteChallengeResult{}, domainerror.ErrSessionIDRequired
	}

	session, err := h.orchestrator.CompleteThreeDSOneChallenge(ctx, cmd.AccountID, cmd.SessionID, cmd.Params)
	if err != nil {
		return command.CompleteChallengeResult{}, err
	}

	return command.CompleteChallengeResult{Session: session}, nil
}
