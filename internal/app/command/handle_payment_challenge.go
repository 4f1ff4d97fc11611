package command

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/command"
)

// handlePaymentChallengeHandler implements command.HandlePaymentChallengeHandler.
type handlePaymentChallengeHandler struct {
	orchestrator orchestrator.ChallengeOrchestrator
	signer       model.SessionSigner
}

// NewHandlePaymentChallengeHandler creates a new HandlePaymentChallengeHandler.
func NewHandlePaymentChallengeHandler(
	orch orchestrator.ChallengeOrchestrator,
	signer model.SessionSigner,
) command.HandlePaymentChallengeHandler {
	return &handlePaymentChallengeHandler{
		orchestrator: orch,
		signer:       signer,
	}
}

func (h *handlePaymentChallengeHandler) Handle(ctx context.Context, cmd command.HandlePaymentChallenge) (command.BrowserFlowResult, error) {
	if cmd.Session == nil || cmd.Session.ID == "" {
		return command.BrowserFlowResult{}, domainerror.ErrSessionIDRequired
	}

	// The session came back from the caller; it must be the one we issued
	if err := cmd.Session.VerifySignature(h.signer); err != nil {
		return command.BrowserFlowResult{}, err
	}

	fc, err := h.orchestrator.HandlePaymentChallenge(ctx, cmd.AccountID, cmd.Browser, cmd.Session)
	if err != nil {
		return command.BrowserFlowResult{}, err
	}

	return command.BrowserFlowResult{Context: fc}, nil
}

// getThreeDSMethodURLHandler implements command.GetThreeDSMethodURLHandler.
type getThreeDSMethodURLHandler struct {
	orchestrator orchestrator.ChallengeOrchestrator
	signer       model.SessionSigner
}

// NewGetThreeDSMethodURLHandler creates a new GetThreeDSMethodURLHandler.
func NewGetThreeDSMethodURLHandler(
	orch orchestrator.ChallengeOrchestrator,
	signer model.SessionSigner,
) command.GetThreeDSMethodURLHandler {
	return &getThreeDSMethodURLHandler{
		orchestrator: orch,
		signer:       signer,
	}
}

func (h *getThreeDSMethodURLHandler) Handle(ctx context.Context, cmd command.GetThreeDSMethodURL) (command.BrowserFlowResult, error) {
	if cmd.Session == nil || cmd.Session.ID == "" {
		return command.BrowserFlowResult{}, domainerror.ErrSessionIDRequired
	}
	if err := cmd.Session.VerifySignature(h.signer); err != nil {
		return command.BrowserFlowResult{}, err
	}

	fc, err := h.orchestrator.GetThreeDSMethodURL(ctx, cmd.AccountID, cmd.Browser, cmd.Session)
	if err != nil {
		return command.BrowserFlowResult{}, err
	}

	return command.BrowserFlowResult{Context: fc}, nil
}
