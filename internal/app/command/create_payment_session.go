package command

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/command"
)

// createPaymentSessionHandler implements command.CreatePaymentSessionHandler.
type createPaymentSessionHandler struct {
	orchestrator    orchestrator.ChallengeOrchestrator
	defaultFlags    []string
	settingsVersion string
}

// NewCreatePaymentSessionHandler creates a new CreatePaymentSessionHandler.
// defaultFlags are enabled for every purchase in addition to the caller's.
func NewCreatePaymentSessionHandler(
	orch orchestrator.ChallengeOrchestrator,
	defaultFlags []string,
	settingsVersion string,
) command.CreatePaymentSessionHandler {
	return &createPaymentSessionHandler{
		orchestrator:    orch,
		defaultFlags:    defaultFlags,
		settingsVersion: settingsVersion,
	}
}

func (h *createPaymentSessionHandler) Handle(ctx context.Context, cmd command.CreatePaymentSession) (command.CreatePaymentSessionResult, error) {
	if cmd.Data == nil {
		return command.CreatePaymentSessionResult{}, domainerror.ErrPaymentInstrumentIDRequired
	}

	// Reject stale partner settings so the caller reloads them
	if err := cmd.Data.ValidateSettingsVersion(h.settingsVersion); err != nil {
		return command.CreatePaymentSessionResult{}, err
	}

	features := cmd.Features.With(h.defaultFlags...)
	session, err := h.orchestrator.CreatePaymentSession(ctx, cmd.Data, features)
	if err != nil {
		return command.CreatePaymentSessionResult{}, err
	}

	return command.CreatePaymentSessionResult{Session: session}, nil
}
