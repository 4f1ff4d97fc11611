package query

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/query"
)

// getPaymentSessionHandler implements query.GetPaymentSessionHandler.
type getPaymentSessionHandler struct {
	orchestrator orchestrator.ChallengeOrchestrator
}

// NewGetPaymentSessionHandler creates a new GetPaymentSessionHandler.
func NewGetPaymentSessionHandler(orch orchestrator.ChallengeOrchestrator) query.GetPaymentSessionHandler {
	return &getPaymentSessionHandler{orchestrator: orch}
}

func (h *getPaymentSessionHandler) Handle(ctx context.Context, qry query.GetPaymentSession) (query.GetPaymentSessionResult, error) {
	if qry.SessionID == "" {
		return query.GetPaymentSessionResult{}, domainerror.ErrSessionIDRequired
	}

	session, err := h.orchestrator.TryGetPaymentSession(ctx, qry.SessionID)
	if err != nil {
		return query.GetPaymentSessionResult{}, err
	}

	return query.GetPaymentSessionResult{Session: session}, nil
}
