package query

import (
	"context"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/query"
)

// getChallengeRedirectHandler implements query.GetChallengeRedirectHandler.
type getChallengeRedirectHandler struct {
	orchestrator orchestrator.ChallengeOrchestrator
}

// NewGetChallengeRedirectHandler creates a new GetChallengeRedirectHandler.
func NewGetChallengeRedirectHandler(orch orchestrator.ChallengeOrchestrator) query.GetChallengeRedirectHandler {
	return &getChallengeRedirectHandler{orchestrator: orch}
}

func (h *getChallengeRedirectHandler) Handle(ctx context.Context, qry query.GetChallengeRedirect) (query.GetChallengeRedirectResult, error) {
	if qry.SessionID == "" {
		return query.GetChallengeRedirectResult{}, domainerror.ErrSessionIDRequired
	}

	uri, err := h.orchestrator.GetChallengeRedirectURI(ctx, qry.SessionID)
	if err != nil {
		return query.GetChallengeRedirectResult{}, err
	}

	return query.GetChallengeRedirectResult{RedirectURI: uri}, nil
}
