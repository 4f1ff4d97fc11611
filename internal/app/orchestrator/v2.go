package orchestrator

import "github.com/0xsj/overwatch-payments/internal/domain/model"

// v2 runs every round on the shared engine; post-processing and
// attestation always happen in each round's deferred finally.
type v2 struct {
	*engine
}

// NewV2 creates the orchestrator tagged V2.
func NewV2(deps Dependencies) ChallengeOrchestrator {
	return &v2{engine: newEngine(deps, model.HandlerVersionV2)}
}
