package orchestrator_test

import (
	"context"
	"testing"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

func TestRouter(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unknown default version", func(t *testing.T) {
		f := newFixture(t)
		if _, err := orchestrator.NewRouter("V9", f.deps()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("flag selects version for new sessions", func(t *testing.T) {
		f := newFixture(t, cardPI)
		r, err := orchestrator.NewRouter(model.HandlerVersionV1, f.deps())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		v1 := f.createChallenge(t, r, model.FeatureSet{})
		f.auth.SessionID = "pss_2"
		v2 := f.createChallenge(t, r, model.NewFeatureSet(model.FlagUsePaymentSessionsHandlerV2))

		if got := f.stored(t, v1.ID).HandlerVersion; got != model.HandlerVersionV1 {
			t.Errorf("default session version mismatch: got %s", got)
		}
		if got := f.stored(t, v2.ID).HandlerVersion; got != model.HandlerVersionV2 {
			t.Errorf("flagged session version mismatch: got %s", got)
		}
	})

	t.Run("later rounds follow the stored version", func(t *testing.T) {
		f := newFixture(t, cardPI)
		r, err := orchestrator.NewRouter(model.HandlerVersionV1, f.deps())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f.auth.Completion = &model.CompletionResult{TransStatus: model.TransactionStatusR}

		v2 := f.createChallenge(t, r, model.NewFeatureSet(model.FlagUsePaymentSessionsHandlerV2))
		if _, err := r.CompleteChallenge(ctx, "", v2.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// V2 attests only verified outcomes.
		if n := len(f.attestation.Attestations()); n != 0 {
			t.Fatalf("expected no attestation from v2, got %d", n)
		}

		f.auth.SessionID = "pss_2"
		v1 := f.createChallenge(t, r, model.FeatureSet{})
		done, err := r.CompleteChallenge(ctx, "", v1.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if done.Status != model.ChallengeStatusFailed {
			t.Errorf("status mismatch: got %s", done.Status)
		}
		got := f.attestation.Attestations()
		if len(got) != 1 || got[0].Verified || got[0].SessionID != v1.ID {
			t.Errorf("expected one unverified attestation from v1, got %+v", got)
		}
	})

	t.Run("v1 tolerates an unreadable session", func(t *testing.T) {
		f := newFixture(t)
		r, err := orchestrator.NewRouter(model.HandlerVersionV1, f.deps())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		done, err := r.CompleteChallenge(ctx, testAccountID, "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if done.Status != model.ChallengeStatusSucceeded {
			t.Errorf("status mismatch: got %s", done.Status)
		}
		if len(f.attestation.Attestations()) != 1 {
			t.Error("expected attestation for unreadable session")
		}
	})

	t.Run("nil session is rejected", func(t *testing.T) {
		f := newFixture(t)
		r, err := orchestrator.NewRouter(model.HandlerVersionV2, f.deps())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := r.HandlePaymentChallenge(ctx, "", nil, nil); err == nil {
			t.Error("expected error")
		}
	})
}
