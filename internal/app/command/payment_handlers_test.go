package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/0xsj/overwatch-pkg/log"

	appcommand "github.com/0xsj/overwatch-payments/internal/app/command"
	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	"github.com/0xsj/overwatch-payments/internal/app/service"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/command"
	"github.com/0xsj/overwatch-payments/internal/testutil/mocks"
)

var testCard = &model.PaymentInstrument{
	ID:        "pi_card",
	AccountID: "acct_1",
	Family:    model.PaymentMethodFamilyCreditCard,
	Type:      "visa",
}

func newOrchestrator(t *testing.T) (orchestrator.ChallengeOrchestrator, model.SessionSigner, *mocks.AuthenticationService) {
	t.Helper()
	signer, err := service.NewHMACSessionSigner([]byte("command-test-secret"))
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	auth := mocks.NewAuthenticationService("pss_1")
	orch := orchestrator.NewV2(orchestrator.Dependencies{
		Sessions:       mocks.NewSessionStore(),
		Cache:          mocks.NewSessionCache(),
		Instruments:    mocks.NewInstrumentService(testCard),
		Authentication: auth,
		Attestation:    mocks.NewAttestationService(),
		Publisher:      mocks.NewEventPublisher(),
		Signer:         signer,
		Logger:         log.NewNoop(),
		Config:         orchestrator.Config{NotificationBaseURL: "https://payments.example.com/v1"},
	})
	return orch, signer, auth
}

func purchase() *model.PaymentSessionData {
	return &model.PaymentSessionData{
		PaymentInstrumentID: testCard.ID,
		AccountID:           "acct_1",
		Amount:              10,
		Currency:            "eur",
		Country:             "fr",
		ChallengeScenario:   model.ChallengeScenarioPaymentTransaction,
		Settings:            model.PartnerSettings{PSD2Enabled: true},
	}
}

func TestCreatePaymentSessionHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("default flags apply to every purchase", func(t *testing.T) {
		orch, signer, _ := newOrchestrator(t)
		handler := appcommand.NewCreatePaymentSessionHandler(orch, []string{model.FlagPretendPIMSReturned3DS2}, "")

		result, err := handler.Handle(ctx, command.CreatePaymentSession{Data: purchase()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Session.ChallengeType != model.ChallengeTypePSD2 {
			t.Errorf("challenge type mismatch: got %s", result.Session.ChallengeType)
		}
		if err := result.Session.VerifySignature(signer); err != nil {
			t.Errorf("expected signed session: %v", err)
		}
	})

	t.Run("stale settings on first try are rejected", func(t *testing.T) {
		orch, _, auth := newOrchestrator(t)
		handler := appcommand.NewCreatePaymentSessionHandler(orch, nil, "v7")
		data := purchase()
		data.SettingsVersion = "v6"
		data.SettingsTryCount = 1

		_, err := handler.Handle(ctx, command.CreatePaymentSession{Data: data})
		if !errors.Is(err, domainerror.ErrSettingsVersionMismatch) {
			t.Errorf("expected ErrSettingsVersionMismatch, got %v", err)
		}
		if auth.Calls.CreateSessionID != 0 {
			t.Error("orchestrator must not run")
		}
	})

	t.Run("stale settings on retry are accepted", func(t *testing.T) {
		orch, _, _ := newOrchestrator(t)
		handler := appcommand.NewCreatePaymentSessionHandler(orch, nil, "v7")
		data := purchase()
		data.SettingsVersion = "v6"
		data.SettingsTryCount = 2

		if _, err := handler.Handle(ctx, command.CreatePaymentSession{Data: data}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing data", func(t *testing.T) {
		orch, _, _ := newOrchestrator(t)
		handler := appcommand.NewCreatePaymentSessionHandler(orch, nil, "")

		_, err := handler.Handle(ctx, command.CreatePaymentSession{})
		if !errors.Is(err, domainerror.ErrPaymentInstrumentIDRequired) {
			t.Errorf("expected ErrPaymentInstrumentIDRequired, got %v", err)
		}
	})
}

func TestHandlePaymentChallengeHandler(t *testing.T) {
	ctx := context.Background()

	newSession := func(t *testing.T) (command.HandlePaymentChallengeHandler, *model.PaymentSession, *mocks.AuthenticationService) {
		t.Helper()
		orch, signer, auth := newOrchestrator(t)
		create := appcommand.NewCreatePaymentSessionHandler(orch, []string{model.FlagPretendPIMSReturned3DS2}, "")
		result, err := create.Handle(ctx, command.CreatePaymentSession{Data: purchase()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return appcommand.NewHandlePaymentChallengeHandler(orch, signer), result.Session, auth
	}

	t.Run("runs the challenge for a signed session", func(t *testing.T) {
		handler, ps, auth := newSession(t)
		auth.MethodData = &model.MethodData{ThreeDSServerTransID: "tx-1", MethodURL: "https://acs.example.com/method"}

		result, err := handler.Handle(ctx, command.HandlePaymentChallenge{Session: ps, Browser: &model.BrowserInfo{}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Context.IsFingerPrintRequired {
			t.Error("expected fingerprint form")
		}
	})

	t.Run("rejects a tampered session", func(t *testing.T) {
		handler, ps, auth := newSession(t)
		ps.Status = model.ChallengeStatusSucceeded

		_, err := handler.Handle(ctx, command.HandlePaymentChallenge{Session: ps})
		if !errors.Is(err, domainerror.ErrSessionSignatureInvalid) {
			t.Errorf("expected ErrSessionSignatureInvalid, got %v", err)
		}
		if auth.Calls.GetMethodURL != 0 {
			t.Error("orchestrator must not run")
		}
	})

	t.Run("rejects an unsigned session", func(t *testing.T) {
		handler, ps, _ := newSession(t)
		ps.Signature = ""

		_, err := handler.Handle(ctx, command.HandlePaymentChallenge{Session: ps})
		if !errors.Is(err, domainerror.ErrSessionSignatureInvalid) {
			t.Errorf("expected ErrSessionSignatureInvalid, got %v", err)
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		handler, _, _ := newSession(t)

		_, err := handler.Handle(ctx, command.HandlePaymentChallenge{})
		if !errors.Is(err, domainerror.ErrSessionIDRequired) {
			t.Errorf("expected ErrSessionIDRequired, got %v", err)
		}
	})
}

func TestCompleteChallengeHandler(t *testing.T) {
	orch, _, _ := newOrchestrator(t)
	handler := appcommand.NewCompleteChallengeHandler(orch)

	_, err := handler.Handle(context.Background(), command.CompleteChallenge{})
	if !errors.Is(err, domainerror.ErrSessionIDRequired) {
		t.Errorf("expected ErrSessionIDRequired, got %v", err)
	}
}

func TestWithLogging(t *testing.T) {
	ctx := context.Background()

	t.Run("passes results through", func(t *testing.T) {
		orch, signer, _ := newOrchestrator(t)
		handler := appcommand.WithLogging(appcommand.NewCreatePaymentSessionHandler(orch, nil, ""), log.NewNoop())

		result, err := handler.Handle(ctx, command.CreatePaymentSession{Data: purchase()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := result.Session.VerifySignature(signer); err != nil {
			t.Errorf("expected signed session: %v", err)
		}
	})

	t.Run("passes errors through", func(t *testing.T) {
		orch, _, _ := newOrchestrator(t)
		handler := appcommand.WithLogging(appcommand.NewCreatePaymentSessionHandler(orch, nil, ""), log.NewNoop())

		_, err := handler.Handle(ctx, command.CreatePaymentSession{})
		if !errors.Is(err, domainerror.ErrPaymentInstrumentIDRequired) {
			t.Errorf("expected ErrPaymentInstrumentIDRequired, got %v", err)
		}
	})
}
