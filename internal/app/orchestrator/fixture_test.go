package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	"github.com/0xsj/overwatch-payments/internal/app/service"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/testutil/mocks"
)

const (
	testAccountID         = "acct_1"
	testProtocolSessionID = "pss_1"
	testNotificationBase  = "https://payments.example.com/v1"
)

type fixture struct {
	sessions    *mocks.SessionStore
	piSessions  *mocks.InstrumentSessionStore
	cache       *mocks.SessionCache
	instruments *mocks.InstrumentService
	auth        *mocks.AuthenticationService
	attestation *mocks.AttestationService
	publisher   *mocks.EventPublisher
	signer      model.SessionSigner
}

func newFixture(t *testing.T, instruments ...*model.PaymentInstrument) *fixture {
	t.Helper()
	signer, err := service.NewHMACSessionSigner([]byte("orchestrator-test-secret"))
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	return &fixture{
		sessions:    mocks.NewSessionStore(),
		piSessions:  mocks.NewInstrumentSessionStore(),
		cache:       mocks.NewSessionCache(),
		instruments: mocks.NewInstrumentService(instruments...),
		auth:        mocks.NewAuthenticationService(testProtocolSessionID),
		attestation: mocks.NewAttestationService(),
		publisher:   mocks.NewEventPublisher(),
		signer:      signer,
	}
}

func (f *fixture) deps() orchestrator.Dependencies {
	return orchestrator.Dependencies{
		Sessions:           f.sessions,
		InstrumentSessions: f.piSessions,
		Cache:              f.cache,
		Instruments:        f.instruments,
		Authentication:     f.auth,
		Attestation:        f.attestation,
		Publisher:          f.publisher,
		Signer:             f.signer,
		Logger:             log.NewNoop(),
		Config: orchestrator.Config{
			NotificationBaseURL: testNotificationBase,
			CreateBackoff:       time.Millisecond,
		},
	}
}

func (f *fixture) v2() orchestrator.ChallengeOrchestrator {
	return orchestrator.NewV2(f.deps())
}

// createChallenge runs a create that ends in a 3DS2 challenge.
func (f *fixture) createChallenge(t *testing.T, o orchestrator.ChallengeOrchestrator, features model.FeatureSet) *model.PaymentSession {
	t.Helper()
	ps, err := o.CreatePaymentSession(context.Background(), purchase(cardPI.ID), features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ps.IsChallengeRequired {
		t.Fatalf("expected challenge, got status %s", ps.Status)
	}
	return ps
}

func (f *fixture) stored(t *testing.T, sessionID string) *model.StoredSession {
	t.Helper()
	s := f.sessions.Stored(sessionID)
	if s == nil {
		t.Fatalf("session %s was not stored", sessionID)
	}
	return s
}

var (
	cardPI = &model.PaymentInstrument{
		ID:                "pi_card",
		AccountID:         testAccountID,
		Family:            model.PaymentMethodFamilyCreditCard,
		Type:              "visa",
		RequiredChallenge: []string{model.RequiredChallenge3DS2},
	}
	plainCardPI = &model.PaymentInstrument{
		ID:        "pi_plain_card",
		AccountID: testAccountID,
		Family:    model.PaymentMethodFamilyCreditCard,
		Type:      "mc",
	}
	walletPI = &model.PaymentInstrument{
		ID:        "pi_wallet",
		AccountID: testAccountID,
		Family:    model.PaymentMethodFamilyEWallet,
		Type:      "paypal",
	}
	applePayPI = &model.PaymentInstrument{
		ID:         "pi_applepay",
		AccountID:  testAccountID,
		Family:     model.PaymentMethodFamilyEWallet,
		Type:       model.PaymentMethodTypeApplePay,
		WalletType: model.PaymentMethodTypeApplePay,
	}
)

func purchase(piid string) *model.PaymentSessionData {
	return &model.PaymentSessionData{
		PaymentInstrumentID: piid,
		AccountID:           testAccountID,
		Language:            "en-US",
		Amount:              25,
		Currency:            "eur",
		Country:             "de",
		Partner:             "storefront",
		ChallengeScenario:   model.ChallengeScenarioPaymentTransaction,
		ChallengeWindowSize: "03",
		DeviceChannel:       model.DeviceChannelBrowser,
		SuccessURL:          "https://shop.example.com/ok",
		FailureURL:          "https://shop.example.com/fail",
		Settings:            model.PartnerSettings{PSD2Enabled: true},
	}
}

func browserInfo() *model.BrowserInfo {
	return &model.BrowserInfo{
		AcceptHeader:      "text/html",
		IPAddress:         "203.0.113.7",
		JavaScriptEnabled: true,
		Language:          "en-US",
		ColorDepth:        "24",
		ScreenHeight:      "1080",
		ScreenWidth:       "1920",
		TimeZone:          "-60",
		UserAgent:         "Mozilla/5.0",
		ChallengeWindow:   "05",
	}
}

func assertSigned(t *testing.T, signer model.SessionSigner, ps *model.PaymentSession) {
	t.Helper()
	if err := ps.VerifySignature(signer); err != nil {
		t.Errorf("session %s signature does not verify: %v", ps.ID, err)
	}
}
