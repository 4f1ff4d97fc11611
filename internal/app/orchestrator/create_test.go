package orchestrator_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/0xsj/overwatch-payments/internal/app/service"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/event"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
)

func TestCreatePaymentSession(t *testing.T) {
	ctx := context.Background()

	t.Run("not applicable when psd2 is off", func(t *testing.T) {
		f := newFixture(t, cardPI)
		data := purchase(cardPI.ID)
		data.Settings.PSD2Enabled = false

		ps, err := f.v2().CreatePaymentSession(ctx, data, model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.IsChallengeRequired || ps.Status != model.ChallengeStatusNotApplicable {
			t.Errorf("expected not applicable, got required=%v status=%s", ps.IsChallengeRequired, ps.Status)
		}
		if f.instruments.Calls.GetInstrument != 0 {
			t.Error("instrument service should not be called")
		}
		assertSigned(t, f.signer, ps)
	})

	t.Run("non card instrument is not applicable", func(t *testing.T) {
		f := newFixture(t, walletPI)

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(walletPI.ID), model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.IsChallengeRequired {
			t.Error("expected no challenge")
		}
		if ps.Status != model.ChallengeStatusNotApplicable {
			t.Errorf("status mismatch: got %s, want %s", ps.Status, model.ChallengeStatusNotApplicable)
		}
		if ps.ID == "" {
			t.Error("expected a generated session id")
		}
		if f.sessions.Count() != 0 {
			t.Errorf("expected nothing stored, got %d sessions", f.sessions.Count())
		}
	})

	t.Run("3ds2 card requires psd2 challenge", func(t *testing.T) {
		f := newFixture(t, cardPI)

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(cardPI.ID), model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ps.IsChallengeRequired {
			t.Error("expected challenge to be required")
		}
		if ps.Status != model.ChallengeStatusUnknown {
			t.Errorf("status mismatch: got %s, want %s", ps.Status, model.ChallengeStatusUnknown)
		}
		if ps.ChallengeType != model.ChallengeTypePSD2 {
			t.Errorf("challenge type mismatch: got %s, want %s", ps.ChallengeType, model.ChallengeTypePSD2)
		}
		if ps.ID != testProtocolSessionID {
			t.Errorf("session id mismatch: got %s, want %s", ps.ID, testProtocolSessionID)
		}
		assertSigned(t, f.signer, ps)

		s := f.stored(t, ps.ID)
		if s.HandlerVersion != model.HandlerVersionV2 {
			t.Errorf("handler version mismatch: got %s", s.HandlerVersion)
		}
		if s.PIAccountID != testAccountID || s.PaymentMethodType != "visa" {
			t.Errorf("instrument details not captured: %+v", s)
		}
		if !s.PIRequiresAuthentication {
			t.Error("expected PIRequiresAuthentication")
		}
		if len(f.publisher.EventsByType(event.EventTypePaymentSessionCreated)) != 1 {
			t.Error("expected one created event")
		}
		if len(f.attestation.Attestations()) != 0 {
			t.Error("challenged purchase must not be attested at creation")
		}
	})

	t.Run("card without requirement is stored not applicable", func(t *testing.T) {
		f := newFixture(t, plainCardPI)

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(plainCardPI.ID), model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.IsChallengeRequired || ps.Status != model.ChallengeStatusNotApplicable {
			t.Errorf("expected not applicable, got %s", ps.Status)
		}
		if s := f.stored(t, ps.ID); s.Status != model.ChallengeStatusNotApplicable {
			t.Errorf("stored status mismatch: got %s", s.Status)
		}
	})

	t.Run("pretend flag forces 3ds2", func(t *testing.T) {
		f := newFixture(t, plainCardPI)

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(plainCardPI.ID), model.NewFeatureSet(model.FlagPretendPIMSReturned3DS2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.ChallengeType != model.ChallengeTypePSD2 || !ps.IsChallengeRequired {
			t.Errorf("expected psd2 challenge, got %s required=%v", ps.ChallengeType, ps.IsChallengeRequired)
		}
	})

	t.Run("jcb without display flag skips challenge and attests", func(t *testing.T) {
		jcb := &model.PaymentInstrument{
			ID:                "pi_jcb",
			AccountID:         testAccountID,
			Family:            model.PaymentMethodFamilyCreditCard,
			Type:              model.PaymentMethodTypeJCB,
			RequiredChallenge: []string{model.RequiredChallenge3DS2},
		}
		f := newFixture(t, jcb)

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(jcb.ID), model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.IsChallengeRequired || ps.Status != model.ChallengeStatusNotApplicable {
			t.Errorf("expected not applicable, got %s", ps.Status)
		}
		got := f.attestation.Attestations()
		if len(got) != 1 || !got[0].Verified || got[0].SessionID != ps.ID {
			t.Errorf("expected one verified attestation for %s, got %+v", ps.ID, got)
		}
	})

	t.Run("missing account is a validation error", func(t *testing.T) {
		f := newFixture(t, cardPI)
		data := purchase(cardPI.ID)
		data.AccountID = ""

		_, err := f.v2().CreatePaymentSession(ctx, data, model.FeatureSet{})
		if !errors.Is(err, domainerror.ErrAccountIDRequired) {
			t.Errorf("expected ErrAccountIDRequired, got %v", err)
		}
	})

	t.Run("unauthorized moto is rejected", func(t *testing.T) {
		f := newFixture(t, cardPI)
		data := purchase(cardPI.ID)
		data.IsMOTO = true

		_, err := f.v2().CreatePaymentSession(ctx, data, model.FeatureSet{})
		if !errors.Is(err, domainerror.ErrUnauthorizedMotoPaymentSession) {
			t.Errorf("expected ErrUnauthorizedMotoPaymentSession, got %v", err)
		}
	})

	t.Run("unknown instrument surfaces as not found", func(t *testing.T) {
		f := newFixture(t, cardPI)
		f.instruments.Errors.GetInstrument = &gateway.ServiceError{
			Service:    "instruments",
			StatusCode: http.StatusNotFound,
			ErrorCode:  gateway.ErrorCodeAccountPINotFound,
		}

		_, err := f.v2().CreatePaymentSession(ctx, purchase(cardPI.ID), model.FeatureSet{})
		if !errors.Is(err, domainerror.ErrPaymentInstrumentNotFound) {
			t.Errorf("expected ErrPaymentInstrumentNotFound, got %v", err)
		}
	})

	t.Run("protocol session failure falls back", func(t *testing.T) {
		f := newFixture(t, cardPI)
		f.auth.Errors.CreateSessionID = &gateway.ServiceError{
			Service:    "authentication",
			StatusCode: http.StatusBadGateway,
			ErrorCode:  "Upstream",
		}

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(cardPI.ID), model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.IsChallengeRequired || ps.Status != model.ChallengeStatusNotApplicable {
			t.Errorf("expected safety net session, got %s", ps.Status)
		}
		if f.sessions.Count() != 0 {
			t.Error("safety net session must not be stored")
		}
		assertSigned(t, f.signer, ps)
	})

	t.Run("excluded protocol session failure surfaces", func(t *testing.T) {
		f := newFixture(t, cardPI)
		f.auth.Errors.CreateSessionID = &gateway.ServiceError{
			Service:    "authentication",
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "InvalidRequest",
		}
		features := model.NewFeatureSet("PSD2SafetyNet-CreatePS-400-InvalidRequest")

		_, err := f.v2().CreatePaymentSession(ctx, purchase(cardPI.ID), features)
		if !service.IsExcluded(err) {
			t.Errorf("expected excluded error, got %v", err)
		}
	})

	t.Run("moto purchase is bypassed and attested", func(t *testing.T) {
		f := newFixture(t, cardPI)
		data := purchase(cardPI.ID)
		data.IsMOTO = true
		data.IsMotoAuthorized = "true"

		ps, err := f.v2().CreatePaymentSession(ctx, data, model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.IsChallengeRequired || ps.Status != model.ChallengeStatusByPassed {
			t.Errorf("expected bypassed, got %s", ps.Status)
		}
		if f.auth.Calls.Authenticate != 1 || !f.auth.LastAuthentication.IsMOTO {
			t.Error("expected one MOTO authenticate call")
		}
		if f.instruments.Linked[cardPI.ID] != ps.ID {
			t.Errorf("expected session linked to instrument, got %v", f.instruments.Linked)
		}
		if f.instruments.Calls.LinkSession != 2 {
			t.Errorf("expected post-processing twice, got %d", f.instruments.Calls.LinkSession)
		}
		got := f.attestation.Attestations()
		if len(got) != 1 || !got[0].Verified {
			t.Errorf("expected one verified attestation, got %+v", got)
		}
		if s := f.stored(t, ps.ID); s.Status != model.ChallengeStatusByPassed {
			t.Errorf("stored status mismatch: got %s", s.Status)
		}
	})

	t.Run("duplicate post-processing can be skipped", func(t *testing.T) {
		f := newFixture(t, cardPI)
		data := purchase(cardPI.ID)
		data.IsMOTO = true
		data.IsMotoAuthorized = "true"

		_, err := f.v2().CreatePaymentSession(ctx, data, model.NewFeatureSet(model.FlagSkipDuplicatePostProcessForMotoRewards))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.instruments.Calls.LinkSession != 1 {
			t.Errorf("expected post-processing once, got %d", f.instruments.Calls.LinkSession)
		}
	})

	t.Run("store write is retried once", func(t *testing.T) {
		f := newFixture(t, cardPI)
		f.sessions.Errors.Create = errors.New("transient")
		f.sessions.FailCreates = 1

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(cardPI.ID), model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.sessions.Calls.Create != 2 {
			t.Errorf("expected 2 create attempts, got %d", f.sessions.Calls.Create)
		}
		f.stored(t, ps.ID)
	})

	t.Run("store failure falls back", func(t *testing.T) {
		f := newFixture(t, cardPI)
		f.sessions.Errors.Create = errors.New("down")
		f.sessions.FailCreates = -1

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(cardPI.ID), model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.IsChallengeRequired || ps.Status != model.ChallengeStatusNotApplicable {
			t.Errorf("expected safety net session, got %s", ps.Status)
		}
	})

	t.Run("instrument session is recorded", func(t *testing.T) {
		f := newFixture(t, cardPI)

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(cardPI.ID), model.NewFeatureSet(model.FlagEnablePSD2PaymentInstrumentSession))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		record, err := f.piSessions.Get(ctx, cardPI.ID)
		if err != nil {
			t.Fatalf("expected instrument session: %v", err)
		}
		if record.SessionID != ps.ID || record.AccountID != testAccountID {
			t.Errorf("record mismatch: %+v", record)
		}
	})

	t.Run("apple pay starts validate on attach", func(t *testing.T) {
		f := newFixture(t, applePayPI)

		ps, err := f.v2().CreatePaymentSession(ctx, purchase(applePayPI.ID), model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.ChallengeType != model.ChallengeTypeValidatePIOnAttach || !ps.IsChallengeRequired {
			t.Errorf("expected validate on attach challenge, got %s", ps.ChallengeType)
		}
		if !ps.IsTokenCollected {
			t.Error("expected token collected")
		}
		s := f.stored(t, ps.ID)
		if !strings.HasSuffix(s.ProtocolSessionID, "_init") {
			t.Errorf("expected placeholder protocol session, got %s", s.ProtocolSessionID)
		}
		if f.auth.Calls.CreateSessionID != 0 {
			t.Error("no protocol session should be created")
		}
	})

	t.Run("request owned purchase", func(t *testing.T) {
		f := newFixture(t, cardPI)
		data := purchase(cardPI.ID)
		data.AccountID = ""
		data.RequestContext = &model.RequestContext{RequestID: "req_1", TenantID: "tenant_1"}

		ps, err := f.v2().CreatePaymentSession(ctx, data, model.FeatureSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ps.IsChallengeRequired || ps.Status != model.ChallengeStatusUnknown {
			t.Errorf("expected challenge, got %s", ps.Status)
		}
		s := f.stored(t, ps.ID)
		if !s.IsPaaS() || s.TenantID != "tenant_1" {
			t.Errorf("request context not captured: %+v", s)
		}
		if f.instruments.Calls.GetInstrument != 0 {
			t.Error("ownership is not checked for request owned purchases")
		}
	})
}
