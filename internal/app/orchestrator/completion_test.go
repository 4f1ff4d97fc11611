package orchestrator_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	"github.com/0xsj/overwatch-payments/internal/app/service"
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
)

func TestCompleteChallenge(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticated completion is post-processed", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.FeatureSet{})
		f.auth.Completion = &model.CompletionResult{TransStatus: model.TransactionStatusY}

		done, err := o.CompleteChallenge(ctx, testAccountID, ps.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if done.Status != model.ChallengeStatusSucceeded {
			t.Errorf("status mismatch: got %s", done.Status)
		}
		if f.instruments.Linked[cardPI.ID] != ps.ID {
			t.Error("expected session to be linked")
		}
		got := f.attestation.Attestations()
		if len(got) != 1 || !got[0].Verified || got[0].AccountID != testAccountID {
			t.Errorf("expected one verified attestation, got %+v", got)
		}
	})

	t.Run("completion failure is swallowed", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.FeatureSet{})
		f.auth.Errors.CompleteChallenge = &gateway.ServiceError{
			Service:    "authentication",
			StatusCode: http.StatusBadGateway,
			ErrorCode:  "AcsUnavailable",
		}

		done, err := o.CompleteChallenge(ctx, "", ps.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if done.Status != model.ChallengeStatusSucceeded {
			t.Errorf("status mismatch: got %s", done.Status)
		}
		if s := f.stored(t, ps.ID); !s.IsSystemError {
			t.Error("expected system error recorded")
		}
		if len(f.attestation.Attestations()) != 1 {
			t.Error("system error must be attested")
		}
	})

	t.Run("excluded completion failure surfaces", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.NewFeatureSet("PSD2SafetyNet-Completion-502-AcsUnavailable"))
		f.auth.Errors.CompleteChallenge = &gateway.ServiceError{
			Service:    "authentication",
			StatusCode: http.StatusBadGateway,
			ErrorCode:  "AcsUnavailable",
		}

		_, err := o.CompleteChallenge(ctx, "", ps.ID)
		if !service.IsExcluded(err) {
			t.Errorf("expected excluded error, got %v", err)
		}
	})

	t.Run("unknown session is attested", func(t *testing.T) {
		f := newFixture(t)

		done, err := f.v2().CompleteChallenge(ctx, testAccountID, "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if done.ID != "missing" || done.Status != model.ChallengeStatusSucceeded {
			t.Errorf("unexpected safety net session %+v", done)
		}
		got := f.attestation.Attestations()
		if len(got) != 1 || got[0].SessionID != "missing" {
			t.Errorf("expected attestation for missing session, got %+v", got)
		}
	})

	t.Run("completion rule from frozen features", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.NewFeatureSet("PXPSD2Comp-Y-_-_-Failed"))
		f.auth.Completion = &model.CompletionResult{TransStatus: model.TransactionStatusY}

		done, err := o.CompleteChallenge(ctx, "", ps.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if done.Status != model.ChallengeStatusFailed {
			t.Errorf("status mismatch: got %s, want %s", done.Status, model.ChallengeStatusFailed)
		}
	})
}

func TestThreeDSOneFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("redirect then authenticated", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.FeatureSet{})
		f.auth.ThreeDSOneResult = &model.ThreeDSOneAuthenticationResult{
			TransStatus: model.TransactionStatusC,
			RedirectURL: "https://acs.example.com/3ds1",
			FormFields:  map[string]string{"PaReq": "abc"},
		}

		challenge, err := o.AuthenticateThreeDSOne(ctx, ps.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if challenge.RedirectURL != "https://acs.example.com/3ds1" || challenge.FormFields["PaReq"] != "abc" {
			t.Errorf("unexpected challenge %+v", challenge)
		}
		req := f.auth.LastAuthentication
		if req.MessageVersion != "1.0.2" {
			t.Errorf("message version mismatch: got %s", req.MessageVersion)
		}
		if req.NotificationURL != testNotificationBase+"/paymentSessions/"+ps.ID+"/BrowserNotifyThreeDSOneChallengeCompleted" {
			t.Errorf("unexpected notification url %s", req.NotificationURL)
		}
		if s := f.stored(t, ps.ID); s.AuthenticationResponse == nil || s.AuthenticationResponse.ACSURL != challenge.RedirectURL {
			t.Error("expected redirect to be stored")
		}

		f.auth.ThreeDSOneCompletion = &model.CompletionResult{TransStatus: model.TransactionStatusY}
		done, err := o.CompleteThreeDSOneChallenge(ctx, "", ps.ID, map[string]string{"PaRes": "xyz"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if done.Status != model.ChallengeStatusSucceeded {
			t.Errorf("status mismatch: got %s", done.Status)
		}
		if f.auth.LastCompletion.AuthorizationParameters["PaRes"] != "xyz" {
			t.Error("expected authorization parameters forwarded")
		}
		if len(f.attestation.Attestations()) != 1 {
			t.Error("expected verified purchase to be attested")
		}
	})

	t.Run("not enrolled fails", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.FeatureSet{})
		f.auth.ThreeDSOneResult = &model.ThreeDSOneAuthenticationResult{TransStatus: model.TransactionStatusN}

		challenge, err := o.AuthenticateThreeDSOne(ctx, ps.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if challenge.PaymentSession.Status != model.ChallengeStatusFailed || challenge.RedirectURL != "" {
			t.Errorf("unexpected challenge %+v", challenge)
		}
	})

	t.Run("unreadable session is not attested", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()

		challenge, err := o.AuthenticateThreeDSOne(ctx, "ps_missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if challenge.PaymentSession == nil || challenge.PaymentSession.ID != "ps_missing" {
			t.Errorf("expected safety net session, got %+v", challenge.PaymentSession)
		}
		if n := len(f.attestation.Attestations()); n != 0 {
			t.Errorf("expected no attestation, got %d", n)
		}
		if f.auth.Calls.AuthenticateThreeDSOne != 0 {
			t.Error("provider must not be called")
		}
	})

	t.Run("completion failure is an internal error", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.FeatureSet{})
		f.auth.Errors.CompleteThreeDSOneChallenge = errors.New("provider down")

		done, err := o.CompleteThreeDSOneChallenge(ctx, "", ps.ID, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if done.Status != model.ChallengeStatusInternalServerError {
			t.Errorf("status mismatch: got %s, want %s", done.Status, model.ChallengeStatusInternalServerError)
		}
	})
}

func TestAuthenticateApp(t *testing.T) {
	ctx := context.Background()
	appRequest := &model.AppAuthenticationRequest{
		SDK: model.SDKInfo{
			AppID:              "app-1",
			TransID:            "sdk-tx-1",
			EphemeralPublicKey: `{"kty":"EC"}`,
		},
		Language: "de-DE",
	}

	t.Run("challenge required", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.FeatureSet{})
		result := challengeResult(model.TransactionStatusC)
		result.MessageVersion = ""
		result.ACSSignedContent = "signed"
		f.auth.AuthResult = result

		resp, err := o.AuthenticateApp(ctx, "", ps.ID, appRequest)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.ChallengeStatus != model.ChallengeStatusUnknown || resp.ACSSignedContent != "signed" {
			t.Errorf("unexpected response %+v", resp)
		}
		if resp.MessageVersion != model.DefaultMessageVersion {
			t.Errorf("message version mismatch: got %s", resp.MessageVersion)
		}
		if resp.DisplayStrings[service.DisplayChallengePageHeader] != "Sicherer Bezahlvorgang" {
			t.Errorf("expected german display strings, got %v", resp.DisplayStrings)
		}
		req := f.auth.LastAuthentication
		if req.DeviceChannel != model.DeviceChannelApp || req.SDK == nil || req.SDK.TransID != "sdk-tx-1" {
			t.Errorf("unexpected authenticate request %+v", req)
		}
		if len(f.attestation.Attestations()) != 0 {
			t.Error("pending challenge must not be attested")
		}
	})

	t.Run("preferred challenge indicator", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.NewFeatureSet(model.FlagEnforcePreferredChallengeIndicator))
		f.auth.AuthResult = challengeResult(model.TransactionStatusY)

		resp, err := o.AuthenticateApp(ctx, "", ps.ID, appRequest)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.ChallengeStatus != model.ChallengeStatusSucceeded {
			t.Errorf("status mismatch: got %s", resp.ChallengeStatus)
		}
		if f.auth.LastAuthentication.ChallengeIndicator != model.ChallengeIndicatorChallengeRequested {
			t.Errorf("indicator mismatch: got %s", f.auth.LastAuthentication.ChallengeIndicator)
		}
	})

	t.Run("failure is bypassed", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		ps := f.createChallenge(t, o, model.FeatureSet{})
		f.auth.Errors.Authenticate = errors.New("timeout")

		resp, err := o.AuthenticateApp(ctx, "", ps.ID, appRequest)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.EnrollmentStatus != model.EnrollmentStatusBypassed || resp.ChallengeStatus != model.ChallengeStatusSucceeded {
			t.Errorf("unexpected response %+v", resp)
		}
		if s := f.stored(t, ps.ID); !s.IsSystemError {
			t.Error("expected system error recorded")
		}
	})
}

func TestQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("missing session reads as nil", func(t *testing.T) {
		f := newFixture(t)

		ps, err := f.v2().TryGetPaymentSession(ctx, "missing")
		if err != nil || ps != nil {
			t.Errorf("expected nil session, got %+v, %v", ps, err)
		}
	})

	t.Run("request flags exclude session read failures", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.Errors.Get = &gateway.ServiceError{StatusCode: http.StatusServiceUnavailable, ErrorCode: "Unavailable"}

		ps, err := f.v2().TryGetPaymentSession(ctx, "ps_down")
		if err != nil || ps != nil {
			t.Fatalf("expected swallowed failure, got %+v, %v", ps, err)
		}

		flagged := model.ContextWithFeatures(ctx, model.NewFeatureSet("PSD2SafetyNet-GetSession-503-Unavailable"))
		_, err = f.v2().TryGetPaymentSession(flagged, "ps_down")
		if !service.IsExcluded(err) {
			t.Errorf("expected excluded error, got %v", err)
		}

		_, err = orchestrator.NewV1(f.deps()).CompleteChallenge(flagged, testAccountID, "ps_down")
		if !service.IsExcluded(err) {
			t.Errorf("expected excluded error from v1 completion, got %v", err)
		}
		if len(f.attestation.Attestations()) != 0 {
			t.Error("excluded read must not attest")
		}
	})

	t.Run("stored session carries display message", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		created := f.createChallenge(t, o, model.FeatureSet{})
		f.auth.AuthResult = challengeResult(model.TransactionStatusC)
		if _, err := o.AuthenticateBrowser(ctx, created.ID, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ps, err := o.TryGetPaymentSession(ctx, created.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ps.UserDisplayMessage != "Contact your bank" {
			t.Errorf("display message mismatch: got %q", ps.UserDisplayMessage)
		}
		assertSigned(t, f.signer, ps)
	})

	t.Run("redirect after rejection", func(t *testing.T) {
		f := newFixture(t, cardPI)
		o := f.v2()
		created := f.createChallenge(t, o, model.FeatureSet{})
		f.auth.Completion = &model.CompletionResult{TransStatus: model.TransactionStatusR}
		if _, err := o.CompleteChallenge(ctx, "", created.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		target, err := o.GetChallengeRedirectURI(ctx, created.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		u, err := url.Parse(target)
		if err != nil {
			t.Fatalf("invalid redirect: %v", err)
		}
		if u.Host != "shop.example.com" || u.Path != "/fail" {
			t.Errorf("expected failure url, got %s", target)
		}
		q := u.Query()
		if q.Get("errorCode") != "RejectedByProvider" || q.Get("challengeStatus") != "Failed" {
			t.Errorf("unexpected query %v", q)
		}
	})

	t.Run("redirect for unknown session", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.v2().GetChallengeRedirectURI(ctx, "missing")
		if !errors.Is(err, domainerror.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestChallengeRedirectURI(t *testing.T) {
	base := model.PaymentSession{
		ID:                  "ps_1",
		PaymentInstrumentID: "pi_1",
		SuccessURL:          "https://shop.example.com/ok?cart=7",
		FailureURL:          "https://shop.example.com/fail",
	}

	t.Run("success", func(t *testing.T) {
		ps := base
		ps.Status = model.ChallengeStatusSucceeded

		target, err := orchestrator.ChallengeRedirectURI(&ps, "ignored")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		u, _ := url.Parse(target)
		q := u.Query()
		if u.Path != "/ok" || q.Get("cart") != "7" || q.Get("sessionId") != "ps_1" || q.Get("piid") != "pi_1" {
			t.Errorf("unexpected redirect %s", target)
		}
		if q.Has("userDisplayMessage") {
			t.Error("success redirect must not carry a display message")
		}
	})

	t.Run("internal error", func(t *testing.T) {
		ps := base
		ps.Status = model.ChallengeStatusInternalServerError

		target, err := orchestrator.ChallengeRedirectURI(&ps, "Try again")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		u, _ := url.Parse(target)
		q := u.Query()
		if q.Get("errorCode") != "InternalServerError" || q.Get("userDisplayMessage") != "Try again" {
			t.Errorf("unexpected redirect %s", target)
		}
	})
}
