package model_test

import (
	"errors"
	"testing"

	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

func TestChallengeStatus_IsAuthenticationVerified(t *testing.T) {
	verified := map[model.ChallengeStatus]bool{
		model.ChallengeStatusSucceeded:     true,
		model.ChallengeStatusByPassed:      true,
		model.ChallengeStatusNotApplicable: true,
	}

	for _, s := range model.ChallengeStatuses() {
		t.Run(s.String(), func(t *testing.T) {
			if got := s.IsAuthenticationVerified(); got != verified[s] {
				t.Errorf("IsAuthenticationVerified() = %v, want %v", got, verified[s])
			}
			if !s.IsValid() {
				t.Error("IsValid() = false for a declared status")
			}
		})
	}
}

func TestParseChallengeStatus(t *testing.T) {
	t.Run("case insensitive", func(t *testing.T) {
		got, ok := model.ParseChallengeStatus(" timedout ")
		if !ok || got != model.ChallengeStatusTimedOut {
			t.Errorf("ParseChallengeStatus() = %q, %v", got, ok)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if _, ok := model.ParseChallengeStatus("Approved"); ok {
			t.Error("ParseChallengeStatus() accepted an unknown status")
		}
	})

	t.Run("ChallengeStatuses returns a copy", func(t *testing.T) {
		all := model.ChallengeStatuses()
		all[0] = "changed"
		if model.ChallengeStatuses()[0] != model.ChallengeStatusUnknown {
			t.Error("mutating ChallengeStatuses() leaked")
		}
	})
}

func TestHandlerVersion_IsValid(t *testing.T) {
	if !model.HandlerVersionV1.IsValid() || !model.HandlerVersionV2.IsValid() {
		t.Error("declared versions should be valid")
	}
	if model.HandlerVersion("V3").IsValid() || model.HandlerVersion("").IsValid() {
		t.Error("undeclared versions should be invalid")
	}
}

func TestParseTransactionStatus(t *testing.T) {
	tests := map[string]model.TransactionStatus{
		"y":   model.TransactionStatusY,
		" C ": model.TransactionStatusC,
		"fr":  model.TransactionStatusFR,
		"ZZ":  model.TransactionStatus("ZZ"),
		"":    model.TransactionStatus(""),
	}
	for in, want := range tests {
		if got := model.ParseTransactionStatus(in); got != want {
			t.Errorf("ParseTransactionStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCancelIndicator(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		got, ok := model.ParseCancelIndicator("transactiontimedout")
		if !ok || got != model.CancelIndicatorTransactionTimedOut {
			t.Errorf("ParseCancelIndicator() = %q, %v", got, ok)
		}
		if _, ok := model.ParseCancelIndicator(""); ok {
			t.Error("empty indicator should not parse")
		}
		if _, ok := model.ParseCancelIndicator("01"); ok {
			t.Error("numeric code should not parse")
		}
	})

	t.Run("classification", func(t *testing.T) {
		if !model.CancelIndicatorTransactionCReqTimedOut.IsTimeout() {
			t.Error("CReq timeout should be a timeout")
		}
		if model.CancelIndicatorTransactionTimedOut.IsCancellation() {
			t.Error("a timeout is not a cancellation")
		}
		if !model.CancelIndicatorTransactionAbandoned.IsCancellation() {
			t.Error("abandoned should be a cancellation")
		}
		if model.CancelIndicatorTransactionError.IsTimeout() || model.CancelIndicatorTransactionError.IsCancellation() {
			t.Error("transaction error is neither")
		}
	})
}

func TestLookupChallengeWindow(t *testing.T) {
	w, err := model.LookupChallengeWindow("05")
	if err != nil {
		t.Fatalf("LookupChallengeWindow() error = %v", err)
	}
	if w.Width != "100%" || w.Height != "100%" {
		t.Errorf("window 05 = %+v", w)
	}

	w, err = model.LookupChallengeWindow("02")
	if err != nil || w.Width != "390px" || w.Height != "400px" {
		t.Errorf("window 02 = %+v, %v", w, err)
	}

	_, err = model.LookupChallengeWindow("06")
	if !errors.Is(err, domainerror.ErrChallengeWindowSizeInvalid) {
		t.Errorf("error = %v, want ErrChallengeWindowSizeInvalid", err)
	}
}
