package model_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

func TestNewFeatureSet(t *testing.T) {
	t.Run("drops blanks and case-insensitive duplicates", func(t *testing.T) {
		fs := model.NewFeatureSet("PXPSD2SkipFingerprint", " ", "", "pxpsd2skipfingerprint", "PXReturnFailedSessionState")

		if fs.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", fs.Len())
		}
		flags := fs.Flags()
		if flags[0] != "PXPSD2SkipFingerprint" || flags[1] != "PXReturnFailedSessionState" {
			t.Errorf("Flags() = %v, want first-seen order", flags)
		}
	})

	t.Run("lookup ignores case", func(t *testing.T) {
		fs := model.NewFeatureSet("pxusepaymentsessionshandlerv2")

		if !fs.Has(model.FlagUsePaymentSessionsHandlerV2) {
			t.Error("Has() = false, want true")
		}
		if fs.Has(model.FlagSkipFingerprint) {
			t.Error("Has() = true for a flag that is not set")
		}
	})

	t.Run("empty set", func(t *testing.T) {
		fs := model.NewFeatureSet()
		if !fs.IsEmpty() {
			t.Error("IsEmpty() = false, want true")
		}
	})

	t.Run("Flags returns a copy", func(t *testing.T) {
		fs := model.NewFeatureSet("A")
		flags := fs.Flags()
		flags[0] = "B"
		if !fs.Has("A") {
			t.Error("mutating Flags() changed the set")
		}
	})

	t.Run("With leaves the receiver unchanged", func(t *testing.T) {
		base := model.NewFeatureSet("A")
		extended := base.With("B", "a")

		if base.Has("B") {
			t.Error("With() mutated the receiver")
		}
		if extended.Len() != 2 {
			t.Errorf("extended Len() = %d, want 2", extended.Len())
		}
	})
}

func TestFeatureSet_SettingVersion(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		want  int
		trust string
	}{
		{"default", nil, model.DefaultSettingVersion, "V17"},
		{"single", []string{"PXPSD2SettingVersionV25"}, 25, "V25"},
		{"highest wins", []string{"PXPSD2SettingVersionV19", "PXPSD2SettingVersionV30", "PXPSD2SettingVersionV21"}, 30, "V30"},
		{"below trust minimum", []string{"PXPSD2SettingVersionV12"}, 12, "V17"},
		{"case insensitive", []string{"pxpsd2settingversionv20"}, 20, "V20"},
		{"malformed ignored", []string{"PXPSD2SettingVersionVx", "PXPSD2SettingVersion21"}, model.DefaultSettingVersion, "V17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := model.NewFeatureSet(tt.flags...)
			if got := fs.SettingVersion(); got != tt.want {
				t.Errorf("SettingVersion() = %d, want %d", got, tt.want)
			}
			if got := fs.TrustVersion(); got != tt.trust {
				t.Errorf("TrustVersion() = %s, want %s", got, tt.trust)
			}
		})
	}
}

func TestFeatureSet_JSON(t *testing.T) {
	fs := model.NewFeatureSet("A", "B")

	data, err := json.Marshal(fs)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `["A","B"]` {
		t.Errorf("Marshal() = %s", data)
	}

	var got model.FeatureSet
	if err := json.Unmarshal([]byte(`["A","a","",  "C"]`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Len() != 2 || !got.Has("C") {
		t.Errorf("Unmarshal() = %v, want [A C]", got.Flags())
	}
}

func TestFeaturesFromContext(t *testing.T) {
	if got := model.FeaturesFromContext(context.Background()); len(got.Flags()) != 0 {
		t.Errorf("expected empty set, got %v", got.Flags())
	}

	ctx := model.ContextWithFeatures(context.Background(), model.NewFeatureSet("PSD2SafetyNet-GetSession-503-Unavailable"))
	if !model.FeaturesFromContext(ctx).Has("psd2safetynet-getsession-503-unavailable") {
		t.Error("expected request flag from context")
	}
}
