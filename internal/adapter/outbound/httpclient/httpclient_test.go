package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
)

func newEndpoint(t *testing.T, handler http.HandlerFunc) Endpoint {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return Endpoint{BaseURL: srv.URL, Timeout: 2 * time.Second, BearerToken: "tok"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestInstrumentService(t *testing.T) {
	ctx := context.Background()

	t.Run("get instrument", func(t *testing.T) {
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/acct_1/paymentInstruments/pi_1", r.URL.Path)
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "v4.0", r.Header.Get(headerAPIVersion))
			assert.NotEmpty(t, r.Header.Get(headerRequestID))
			writeJSON(w, http.StatusOK, model.PaymentInstrument{ID: "pi_1", Family: "credit_card", Type: "visa"})
		})

		pi, err := NewInstrumentService(ep, log.NewNoop()).GetInstrument(ctx, "acct_1", "pi_1")

		require.NoError(t, err)
		assert.Equal(t, "pi_1", pi.ID)
		assert.True(t, pi.IsCreditCard())
	})

	t.Run("ownership error carries the service code", func(t *testing.T) {
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, errorResponse{ErrorCode: gateway.ErrorCodeAccountPINotFound, Message: "no such instrument"})
		})

		_, err := NewInstrumentService(ep, log.NewNoop()).GetInstrument(ctx, "acct_1", "pi_1")

		se, ok := gateway.AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, instrumentServiceName, se.Service)
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
		assert.Equal(t, gateway.ErrorCodeAccountPINotFound, se.ErrorCode)
	})

	t.Run("non json error body", func(t *testing.T) {
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		})

		_, err := NewInstrumentService(ep, log.NewNoop()).GetExtendedInstrument(ctx, "pi_1")

		se, ok := gateway.AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadGateway, se.StatusCode)
		assert.Equal(t, "upstream down", se.Message)
	})

	t.Run("validate and link", func(t *testing.T) {
		var paths []string
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			if r.URL.Path == "/acct_1/paymentInstruments/pi_1/validate" {
				var req model.ValidationRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "ps_1", req.SessionID)
				writeJSON(w, http.StatusOK, model.ValidationResult{Result: "Failed"})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		svc := NewInstrumentService(ep, log.NewNoop())

		res, err := svc.ValidateInstrument(ctx, &model.ValidationRequest{AccountID: "acct_1", PaymentInstrumentID: "pi_1", SessionID: "ps_1"})
		require.NoError(t, err)
		assert.True(t, res.IsFailed())

		require.NoError(t, svc.LinkSession(ctx, "acct_1", "pi_1", "ps_1"))
		assert.Equal(t, []string{
			"/acct_1/paymentInstruments/pi_1/validate",
			"/acct_1/paymentInstruments/pi_1/LinkTransaction",
		}, paths)
	})
}

func TestAuthenticationService(t *testing.T) {
	ctx := context.Background()

	t.Run("create session id", func(t *testing.T) {
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/CreatePaymentSessionId", r.URL.Path)
			writeJSON(w, http.StatusOK, createSessionResponse{ID: "3ds_1"})
		})

		id, err := NewAuthenticationService(ep, log.NewNoop()).CreateSessionID(ctx, &model.PaymentSessionData{PaymentInstrumentID: "pi_1"})

		require.NoError(t, err)
		assert.Equal(t, "3ds_1", id)
	})

	t.Run("method data without transaction id", func(t *testing.T) {
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, model.MethodData{MethodURL: "https://acs.example/method"})
		})

		_, err := NewAuthenticationService(ep, log.NewNoop()).GetMethodURL(ctx, "3ds_1", nil)

		se, ok := gateway.AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, ErrorCodeMissingParameter, se.ErrorCode)
	})

	t.Run("authenticate checks channel fields", func(t *testing.T) {
		tests := []struct {
			name    string
			channel model.DeviceChannel
			result  model.AuthenticationResult
			wantErr bool
		}{
			{
				name:    "frictionless",
				channel: model.DeviceChannelBrowser,
				result:  model.AuthenticationResult{TransStatus: model.TransactionStatusY, ACSTransID: "acs_1"},
			},
			{
				name:    "bypassed without acs id",
				channel: model.DeviceChannelBrowser,
				result:  model.AuthenticationResult{EnrollmentStatus: model.EnrollmentStatusBypassed},
			},
			{
				name:    "missing acs id",
				channel: model.DeviceChannelBrowser,
				result:  model.AuthenticationResult{TransStatus: model.TransactionStatusY},
				wantErr: true,
			},
			{
				name:    "browser challenge without acs url",
				channel: model.DeviceChannelBrowser,
				result:  model.AuthenticationResult{EnrollmentStatus: model.EnrollmentStatusEnrolled, ACSTransID: "acs_1"},
				wantErr: true,
			},
			{
				name:    "app challenge without signed content",
				channel: model.DeviceChannelApp,
				result:  model.AuthenticationResult{EnrollmentStatus: model.EnrollmentStatusEnrolled, ACSTransID: "acs_1", ThreeDSServerTransID: "tx"},
				wantErr: true,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
					writeJSON(w, http.StatusOK, tt.result)
				})

				_, err := NewAuthenticationService(ep, log.NewNoop()).Authenticate(ctx, &model.AuthenticationRequest{DeviceChannel: tt.channel})

				if tt.wantErr {
					se, ok := gateway.AsServiceError(err)
					require.True(t, ok)
					assert.Equal(t, ErrorCodeMissingParameter, se.ErrorCode)
					return
				}
				assert.NoError(t, err)
			})
		}
	})

	t.Run("three ds one redirect falls back to acs url", func(t *testing.T) {
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"transStatus": "C",
				"acsURL":      "https://acs.example/3ds1",
				"formFields":  map[string]string{"PaReq": "abc"},
			})
		})

		res, err := NewAuthenticationService(ep, log.NewNoop()).AuthenticateThreeDSOne(ctx, &model.AuthenticationRequest{DeviceChannel: model.DeviceChannelBrowser})

		require.NoError(t, err)
		assert.Equal(t, "https://acs.example/3ds1", res.RedirectURL)
		assert.Equal(t, "abc", res.FormFields["PaReq"])
	})

	t.Run("empty completion", func(t *testing.T) {
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/CompleteChallenge", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		})

		_, err := NewAuthenticationService(ep, log.NewNoop()).CompleteChallenge(ctx, &model.CompletionRequest{ProtocolSessionID: "3ds_1"})

		assert.Error(t, err)
	})
}

func TestAttestationService(t *testing.T) {
	ctx := context.Background()

	t.Run("skips without ids", func(t *testing.T) {
		var calls atomic.Int32
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

		err := NewAttestationService(ep, log.NewNoop()).UpdateChallengeAttestation(ctx, "", "ps_1", true)

		require.NoError(t, err)
		assert.Zero(t, calls.Load())
	})

	t.Run("retries once", func(t *testing.T) {
		var calls atomic.Int32
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transactiondata/acct_1/data/ps_1", r.URL.Path)
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			var req attestationRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.True(t, req.AuthenticationVerified)
			w.WriteHeader(http.StatusOK)
		})

		err := NewAttestationService(ep, log.NewNoop()).UpdateChallengeAttestation(ctx, "acct_1", "ps_1", true)

		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("gives up after second failure", func(t *testing.T) {
		var calls atomic.Int32
		ep := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		err := NewAttestationService(ep, log.NewNoop()).UpdateChallengeAttestation(ctx, "acct_1", "ps_1", false)

		se, ok := gateway.AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
		assert.Equal(t, int32(2), calls.Load())
	})
}
