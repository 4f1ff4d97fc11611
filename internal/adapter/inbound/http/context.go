package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

type contextKey string

const callerKey contextKey = "caller"

var ErrNoCallerInContext = errors.New("no caller in context")

// Caller is the partner that presented the bearer token.
type Caller struct {
	Name      string
	AccountID string
}

// WithCaller adds the authenticated caller to the context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromContext extracts the authenticated caller.
func CallerFromContext(ctx context.Context) (Caller, error) {
	c, ok := ctx.Value(callerKey).(Caller)
	if !ok {
		return Caller{}, ErrNoCallerInContext
	}
	return c, nil
}

// accountIDOrCaller falls back to the account bound to the caller's token.
func accountIDOrCaller(ctx context.Context, accountID string) string {
	if accountID != "" {
		return accountID
	}
	if c, err := CallerFromContext(ctx); err == nil {
		return c.AccountID
	}
	return ""
}

// requestFeatures exposes the X-Flights header to every round.
func requestFeatures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		features := model.NewFeatureSet(splitHeader(r, HeaderFlights)...)
		next.ServeHTTP(w, r.WithContext(model.ContextWithFeatures(r.Context(), features)))
	})
}
