package query

import "context"

// Query reads payment session state without changing it. QueryName is the
// dotted name used in logs.
type Query interface {
	QueryName() string
}

// Handler answers one query type. GetPaymentSessionHandler and
// GetChallengeRedirectHandler are instantiations of it.
type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, qry Q) (R, error)
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc[Q Query, R any] func(ctx context.Context, qry Q) (R, error)

// Handle calls f(ctx, qry).
func (f HandlerFunc[Q, R]) Handle(ctx context.Context, qry Q) (R, error) {
	return f(ctx, qry)
}
