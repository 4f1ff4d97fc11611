package query

import (
	"context"
	"time"

	"github.com/0xsj/overwatch-pkg/errors"
	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/port/inbound/query"
)

type loggingHandler[Q query.Query, R any] struct {
	next   query.Handler[Q, R]
	logger log.Logger
}

// WithLogging wraps next so failed queries are logged.
func WithLogging[Q query.Query, R any](next query.Handler[Q, R], logger log.Logger) query.Handler[Q, R] {
	return &loggingHandler[Q, R]{
		next:   next,
		logger: logger.With(log.Component("query")),
	}
}

func (h *loggingHandler[Q, R]) Handle(ctx context.Context, qry Q) (R, error) {
	start := time.Now()
	res, err := h.next.Handle(ctx, qry)
	if err != nil {
		fields := []log.Field{
			log.String("query", qry.QueryName()),
			log.Duration("duration", time.Since(start)),
			log.Err(err),
		}
		if errors.IsNotFound(err) || errors.IsValidation(err) {
			h.logger.Warn("query rejected", fields...)
		} else {
			h.logger.Error("query failed", fields...)
		}
	}
	return res, err
}
