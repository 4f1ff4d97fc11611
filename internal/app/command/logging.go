package command

import (
	"context"
	"time"

	"github.com/0xsj/overwatch-pkg/errors"
	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/port/inbound/command"
)

const slowCommandThreshold = 2 * time.Second

type loggingHandler[C command.Command, R any] struct {
	next   command.Handler[C, R]
	logger log.Logger
}

// WithLogging wraps next so every command is logged with its duration.
// Caller mistakes log at warn, everything else that fails at error.
func WithLogging[C command.Command, R any](next command.Handler[C, R], logger log.Logger) command.Handler[C, R] {
	return &loggingHandler[C, R]{
		next:   next,
		logger: logger.With(log.Component("command")),
	}
}

func (h *loggingHandler[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	start := time.Now()
	res, err := h.next.Handle(ctx, cmd)
	logHandled(h.logger, "command", cmd.CommandName(), time.Since(start), err)
	return res, err
}

func logHandled(logger log.Logger, kind, name string, duration time.Duration, err error) {
	fields := []log.Field{
		log.String(kind, name),
		log.Duration("duration", duration),
	}

	switch {
	case err == nil && duration > slowCommandThreshold:
		logger.Warn("slow "+kind, fields...)
	case err == nil:
		logger.Debug(kind+" handled", fields...)
	case errors.IsValidation(err) || errors.IsNotFound(err) || errors.IsUnauthorized(err):
		fields = append(fields, log.String("error_code", errors.GetCode(err).String()), log.Err(err))
		logger.Warn(kind+" rejected", fields...)
	default:
		fields = append(fields, log.Err(err))
		logger.Error(kind+" failed", fields...)
	}
}
