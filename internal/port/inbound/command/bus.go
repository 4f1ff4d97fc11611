package command

import "context"

// Command drives a payment session through one step of the challenge flow.
// CommandName is the dotted name used in logs.
type Command interface {
	CommandName() string
}

// Handler executes one command type. The named handler interfaces in
// this package are instantiations of it.
type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

// Handle calls f(ctx, cmd).
func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}
