package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/0xsj/overwatch-pkg/log"
	"github.com/0xsj/overwatch-pkg/metrics"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/gateway"
)

// FailureKind classifies how a safety-netted call ended.
type FailureKind int

const (
	// FailureNone means the call succeeded.
	FailureNone FailureKind = iota
	// FailureServiceError means a downstream service answered with an error.
	FailureServiceError
	// FailureUnclassified means the call failed for any other reason.
	FailureUnclassified
	// FailureExcluded means a service error matched an enabled exclude flag
	// and must be surfaced instead of swallowed.
	FailureExcluded
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureServiceError:
		return "service_error"
	case FailureUnclassified:
		return "unclassified"
	case FailureExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// Result is the outcome of a safety-netted call.
type Result[T any] struct {
	Value T
	Kind  FailureKind
	Err   error
}

func (r Result[T]) OK() bool { return r.Kind == FailureNone }

// Fallback reports whether the caller must substitute its permissive outcome.
func (r Result[T]) Fallback() bool {
	return r.Kind == FailureServiceError || r.Kind == FailureUnclassified
}

// Excluded reports whether the error must propagate to the caller.
func (r Result[T]) Excluded() bool { return r.Kind == FailureExcluded }

// Operation names a safety-netted call. It selects the exclude flag format.
type Operation string

const (
	OpGetPIExt                  Operation = "GetPIExt"
	OpCreatePS                  Operation = "CreatePS"
	OpMotoAuthN                 Operation = "MotoAuthN"
	OpValidatePI                Operation = "ValidatePI"
	OpLinkSessionToPI           Operation = "LinkSessionToPI"
	OpUpdateSessionResourceData Operation = "UpdateSessionResourceData"
	OpCompletion                Operation = "Completion"
	OpAttestation               Operation = "Attestation"
	OpGetSession                Operation = "GetSession"
	OpPutPISession              Operation = "PutPISession"
)

// ExcludeFlag is the flag that turns a service error of this operation
// into a surfaced failure, e.g. "PSD2SafetyNet-CreatePS-400-InvalidRequest".
func (op Operation) ExcludeFlag(statusCode int, errorCode string) string {
	return fmt.Sprintf("PSD2SafetyNet-%s-%d-%s", op, statusCode, errorCode)
}

// ExcludedError carries a service error that an enabled exclude flag
// surfaced instead of swallowing.
type ExcludedError struct {
	Operation Operation
	Err       error
}

func (e *ExcludedError) Error() string {
	return fmt.Sprintf("%s excluded from safety net: %v", e.Operation, e.Err)
}

func (e *ExcludedError) Unwrap() error { return e.Err }

// IsExcluded reports whether err went through an exclude flag.
func IsExcluded(err error) bool {
	var excluded *ExcludedError
	return stderrors.As(err, &excluded)
}

// SafetyNet runs external calls under the fail-open policy: dependency
// failures are logged and reported as fallbacks, never raised.
type SafetyNet struct {
	logger    log.Logger
	fallbacks metrics.Counter
}

// NewSafetyNet creates a SafetyNet.
func NewSafetyNet(logger log.Logger, meter metrics.Meter) *SafetyNet {
	if meter == nil {
		meter = metrics.NewNoop()
	}
	return &SafetyNet{
		logger: logger.With(log.Component("safety_net")),
		fallbacks: meter.Counter(
			"safety_net_fallbacks_total",
			"External calls that failed and fell back to the permissive outcome",
			metrics.WithLabels("operation", "kind"),
		),
	}
}

// Execute runs fn and classifies its failure. features supplies the
// enabled exclude flags.
func Execute[T any](
	ctx context.Context,
	sn *SafetyNet,
	op Operation,
	features model.FeatureSet,
	fn func(ctx context.Context) (T, error),
) Result[T] {
	value, err := fn(ctx)
	if err == nil {
		return Result[T]{Value: value}
	}

	kind := FailureUnclassified
	if se, ok := gateway.AsServiceError(err); ok {
		kind = FailureServiceError
		if features.Has(op.ExcludeFlag(se.StatusCode, se.ErrorCode)) {
			sn.logger.Warn("safety net excluded service error",
				log.String("operation", string(op)),
				log.Int("status_code", se.StatusCode),
				log.String("error_code", se.ErrorCode),
			)
			return Result[T]{Value: value, Kind: FailureExcluded, Err: &ExcludedError{Operation: op, Err: err}}
		}
	}

	sn.logger.Error("safety net swallowed error",
		log.String("operation", string(op)),
		log.String("kind", kind.String()),
		log.Err(err),
	)
	sn.fallbacks.Inc(string(op), kind.String())

	var zero T
	return Result[T]{Value: zero, Kind: kind, Err: err}
}

// Run is Execute for calls without a result value.
func (sn *SafetyNet) Run(
	ctx context.Context,
	op Operation,
	features model.FeatureSet,
	fn func(ctx context.Context) error,
) Result[struct{}] {
	return Execute(ctx, sn, op, features, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}
