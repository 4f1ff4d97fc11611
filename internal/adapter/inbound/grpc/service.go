package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/0xsj/overwatch-pkg/log"

	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/query"
)

// Payment session service method names.
const (
	ServiceName                = "overwatch.payments.v1.PaymentSessionService"
	MethodGetPaymentSession    = "/" + ServiceName + "/GetPaymentSession"
	MethodGetChallengeRedirect = "/" + ServiceName + "/GetChallengeRedirect"
)

// SessionServer reads payment sessions over gRPC. Messages are
// google.protobuf.Struct values keyed like the JSON API.
type SessionServer interface {
	GetPaymentSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetChallengeRedirect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// PaymentSessionServiceDesc describes the payment session service.
var PaymentSessionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPaymentSession", Handler: getPaymentSessionHandler},
		{MethodName: "GetChallengeRedirect", Handler: getChallengeRedirectHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "overwatch/payments/v1/session.proto",
}

func getPaymentSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).GetPaymentSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetPaymentSession}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).GetPaymentSession(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getChallengeRedirectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).GetChallengeRedirect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetChallengeRedirect}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).GetChallengeRedirect(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionServiceConfig holds the query handlers behind the service.
type SessionServiceConfig struct {
	GetPaymentSessionHandler    query.GetPaymentSessionHandler
	GetChallengeRedirectHandler query.GetChallengeRedirectHandler
	Logger                      log.Logger
}

// SessionService implements SessionServer on the query handlers.
type SessionService struct {
	getPaymentSessionHandler    query.GetPaymentSessionHandler
	getChallengeRedirectHandler query.GetChallengeRedirectHandler
	logger                      log.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(cfg SessionServiceConfig) *SessionService {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoop()
	}
	return &SessionService{
		getPaymentSessionHandler:    cfg.GetPaymentSessionHandler,
		getChallengeRedirectHandler: cfg.GetChallengeRedirectHandler,
		logger:                      logger.With(log.Component("grpc_sessions")),
	}
}

// GetPaymentSession returns the signed public view of a session.
func (s *SessionService) GetPaymentSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	result, err := s.getPaymentSessionHandler.Handle(ctx, query.GetPaymentSession{
		SessionID: sessionIDField(req),
	})
	if err != nil {
		return nil, toGRPCError(err)
	}
	if result.Session == nil {
		return nil, toGRPCError(domainerror.ErrSessionNotFound)
	}

	out, err := toStruct(result.Session)
	if err != nil {
		s.logger.Error("failed to encode payment session", log.Err(err))
		return nil, toGRPCError(err)
	}
	return out, nil
}

// GetChallengeRedirect returns the partner redirect for a finished challenge.
func (s *SessionService) GetChallengeRedirect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	result, err := s.getChallengeRedirectHandler.Handle(ctx, query.GetChallengeRedirect{
		SessionID: sessionIDField(req),
	})
	if err != nil {
		return nil, toGRPCError(err)
	}
	return structpb.NewStruct(map[string]any{FieldRedirectURI: result.RedirectURI})
}
