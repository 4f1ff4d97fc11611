package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/0xsj/overwatch-pkg/grpc/middleware"
	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// FlightsMetadataKey carries the request feature flags, comma separated.
const FlightsMetadataKey = "x-flights"

// ClaimKeyAccountID holds the partner account in the auth context.
const ClaimKeyAccountID = "acct"

// PublicMethods defines methods that don't require authentication.
var PublicMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// TokenParser resolves a partner bearer token to the partner name and the
// account it acts for.
type TokenParser func(token string) (subject, accountID string, err error)

// NewAuthenticator adapts parser to the pkg auth middleware.
func NewAuthenticator(parser TokenParser) middleware.Authenticator {
	return middleware.AuthenticatorFunc(func(_ context.Context, token string) (*middleware.AuthInfo, error) {
		subject, accountID, err := parser(token)
		if err != nil {
			return nil, err
		}
		return &middleware.AuthInfo{
			Token:   token,
			Scheme:  middleware.BearerScheme,
			Subject: subject,
			Claims:  map[string]any{ClaimKeyAccountID: accountID},
		}, nil
	})
}

// unaryInterceptors builds the unary chain: recovery, request ID, logging,
// then auth when a parser is set, then request features.
func unaryInterceptors(parser TokenParser, logger log.Logger) []grpc.UnaryServerInterceptor {
	chain := []grpc.UnaryServerInterceptor{
		middleware.UnaryServerRecoveryWithLogger(logger),
		middleware.UnaryServerRequestID(),
		middleware.UnaryServerLogging(logger),
	}
	if parser != nil {
		chain = append(chain, middleware.UnaryServerAuthWithConfig(middleware.AuthConfig{
			Header:          middleware.AuthorizationHeader,
			Scheme:          middleware.BearerScheme,
			Authenticator:   NewAuthenticator(parser),
			SkipMethods:     PublicMethods,
			SkipHealthCheck: true,
		}))
	}
	return append(chain, unaryFeatures)
}

// unaryFeatures exposes the x-flights metadata to the session reads.
func unaryFeatures(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var flags []string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, v := range md.Get(FlightsMetadataKey) {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					flags = append(flags, part)
				}
			}
		}
	}
	return handler(model.ContextWithFeatures(ctx, model.NewFeatureSet(flags...)), req)
}
