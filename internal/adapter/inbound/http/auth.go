package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/0xsj/overwatch-pkg/httputil"
	"github.com/0xsj/overwatch-pkg/log"

	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
)

// AuthConfig configures partner bearer token verification.
type AuthConfig struct {
	Enabled  bool
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// PartnerClaims are the claims a partner token carries. Subject names the
// calling partner.
type PartnerClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"acct,omitempty"`
}

// Authenticator verifies partner bearer tokens.
type Authenticator struct {
	cfg    AuthConfig
	parser *jwt.Parser
	logger log.Logger
}

// NewAuthenticator creates an Authenticator. An enabled authenticator needs a secret.
func NewAuthenticator(cfg AuthConfig, logger log.Logger) (*Authenticator, error) {
	if cfg.Enabled && len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("partner auth enabled without a secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Authenticator{
		cfg:    cfg,
		parser: jwt.NewParser(opts...),
		logger: logger.With(log.Component("partner_auth")),
	}, nil
}

// Parse validates token and returns the caller it identifies.
func (a *Authenticator) Parse(token string) (Caller, error) {
	claims := &PartnerClaims{}
	_, err := a.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.cfg.Secret, nil
	})
	if err != nil {
		return Caller{}, err
	}
	if claims.Subject == "" {
		return Caller{}, jwt.ErrTokenInvalidClaims
	}
	return Caller{Name: claims.Subject, AccountID: claims.AccountID}, nil
}

// Middleware rejects requests without a valid partner token. It passes
// everything through when auth is disabled.
func (a *Authenticator) Middleware() httputil.Middleware {
	return func(next http.Handler) http.Handler {
		if !a.cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httputil.WriteError(w, r, domainerror.ErrCallerUnauthorized)
				return
			}

			caller, err := a.Parse(token)
			if err != nil {
				a.logger.Debug("partner token rejected",
					log.String("path", r.URL.Path),
					log.Err(err),
				)
				httputil.WriteError(w, r, domainerror.ErrCallerUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearer):])
	return token, token != ""
}
