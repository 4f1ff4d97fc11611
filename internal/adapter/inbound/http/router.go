package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/0xsj/overwatch-pkg/health"
	"github.com/0xsj/overwatch-pkg/httputil"
	"github.com/0xsj/overwatch-pkg/log"
	"github.com/0xsj/overwatch-pkg/metrics"
)

// RouterConfig holds the cross-cutting pieces mounted around the handler.
// Health, Meter and MetricsHandler are optional.
type RouterConfig struct {
	Auth           *Authenticator
	RoundTimeout   time.Duration
	Health         *health.Handler
	Meter          metrics.Meter
	MetricsHandler http.Handler
	Logger         log.Logger
}

// NewRouter mounts the partner and notification endpoints under /v1.
func NewRouter(h *Handler, cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoop()
	}

	r := chi.NewRouter()
	r.Use(
		httputil.RequestID(),
		httputil.Recovery(logger),
		httputil.LoggingWithSkipPaths(logger, "/healthz", "/readyz", "/metrics"),
	)
	if cfg.Meter != nil {
		r.Use(metrics.Middleware(metrics.DefaultMiddlewareConfig().
			WithMeter(cfg.Meter).
			WithServiceName("payments")))
	}

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Liveness)
		r.Get("/readyz", cfg.Health.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1/paymentSessions", func(r chi.Router) {
		if cfg.RoundTimeout > 0 {
			r.Use(httputil.Timeout(cfg.RoundTimeout))
		}
		r.Use(requestFeatures)

		r.Group(func(r chi.Router) {
			if cfg.Auth != nil {
				r.Use(cfg.Auth.Middleware())
			}
			r.Post("/", h.CreatePaymentSession)
			r.Get("/{sessionID}", h.GetPaymentSession)
			r.Get("/{sessionID}/redirect", h.GetChallengeRedirect)
			r.Post("/{sessionID}/challenge", h.HandlePaymentChallenge)
			r.Post("/{sessionID}/methodUrl", h.GetThreeDSMethodURL)
			r.Post("/{sessionID}/authenticateApp", h.AuthenticateApp)
			r.Post("/{sessionID}/authenticateThreeDSOne", h.AuthenticateThreeDSOne)
			r.Post("/{sessionID}/complete", h.CompleteChallenge)
		})

		// Targets of the notification URLs handed to the browser and the ACS
		r.Post("/{sessionID}/authenticate", h.NotifyThreeDSMethodCompleted)
		r.Post("/{sessionID}/NotifyThreeDSChallengeCompleted", h.NotifyChallengeCompleted)
		r.Post("/{sessionID}/BrowserNotifyThreeDSOneChallengeCompleted", h.NotifyThreeDSOneChallengeCompleted)
	})

	return r
}
