package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/0xsj/overwatch-pkg/errors"
	"github.com/0xsj/overwatch-pkg/httputil"
	"github.com/0xsj/overwatch-pkg/log"

	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/command"
	"github.com/0xsj/overwatch-payments/internal/port/inbound/query"
)

// Request headers read by the partner endpoints.
const (
	HeaderFlights       = "X-Flights"
	HeaderTestScenarios = "X-Test-Scenarios"
)

// Form fields posted back by the 3DS method page.
const (
	formThreeDSCompInd = "threeDSCompInd"
)

// Handler serves the payment challenge endpoints.
type Handler struct {
	// Command handlers
	createPaymentSessionHandler        command.CreatePaymentSessionHandler
	handlePaymentChallengeHandler      command.HandlePaymentChallengeHandler
	getThreeDSMethodURLHandler         command.GetThreeDSMethodURLHandler
	authenticateBrowserHandler         command.AuthenticateBrowserHandler
	authenticateAppHandler             command.AuthenticateAppHandler
	authenticateThreeDSOneHandler      command.AuthenticateThreeDSOneHandler
	completeChallengeHandler           command.CompleteChallengeHandler
	completeThreeDSOneChallengeHandler command.CompleteThreeDSOneChallengeHandler

	// Query handlers
	getPaymentSessionHandler    query.GetPaymentSessionHandler
	getChallengeRedirectHandler query.GetChallengeRedirectHandler

	maxBodyBytes int64
	logger       log.Logger
}

// HandlerConfig holds all the handlers needed by the HTTP handler.
type HandlerConfig struct {
	CreatePaymentSessionHandler        command.CreatePaymentSessionHandler
	HandlePaymentChallengeHandler      command.HandlePaymentChallengeHandler
	GetThreeDSMethodURLHandler         command.GetThreeDSMethodURLHandler
	AuthenticateBrowserHandler         command.AuthenticateBrowserHandler
	AuthenticateAppHandler             command.AuthenticateAppHandler
	AuthenticateThreeDSOneHandler      command.AuthenticateThreeDSOneHandler
	CompleteChallengeHandler           command.CompleteChallengeHandler
	CompleteThreeDSOneChallengeHandler command.CompleteThreeDSOneChallengeHandler
	GetPaymentSessionHandler           query.GetPaymentSessionHandler
	GetChallengeRedirectHandler        query.GetChallengeRedirectHandler

	MaxBodyBytes int64
	Logger       log.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg HandlerConfig) *Handler {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = httputil.DefaultMaxBodySize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoop()
	}

	return &Handler{
		createPaymentSessionHandler:        cfg.CreatePaymentSessionHandler,
		handlePaymentChallengeHandler:      cfg.HandlePaymentChallengeHandler,
		getThreeDSMethodURLHandler:         cfg.GetThreeDSMethodURLHandler,
		authenticateBrowserHandler:         cfg.AuthenticateBrowserHandler,
		authenticateAppHandler:             cfg.AuthenticateAppHandler,
		authenticateThreeDSOneHandler:      cfg.AuthenticateThreeDSOneHandler,
		completeChallengeHandler:           cfg.CompleteChallengeHandler,
		completeThreeDSOneChallengeHandler: cfg.CompleteThreeDSOneChallengeHandler,
		getPaymentSessionHandler:           cfg.GetPaymentSessionHandler,
		getChallengeRedirectHandler:        cfg.GetChallengeRedirectHandler,
		maxBodyBytes:                       maxBody,
		logger:                             logger.With(log.Component("http_handler")),
	}
}

// Partner endpoints

func (h *Handler) CreatePaymentSession(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentSessionRequest
	if err := httputil.BindJSON(r, &req, h.maxBodyBytes); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	data := req.PaymentSessionData
	data.AccountID = accountIDOrCaller(r.Context(), data.AccountID)
	if scenarios := httputil.QuerySlice(r, "testScenarios"); len(scenarios) > 0 {
		data.TestScenarios = append(data.TestScenarios, scenarios...)
	}
	data.TestScenarios = append(data.TestScenarios, splitHeader(r, HeaderTestScenarios)...)

	result, err := h.createPaymentSessionHandler.Handle(r.Context(), command.CreatePaymentSession{
		Data:     data,
		Features: model.NewFeatureSet(splitHeader(r, HeaderFlights)...),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.Created(w, r, result.Session)
}

func (h *Handler) GetPaymentSession(w http.ResponseWriter, r *http.Request) {
	result, err := h.getPaymentSessionHandler.Handle(r.Context(), query.GetPaymentSession{
		SessionID: sessionIDParam(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if result.Session == nil {
		h.writeError(w, r, domainerror.ErrSessionNotFound)
		return
	}

	httputil.OK(w, r, result.Session)
}

func (h *Handler) GetChallengeRedirect(w http.ResponseWriter, r *http.Request) {
	result, err := h.getChallengeRedirectHandler.Handle(r.Context(), query.GetChallengeRedirect{
		SessionID: sessionIDParam(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.OK(w, r, RedirectResponse{RedirectURI: result.RedirectURI})
}

func (h *Handler) HandlePaymentChallenge(w http.ResponseWriter, r *http.Request) {
	req, ok := h.bindBrowserChallenge(w, r)
	if !ok {
		return
	}

	result, err := h.handlePaymentChallengeHandler.Handle(r.Context(), command.HandlePaymentChallenge{
		AccountID: accountIDOrCaller(r.Context(), req.AccountID),
		Browser:   req.BrowserInfo,
		Session:   req.PaymentSession,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.OK(w, r, result.Context)
}

func (h *Handler) GetThreeDSMethodURL(w http.ResponseWriter, r *http.Request) {
	req, ok := h.bindBrowserChallenge(w, r)
	if !ok {
		return
	}

	result, err := h.getThreeDSMethodURLHandler.Handle(r.Context(), command.GetThreeDSMethodURL{
		AccountID: accountIDOrCaller(r.Context(), req.AccountID),
		Browser:   req.BrowserInfo,
		Session:   req.PaymentSession,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.OK(w, r, result.Context)
}

func (h *Handler) AuthenticateApp(w http.ResponseWriter, r *http.Request) {
	var req AuthenticateAppRequest
	if err := httputil.BindJSON(r, &req, h.maxBodyBytes); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.authenticateAppHandler.Handle(r.Context(), command.AuthenticateApp{
		AccountID: accountIDOrCaller(r.Context(), req.AccountID),
		SessionID: sessionIDParam(r),
		Request:   req.AppAuthenticationRequest,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.OK(w, r, result.Response)
}

func (h *Handler) AuthenticateThreeDSOne(w http.ResponseWriter, r *http.Request) {
	result, err := h.authenticateThreeDSOneHandler.Handle(r.Context(), command.AuthenticateThreeDSOne{
		SessionID: sessionIDParam(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.OK(w, r, result.Challenge)
}

func (h *Handler) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	var req CompleteChallengeRequest
	if r.ContentLength != 0 {
		if err := httputil.BindJSON(r, &req, h.maxBodyBytes); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	result, err := h.completeChallengeHandler.Handle(r.Context(), command.CompleteChallenge{
		AccountID: accountIDOrCaller(r.Context(), req.AccountID),
		SessionID: sessionIDParam(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.OK(w, r, result.Session)
}

// Browser notification endpoints. These are posted by the 3DS method page
// and the ACS, so they carry no partner token.

func (h *Handler) NotifyThreeDSMethodCompleted(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, errors.Validation("invalid form body").WithCause(err))
		return
	}

	// The method page reports N when the ACS did not answer in time
	completed := !strings.EqualFold(r.PostForm.Get(formThreeDSCompInd), "N")

	result, err := h.authenticateBrowserHandler.Handle(r.Context(), command.AuthenticateBrowser{
		SessionID:       sessionIDParam(r),
		MethodCompleted: completed,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.OK(w, r, result.Context)
}

func (h *Handler) NotifyChallengeCompleted(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDParam(r)
	if _, err := h.completeChallengeHandler.Handle(r.Context(), command.CompleteChallenge{
		SessionID: sessionID,
	}); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.redirect(w, r, sessionID)
}

func (h *Handler) NotifyThreeDSOneChallengeCompleted(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, errors.Validation("invalid form body").WithCause(err))
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		params[k] = r.PostForm.Get(k)
	}

	sessionID := sessionIDParam(r)
	if _, err := h.completeThreeDSOneChallengeHandler.Handle(r.Context(), command.CompleteThreeDSOneChallenge{
		SessionID: sessionID,
		Params:    params,
	}); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.redirect(w, r, sessionID)
}

// redirect sends the browser to the partner's success or failure page.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, sessionID string) {
	result, err := h.getChallengeRedirectHandler.Handle(r.Context(), query.GetChallengeRedirect{
		SessionID: sessionID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.Redirect(w, r, result.RedirectURI, http.StatusSeeOther)
}

func (h *Handler) bindBrowserChallenge(w http.ResponseWriter, r *http.Request) (*BrowserChallengeRequest, bool) {
	var req BrowserChallengeRequest
	if err := httputil.BindJSON(r, &req, h.maxBodyBytes); err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if err := req.validate(sessionIDParam(r)); err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return &req, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if httputil.IsServerError(err) {
		h.logger.Error("request failed",
			log.String("path", r.URL.Path),
			log.String("request_id", httputil.GetRequestIDFromRequest(r)),
			log.Err(err),
		)
	}
	httputil.WriteError(w, r, err)
}

func sessionIDParam(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

func splitHeader(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.Header.Values(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
