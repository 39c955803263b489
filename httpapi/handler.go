package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	authflow "github.com/hailrides/authflow"
	"github.com/hailrides/authflow/middleware"
)

const maxBodyBytes = 1 << 16

// CookieConfig controls the cookies set on terminal login.
//
// CookieConfig instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type CookieConfig struct {
	// AccessName and RefreshName default to access_token and refresh_token.
	AccessName  string
	RefreshName string
	// Domain and Path scope both cookies. Path defaults to "/".
	Domain string
	Path   string
	// Secure should only be disabled for local development.
	Secure bool
	// AccessMaxAge and RefreshMaxAge bound cookie lifetimes; zero means
	// session cookies.
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.AccessName == "" {
		c.AccessName = "access_token"
	}
	if c.RefreshName == "" {
		c.RefreshName = "refresh_token"
	}
	if c.Path == "" {
		c.Path = "/"
	}
	return c
}

// Handler serves the submit endpoint for one engine.
type Handler struct {
	engine  *authflow.Engine
	cookies CookieConfig
}

// NewHandler creates a [Handler].
func NewHandler(engine *authflow.Engine, cookies CookieConfig) *Handler {
	return &Handler{engine: engine, cookies: cookies.withDefaults()}
}

// NewRouter builds the standard transport: request ID, real IP, panic
// recovery, client info extraction, the submit endpoint, and a health probe.
func NewRouter(engine *authflow.Engine, cookies CookieConfig) chi.Router {
	h := NewHandler(engine, cookies)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.ClientInfo)

	r.Post("/auth/submit", h.Submit)
	r.Get("/healthz", h.Health)

	return r
}

// Submit is the POST /auth/submit handler.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req authflow.SubmitRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &authflow.SubmitResponse{
			Status: http.StatusBadRequest,
			Error:  "malformed request body",
		})
		return
	}

	resp, err := h.engine.Submit(r.Context(), req)
	if err != nil {
		writeJSON(w, resp.Status, resp)
		return
	}

	if resp.Tokens != nil {
		h.setAuthCookies(w, resp.Tokens)
	}
	writeJSON(w, resp.Status, resp)
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, tokens *authflow.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookies.AccessName,
		Value:    tokens.AccessToken,
		Path:     h.cookies.Path,
		Domain:   h.cookies.Domain,
		MaxAge:   int(h.cookies.AccessMaxAge / time.Second),
		Secure:   h.cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookies.RefreshName,
		Value:    tokens.RefreshToken,
		Path:     h.cookies.Path,
		Domain:   h.cookies.Domain,
		MaxAge:   int(h.cookies.RefreshMaxAge / time.Second),
		Secure:   h.cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
