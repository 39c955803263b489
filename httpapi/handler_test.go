package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	authflow "github.com/hailrides/authflow"
	"github.com/hailrides/authflow/session"
)

type memProvider struct {
	mu      sync.Mutex
	byEmail map[string]*authflow.User
}

func newMemProvider() *memProvider {
	return &memProvider{byEmail: make(map[string]*authflow.User)}
}

func (p *memProvider) FindUserByEmail(_ context.Context, email string) (*authflow.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byEmail[email], nil
}

func (p *memProvider) FindUserByPhone(context.Context, string, string) (*authflow.User, error) {
	return nil, nil
}

func (p *memProvider) CreateUser(_ context.Context, input authflow.CreateUserInput) (*authflow.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u := &authflow.User{
		ID:        uuid.NewString(),
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      input.Role,
	}
	p.byEmail[u.Email] = u
	return u, nil
}

func (p *memProvider) StoreRefreshToken(context.Context, string, [32]byte, time.Time) error {
	return nil
}

type codeSink struct {
	mu   sync.Mutex
	last string
}

func (s *codeSink) SendOTP(_ context.Context, _, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = code
	return nil
}

// smsAdapter reuses codeSink for the three-argument SMS interface.
type smsAdapter struct {
	sink *codeSink
}

func (a smsAdapter) SendOTP(ctx context.Context, _, _, code string) error {
	return a.sink.SendOTP(ctx, "", code)
}

func newTestServer(t *testing.T) (*httptest.Server, *codeSink, *codeSink) {
	t.Helper()

	cfg := authflow.Config{
		Session:   authflow.SessionConfig{RedisPrefix: "t", TTL: 15 * time.Minute, MaxSessionsPerClient: 5},
		OTP:       authflow.OTPConfig{Digits: 4, TTL: 5 * time.Minute, EnforceExpiry: true},
		RateLimit: authflow.RateLimitConfig{Enabled: true, Window: time.Minute, MaxRequests: 100},
		JWT: authflow.JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			PrivateKey:    []byte("transport-test-secret"),
		},
		Login:   authflow.LoginConfig{DefaultRole: "rider", RedirectURL: "/home"},
		Metrics: authflow.MetricsConfig{Enabled: true},
	}

	emails := &codeSink{}
	texts := &codeSink{}
	engine, err := authflow.New().
		WithConfig(cfg).
		WithStore(session.NewMemoryStore(session.Config{
			MaxSessionsPerClient: cfg.Session.MaxSessionsPerClient,
			RateLimitMax:         cfg.RateLimit.MaxRequests,
			RateLimitWindow:      cfg.RateLimit.Window,
		})).
		WithUserProvider(newMemProvider()).
		WithEmailSender(emails).
		WithSMSSender(smsAdapter{texts}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	srv := httptest.NewServer(NewRouter(engine, CookieConfig{
		AccessMaxAge:  cfg.JWT.AccessTTL,
		RefreshMaxAge: cfg.JWT.RefreshTTL,
	}))
	t.Cleanup(srv.Close)

	return srv, emails, texts
}

func postSubmit(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(srv.URL+"/auth/submit", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return resp, decoded
}

func TestSubmitEndpointNextStep(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := `{"flowType":"INITIAL","screenAnswers":{"screenType":"PHONE_NUMBER_INITIAL","eventType":"TypeInputEmail","fieldAnswers":[{"fieldType":"emailAddress","emailAddress":"alice@example.com"}]}}`
	resp, decoded := postSubmit(t, srv, body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	form, ok := decoded["form"].(map[string]any)
	if !ok {
		t.Fatalf("expected form payload, got %v", decoded)
	}
	if form["flowType"] != "SIGN_UP" {
		t.Fatalf("expected SIGN_UP, got %v", form["flowType"])
	}
	if form["inAuthSessionId"] == "" {
		t.Fatal("expected session id")
	}
}

func TestSubmitEndpointErrorStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := `{"flowType":"INITIAL","screenAnswers":{"screenType":"AGREE_TERMS_AND_CONDITIONS","eventType":"TypeCheckBox","fieldAnswers":[]}}`
	resp, decoded := postSubmit(t, srv, body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if decoded["success"] != false || decoded["error"] == "" {
		t.Fatalf("expected error payload, got %v", decoded)
	}
}

func TestSubmitEndpointMalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := postSubmit(t, srv, `{"flowType":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.StatusCode)
	}
}

func TestSubmitEndpointLoginSetsCookies(t *testing.T) {
	srv, emails, texts := newTestServer(t)

	// Walk the full signup over HTTP: email, email code, phone, SMS code,
	// names, terms.
	_, step1 := postSubmit(t, srv, `{"flowType":"INITIAL","screenAnswers":{"screenType":"PHONE_NUMBER_INITIAL","eventType":"TypeInputEmail","fieldAnswers":[{"fieldType":"emailAddress","emailAddress":"alice@example.com"}]}}`)
	sid := step1["form"].(map[string]any)["inAuthSessionId"].(string)

	postSubmit(t, srv, fmt.Sprintf(`{"flowType":"SIGN_UP","inAuthSessionId":%q,"screenAnswers":{"screenType":"EMAIL_OTP_CODE","eventType":"TypeEmailOTP","fieldAnswers":[{"fieldType":"emailOTPCode","emailOTPCode":%q}]}}`, sid, emails.last))

	postSubmit(t, srv, fmt.Sprintf(`{"flowType":"PROGRESSIVE_SIGN_UP","inAuthSessionId":%q,"screenAnswers":{"screenType":"PHONE_NUMBER_PROGRESSIVE","eventType":"TypeInputMobile","fieldAnswers":[{"fieldType":"phoneCountryCode","phoneCountryCode":"+44"},{"fieldType":"phoneNumber","phoneNumber":"7700900123"}]}}`, sid))

	postSubmit(t, srv, fmt.Sprintf(`{"flowType":"SIGN_UP","inAuthSessionId":%q,"screenAnswers":{"screenType":"PHONE_OTP","eventType":"TypeSMSOTP","fieldAnswers":[{"fieldType":"phoneOTPCode","phoneOTPCode":%q}]}}`, sid, texts.last))

	postSubmit(t, srv, fmt.Sprintf(`{"flowType":"PROGRESSIVE_SIGN_UP","inAuthSessionId":%q,"screenAnswers":{"screenType":"FIRST_NAME_LAST_NAME","eventType":"TypeInputDetails","fieldAnswers":[{"fieldType":"firstName","firstName":"Alice"},{"fieldType":"lastName","lastName":"Smith"}]}}`, sid))

	resp, decoded := postSubmit(t, srv, fmt.Sprintf(`{"flowType":"FINAL_SIGN_UP","inAuthSessionId":%q,"screenAnswers":{"screenType":"AGREE_TERMS_AND_CONDITIONS","eventType":"TypeCheckBox","fieldAnswers":[{"fieldType":"termsAndconditions","termsAndconditions":true}]}}`, sid))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 terminal login, got %d: %v", resp.StatusCode, decoded)
	}
	user, ok := decoded["user"].(map[string]any)
	if !ok || user["email"] != "alice@example.com" {
		t.Fatalf("expected user payload, got %v", decoded)
	}
	if decoded["redirectUrl"] != "/home" {
		t.Fatalf("expected redirect, got %v", decoded["redirectUrl"])
	}

	names := map[string]bool{}
	for _, c := range resp.Cookies() {
		names[c.Name] = c.Value != "" && c.HttpOnly
	}
	if !names["access_token"] || !names["refresh_token"] {
		t.Fatalf("expected HttpOnly auth cookies, got %v", names)
	}

	// Tokens never appear in the body.
	for _, c := range resp.Cookies() {
		if raw, err := json.Marshal(decoded); err == nil && c.Value != "" && bytes.Contains(raw, []byte(c.Value)) {
			t.Fatal("token leaked into response body")
		}
	}
}

func TestLoginCookieAttributes(t *testing.T) {
	h := NewHandler(nil, CookieConfig{
		AccessMaxAge:  time.Minute,
		RefreshMaxAge: time.Hour,
		Secure:        true,
	})

	rec := httptest.NewRecorder()
	h.setAuthCookies(rec, &authflow.TokenPair{AccessToken: "acc", RefreshToken: "ref"})

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}

	access := byName["access_token"]
	if access == nil || access.Value != "acc" || !access.HttpOnly || !access.Secure {
		t.Fatalf("unexpected access cookie: %+v", access)
	}
	refresh := byName["refresh_token"]
	if refresh == nil || refresh.Value != "ref" || !refresh.HttpOnly {
		t.Fatalf("unexpected refresh cookie: %+v", refresh)
	}
	if refresh.SameSite != http.SameSiteStrictMode {
		t.Fatal("refresh cookie must be SameSite=Strict")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
