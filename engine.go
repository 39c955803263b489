package authflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hailrides/authflow/jwt"
	"github.com/hailrides/authflow/session"
)

// Engine is the auth flow orchestrator. It is immutable after
// [Builder.Build] and safe for concurrent use.
type Engine struct {
	config Config
	store  session.Store

	userProvider UserProvider
	emailSender  EmailSender
	smsSender    SMSSender

	jwtManager  *jwt.Manager
	audit       *auditDispatcher
	metrics     *Metrics
	fingerprint FingerprintFunc
	dispatch    dispatchTable
}

// Submit processes one wizard step: it sweeps expired state, applies the
// per-client rate limit, loads or creates the session, dispatches to the
// transition handler, and returns either the next screen or a terminal
// result.
//
// On failure the returned response is the mapped wire error (see
// [ErrorResponse]) and the error carries the typed cause for errors.Is
// checks; both are non-nil.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if e == nil || e.store == nil {
		return ErrorResponse(ErrEngineNotReady), ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricSubmitLatency, time.Since(start))
	}()

	// Lazy sweep instead of a background timer; Redis backends no-op here.
	if err := e.store.CleanupExpired(ctx); err != nil {
		log.Printf("authflow: cleanup sweep failed: %v", err)
	}

	fingerprint := e.fingerprint(ctx)

	if err := e.store.CheckRateLimit(ctx, fingerprint); err != nil {
		mapped := mapStoreErr(err)
		if errors.Is(mapped, ErrRateLimitExceeded) {
			e.metrics.Inc(MetricSubmitRateLimited)
			e.emitAudit(ctx, auditEventSubmitRateLimit, false, req.FlowType, "", req.InAuthSessionID, mapped, nil)
		}
		return ErrorResponse(mapped), mapped
	}

	// Lookup runs before session load so an unknown triple never creates a
	// session; when both are bad the transition error wins.
	handler, err := e.dispatch.lookup(req.FlowType, req.ScreenAnswers.ScreenType, req.ScreenAnswers.EventType)
	if err != nil {
		e.metrics.Inc(MetricInvalidTransition)
		e.emitAudit(ctx, auditEventSubmitRejected, false, req.FlowType, "", req.InAuthSessionID, err, func() map[string]string {
			return map[string]string{
				"screen": string(req.ScreenAnswers.ScreenType),
				"event":  string(req.ScreenAnswers.EventType),
			}
		})
		return ErrorResponse(err), err
	}

	state, err := e.loadOrCreateSession(ctx, req, fingerprint)
	if err != nil {
		e.metrics.Inc(MetricSubmitRejected)
		e.emitAudit(ctx, auditEventSubmitRejected, false, req.FlowType, "", req.InAuthSessionID, err, nil)
		return ErrorResponse(err), err
	}

	resp, err := handler(ctx, state, req.ScreenAnswers.EventType, req.ScreenAnswers.FieldAnswers)
	if err != nil {
		e.metrics.Inc(MetricSubmitRejected)
		e.emitAudit(ctx, auditEventSubmitRejected, false, req.FlowType, "", state.SessionID, err, nil)
		return ErrorResponse(err), err
	}

	e.metrics.Inc(MetricSubmitSuccess)
	return resp, nil
}

// ValidateAccess verifies an access token issued on terminal login and
// returns its claims. Host applications use it to guard routes.
func (e *Engine) ValidateAccess(token string) (*jwt.AccessClaims, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	return e.jwtManager.ParseAccess(token)
}

// MetricsSnapshot exposes the in-process counters for exporters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports audit events lost to dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close drains the audit dispatcher. The engine must not be used after
// Close returns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

func (e *Engine) loadOrCreateSession(ctx context.Context, req SubmitRequest, fingerprint string) (*session.State, error) {
	if req.InAuthSessionID != "" {
		state, err := e.store.Get(ctx, req.InAuthSessionID)
		if err != nil {
			if errors.Is(err, session.ErrExpired) {
				e.metrics.Inc(MetricSessionExpired)
			}
			return nil, mapStoreErr(err)
		}
		return state, nil
	}

	state := &session.State{
		SessionID:   uuid.NewString(),
		FlowType:    string(req.FlowType),
		Fingerprint: fingerprint,
	}
	if err := e.store.Create(ctx, state, e.config.Session.TTL); err != nil {
		mapped := mapStoreErr(err)
		if errors.Is(mapped, ErrQuotaExceeded) {
			e.metrics.Inc(MetricSessionQuotaExceeded)
			e.emitAudit(ctx, auditEventSessionQuotaHit, false, req.FlowType, "", "", mapped, nil)
		}
		return nil, mapped
	}

	e.metrics.Inc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, req.FlowType, "", state.SessionID, nil, nil)
	return state, nil
}

// saveSession writes mutated state back and slides the session TTL.
func (e *Engine) saveSession(ctx context.Context, state *session.State) error {
	if err := e.store.Update(ctx, state, e.config.Session.TTL); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// mapStoreErr translates session store sentinels into engine sentinels.
// Anything unrecognized is a backend failure and must not reach the client
// verbatim.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, session.ErrExpired):
		return ErrSessionExpired
	case errors.Is(err, session.ErrQuotaExceeded):
		return ErrQuotaExceeded
	case errors.Is(err, session.ErrRateLimited):
		return ErrRateLimitExceeded
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
