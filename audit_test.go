package authflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hailrides/authflow/session"
)

func TestAuditDisabledDispatcherIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled audit must not start a dispatcher")
	}
	// Nil receivers are safe.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports zero drops")
	}
}

func TestAuditDispatcherDeliversAndDrains(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: true}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventOTPSent})
	}
	d.Close()

	got := 0
	for {
		select {
		case <-sink.Events():
			got++
		default:
			if got != 5 {
				t.Fatalf("expected 5 delivered events, got %d", got)
			}
			return
		}
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// Saturate the worker and the single buffer slot, then overflow.
	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), AuditEvent{})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under backpressure")
	}
	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventLoginSuccess,
		UserID:    "u1",
		Success:   true,
	})

	line := strings.TrimSpace(buf.String())
	var decoded AuditEvent
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", line, err)
	}
	if decoded.EventType != auditEventLoginSuccess || decoded.UserID != "u1" {
		t.Fatalf("unexpected event: %+v", decoded)
	}
}

func TestAuditErrorCodeClassification(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrValidation, auditErrValidation},
		{ErrInvalidOTP, auditErrInvalidOTP},
		{ErrRateLimitExceeded, auditErrRateLimited},
		{ErrStoreUnavailable, auditErrUnavailable},
		{errors.New("anything else"), auditErrInternal},
	}
	for _, tc := range cases {
		if got := auditErrorCode(tc.err); got != tc.want {
			t.Errorf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestEngineEmitsAuditEvents(t *testing.T) {
	sink := NewChannelSink(64)

	cfg := defaultConfig()
	cfg.JWT.PrivateKey = []byte("test-secret-0123456789")
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64

	engine, err := New().
		WithConfig(cfg).
		WithStore(session.NewMemoryStore(session.Config{})).
		WithUserProvider(newMockProvider()).
		WithEmailSender(&captureEmailSender{}).
		WithSMSSender(&captureSMSSender{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	req := submitReq(FlowInitial, ScreenPhoneNumberInitial, EventInputEmail, "",
		FieldAnswer{FieldType: FieldEmailAddress, Value: "a@example.com"})
	if _, err := engine.Submit(context.Background(), req); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	engine.Close()

	seen := map[string]bool{}
	for {
		select {
		case ev := <-sink.Events():
			seen[ev.EventType] = true
		default:
			if !seen[auditEventSessionCreated] || !seen[auditEventOTPSent] {
				t.Fatalf("expected session_created and otp_sent events, saw %v", seen)
			}
			return
		}
	}
}
