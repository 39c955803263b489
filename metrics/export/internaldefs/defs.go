package internaldefs

import (
	authflow "github.com/hailrides/authflow"
)

// CounterDef defines a public type used by authflow exporter APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authflow exporter APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the flow engine exporters.
var CounterDefs = []CounterDef{
	{ID: authflow.MetricSubmitSuccess, Name: "authflow_submit_success_total", Help: "Successful step submissions."},
	{ID: authflow.MetricSubmitRejected, Name: "authflow_submit_rejected_total", Help: "Rejected step submissions."},
	{ID: authflow.MetricSubmitRateLimited, Name: "authflow_submit_rate_limited_total", Help: "Rate-limited step submissions."},
	{ID: authflow.MetricInvalidTransition, Name: "authflow_invalid_transition_total", Help: "Submissions with no matching flow transition."},
	{ID: authflow.MetricSessionCreated, Name: "authflow_session_created_total", Help: "Created flow sessions."},
	{ID: authflow.MetricSessionQuotaExceeded, Name: "authflow_session_quota_exceeded_total", Help: "Session creations rejected by the per-client quota."},
	{ID: authflow.MetricSessionExpired, Name: "authflow_session_expired_total", Help: "Submissions against expired sessions."},
	{ID: authflow.MetricOTPSent, Name: "authflow_otp_sent_total", Help: "Delivered one-time codes."},
	{ID: authflow.MetricOTPResent, Name: "authflow_otp_resent_total", Help: "Redelivered one-time codes."},
	{ID: authflow.MetricOTPInvalid, Name: "authflow_otp_invalid_total", Help: "Rejected one-time code submissions."},
	{ID: authflow.MetricOTPVerified, Name: "authflow_otp_verified_total", Help: "Accepted one-time code submissions."},
	{ID: authflow.MetricDeliveryFailure, Name: "authflow_otp_delivery_failure_total", Help: "One-time code delivery failures."},
	{ID: authflow.MetricFlowReset, Name: "authflow_flow_reset_total", Help: "Abandoned flows via account reset."},
	{ID: authflow.MetricLoginSuccess, Name: "authflow_login_success_total", Help: "Terminal logins."},
	{ID: authflow.MetricAccountCreated, Name: "authflow_account_created_total", Help: "Created accounts."},
}

// HistogramDefs is an exported constant or variable used by the flow engine exporters.
var HistogramDefs = []HistogramDef{
	{ID: authflow.MetricSubmitLatency, Name: "authflow_submit_latency_seconds", Help: "Submit latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the flow engine exporters.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the flow engine exporters.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width
// exporters render.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus and OTel expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
