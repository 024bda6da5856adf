package internaldefs

import (
	"github.com/MrEthical07/authflow"
)

// Label is one constant label of a series.
type Label struct {
	Key   string
	Value string
}

// Series maps one in-process counter onto a labelled sample.
type Series struct {
	ID     authflow.MetricID
	Labels []Label
}

// CounterFamily is one exported counter name with its series.
type CounterFamily struct {
	Name   string
	Help   string
	Series []Series
}

// HistogramDef names an exported histogram.
type HistogramDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

func screenOutcome(screen, outcome string) []Label {
	return []Label{{Key: "screen", Value: screen}, {Key: "outcome", Value: outcome}}
}

// CounterFamilies lists every exported counter in render order.
var CounterFamilies = []CounterFamily{
	{
		Name: "authflow_submissions_total",
		Help: "Form submissions that reached the server, by screen and outcome.",
		Series: []Series{
			{ID: authflow.MetricLoginSuccess, Labels: screenOutcome("login", "success")},
			{ID: authflow.MetricLoginFailure, Labels: screenOutcome("login", "failure")},
			{ID: authflow.MetricRegisterSuccess, Labels: screenOutcome("register", "success")},
			{ID: authflow.MetricRegisterFailure, Labels: screenOutcome("register", "failure")},
			{ID: authflow.MetricForgotPasswordSuccess, Labels: screenOutcome("forgot_password", "success")},
			{ID: authflow.MetricForgotPasswordFailure, Labels: screenOutcome("forgot_password", "failure")},
			{ID: authflow.MetricResetPasswordSuccess, Labels: screenOutcome("reset_password", "success")},
			{ID: authflow.MetricResetPasswordFailure, Labels: screenOutcome("reset_password", "failure")},
		},
	},
	{
		Name: "authflow_token_checks_total",
		Help: "Emailed link tokens checked on mount, by screen and outcome.",
		Series: []Series{
			{ID: authflow.MetricVerifyRegistrationSuccess, Labels: screenOutcome("verify_registration", "success")},
			{ID: authflow.MetricVerifyRegistrationFailure, Labels: screenOutcome("verify_registration", "failure")},
			{ID: authflow.MetricVerifyEmailChangeSuccess, Labels: screenOutcome("verify_email_change", "success")},
			{ID: authflow.MetricVerifyEmailChangeFailure, Labels: screenOutcome("verify_email_change", "failure")},
			{ID: authflow.MetricResetTokenValid, Labels: screenOutcome("reset_password_landing", "success")},
			{ID: authflow.MetricResetTokenInvalid, Labels: screenOutcome("reset_password_landing", "failure")},
		},
	},
	{
		Name: "authflow_resends_total",
		Help: "Resend requests that reached the server, by outcome.",
		Series: []Series{
			{ID: authflow.MetricResendSuccess, Labels: []Label{{Key: "outcome", Value: "success"}}},
			{ID: authflow.MetricResendFailure, Labels: []Label{{Key: "outcome", Value: "failure"}}},
		},
	},
	{
		Name:   "authflow_validation_rejected_total",
		Help:   "Submissions rejected by client-side rules before any call.",
		Series: []Series{{ID: authflow.MetricValidationRejected}},
	},
	{
		Name:   "authflow_transport_failures_total",
		Help:   "Calls that produced no usable response.",
		Series: []Series{{ID: authflow.MetricTransportFailure}},
	},
	{
		Name:   "authflow_rate_limited_total",
		Help:   "Calls answered with HTTP 429.",
		Series: []Series{{ID: authflow.MetricRateLimited}},
	},
	{
		Name:   "authflow_duplicate_submits_total",
		Help:   "Submits or resends refused because a call was already in flight.",
		Series: []Series{{ID: authflow.MetricDuplicateSubmit}},
	},
	{
		Name:   "authflow_missing_token_total",
		Help:   "Token screens opened without a token.",
		Series: []Series{{ID: authflow.MetricMissingToken}},
	},
	{
		Name:   "authflow_navigation_failures_total",
		Help:   "Navigator calls that returned an error.",
		Series: []Series{{ID: authflow.MetricNavigationFailure}},
	},
}

// HistogramDefs lists exported histograms.
var HistogramDefs = []HistogramDef{
	{ID: authflow.MetricGatewayLatency, Name: "authflow_gateway_latency_seconds", Help: "Gateway round-trip latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "authflow_audit_dropped_total"

// HistogramBounds are the upper bounds, in seconds, of the 8 buckets.
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

// HistogramBoundSuffix spells HistogramBounds for instrument names.
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

// NormalizeBuckets copies raw into a fixed array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
