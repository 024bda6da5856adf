package authflow

import (
	"context"
	"io"

	"github.com/MrEthical07/authflow/gateway"
	internalaudit "github.com/MrEthical07/authflow/internal/audit"
	internalmetrics "github.com/MrEthical07/authflow/internal/metrics"
	"go.uber.org/zap"
)

// Screen names the page a controller backs. It is also the audit screen label.
type Screen string

const (
	ScreenLogin              Screen = "login"
	ScreenRegister           Screen = "register"
	ScreenForgotPassword     Screen = "forgot_password"
	ScreenResetPassword      Screen = "reset_password"
	ScreenResetLanding       Screen = "reset_password_landing"
	ScreenVerifyRegistration Screen = "verify_registration"
	ScreenVerifyEmailChange  Screen = "verify_email_change"
)

// Phase is the tag of a [State].
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseInFlight
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseInFlight:
		return "in_flight"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the submission state of one controller. The concrete types are
// [Idle], [Validating], [InFlight], [Succeeded] and [Failed]; only the
// terminal ones carry feedback.
type State interface {
	Phase() Phase
	state()
}

type Idle struct{}

type Validating struct{}

type InFlight struct{}

// Succeeded holds the server's confirmation. RedirectURL is set when the
// server asked for navigation.
type Succeeded struct {
	Feedback    FeedbackMessage
	RedirectURL string
}

// Failed holds the feedback shown to the user and the cause, which is a
// *ValidationError, *ApplicationError or transport error.
type Failed struct {
	Feedback FeedbackMessage
	Err      error
}

func (Idle) Phase() Phase       { return PhaseIdle }
func (Validating) Phase() Phase { return PhaseValidating }
func (InFlight) Phase() Phase   { return PhaseInFlight }
func (Succeeded) Phase() Phase  { return PhaseSucceeded }
func (Failed) Phase() Phase     { return PhaseFailed }

func (Idle) state()       {}
func (Validating) state() {}
func (InFlight) state()   {}
func (Succeeded) state()  {}
func (Failed) state()     {}

// FeedbackOf returns the feedback carried by s, if any.
func FeedbackOf(s State) (FeedbackMessage, bool) {
	switch v := s.(type) {
	case Succeeded:
		return v.Feedback, true
	case Failed:
		return v.Feedback, true
	default:
		return FeedbackMessage{}, false
	}
}

// FeedbackKind selects how feedback is rendered.
type FeedbackKind uint8

const (
	FeedbackError FeedbackKind = iota + 1
	FeedbackSuccess
)

func (k FeedbackKind) String() string {
	if k == FeedbackSuccess {
		return "success"
	}
	return "error"
}

// ActionLink is a follow-up the user may take, e.g. "Go to login".
type ActionLink struct {
	Target string
	Text   string
}

// FeedbackMessage is what the screen shows after a submission. Every new
// outcome replaces the previous message.
type FeedbackMessage struct {
	Kind            FeedbackKind
	Text            string
	Detail          string
	ActionLink      *ActionLink
	ResendAvailable bool
}

// ResendState is a snapshot of the resend sub-flow.
type ResendState struct {
	PendingEmail string
	InFlight     bool
}

// Navigator performs client-side navigation. Targets are paths such as
// "/login".
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, target string) error

func (f NavigatorFunc) Navigate(ctx context.Context, target string) error {
	return f(ctx, target)
}

// Observer is told about every state transition of every controller built
// from one Client. It runs outside controller locks.
type Observer func(screen Screen, s State)

// Caller performs one gateway request. *gateway.Client implements it.
type Caller interface {
	Do(ctx context.Context, req gateway.Request) (gateway.Result, error)
}

// SessionInfo is what the session cookie says about the signed-in user.
// It is decoded without verifying the signature.
type SessionInfo struct {
	Subject   string
	Email     string
	Username  string
	ExpiresAt int64
	Expired   bool
}

// AuditEvent is a structured record emitted by controllers.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the Client's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes JSON-encoded events to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink logs events through zap.
type ZapSink = internalaudit.ZapSink

// NewChannelSink creates a sink with a buffered event channel.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink writes one JSON object per event to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZapSink logs events at info through logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}

// MetricID identifies a counter or histogram in the in-process metrics.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess              = MetricID(internalmetrics.MetricLoginSuccess)
	MetricLoginFailure              = MetricID(internalmetrics.MetricLoginFailure)
	MetricRegisterSuccess           = MetricID(internalmetrics.MetricRegisterSuccess)
	MetricRegisterFailure           = MetricID(internalmetrics.MetricRegisterFailure)
	MetricForgotPasswordSuccess     = MetricID(internalmetrics.MetricForgotPasswordSuccess)
	MetricForgotPasswordFailure     = MetricID(internalmetrics.MetricForgotPasswordFailure)
	MetricResetPasswordSuccess      = MetricID(internalmetrics.MetricResetPasswordSuccess)
	MetricResetPasswordFailure      = MetricID(internalmetrics.MetricResetPasswordFailure)
	MetricVerifyRegistrationSuccess = MetricID(internalmetrics.MetricVerifyRegistrationSuccess)
	MetricVerifyRegistrationFailure = MetricID(internalmetrics.MetricVerifyRegistrationFailure)
	MetricVerifyEmailChangeSuccess  = MetricID(internalmetrics.MetricVerifyEmailChangeSuccess)
	MetricVerifyEmailChangeFailure  = MetricID(internalmetrics.MetricVerifyEmailChangeFailure)
	MetricResetTokenValid           = MetricID(internalmetrics.MetricResetTokenValid)
	MetricResetTokenInvalid         = MetricID(internalmetrics.MetricResetTokenInvalid)
	MetricResendSuccess             = MetricID(internalmetrics.MetricResendSuccess)
	MetricResendFailure             = MetricID(internalmetrics.MetricResendFailure)
	MetricValidationRejected        = MetricID(internalmetrics.MetricValidationRejected)
	MetricTransportFailure          = MetricID(internalmetrics.MetricTransportFailure)
	MetricRateLimited               = MetricID(internalmetrics.MetricRateLimited)
	MetricDuplicateSubmit           = MetricID(internalmetrics.MetricDuplicateSubmit)
	MetricMissingToken              = MetricID(internalmetrics.MetricMissingToken)
	MetricNavigationFailure         = MetricID(internalmetrics.MetricNavigationFailure)
	MetricGatewayLatency            = MetricID(internalmetrics.MetricGatewayLatency)
)

// Metrics holds atomic counters and the optional gateway latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics]. When cfg.Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
