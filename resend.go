package authflow

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authflow/gateway"
	"github.com/MrEthical07/authflow/internal/flows"
)

// resendTarget is where a screen's secondary "send it again" action goes.
type resendTarget struct {
	path             string
	defaultFailure   string
	transportFailure string
	// strict follows the token screens: success ignores the HTTP status and
	// an absent showResendButton hides the action.
	strict bool
}

func verificationResend(cfg Config) *resendTarget {
	return &resendTarget{
		path:             cfg.Endpoints.ResendVerification,
		defaultFailure:   "Failed to resend verification email.",
		transportFailure: "Failed to resend verification email. Please try again later.",
	}
}

func passwordResetResend(cfg Config) *resendTarget {
	return &resendTarget{
		path:             cfg.Endpoints.ForgotPassword,
		defaultFailure:   "Failed to request password reset.",
		transportFailure: "Failed to request password reset. Please try again later.",
	}
}

// Resend asks the server to send its email to the captured address again.
// It makes no call without a captured address, while another call is
// running, or when the current feedback does not offer resend.
func (c *controller) Resend(ctx context.Context) (State, error) {
	return c.runResend(ctx, "")
}

// runResend performs the resend call. An explicit email replaces the
// pending one first; it is used by the token screens.
func (c *controller) runResend(ctx context.Context, email string) (State, error) {
	if err := c.client.ready(); err != nil {
		return c.State(), err
	}

	c.mu.Lock()
	if c.resend == nil {
		s := c.state
		c.mu.Unlock()
		return s, ErrResendUnavailable
	}
	if c.busy() {
		s := c.state
		c.mu.Unlock()
		c.client.metrics.Inc(MetricDuplicateSubmit)
		return s, ErrSubmissionInFlight
	}
	if email == "" && c.pendingEmail == "" {
		s := c.state
		c.mu.Unlock()
		return s, ErrNoPendingEmail
	}
	if fb, ok := FeedbackOf(c.state); !ok || !fb.ResendAvailable {
		s := c.state
		c.mu.Unlock()
		return s, ErrResendUnavailable
	}
	if email != "" {
		c.pendingEmail = email
	}
	target := *c.resend
	to := c.pendingEmail
	c.resending = true
	c.mu.Unlock()

	ctx = c.ensureRequestID(ctx)
	out := flows.RunCall(ctx, c.callDeps(flows.CallDeps{
		Event: auditEventResend,
		Request: gateway.Request{
			Method:          http.MethodPost,
			Path:            target.path,
			Body:            flows.NewEmailPayload(to),
			WithCredentials: !target.strict,
		},
		RequireOK:        !target.strict,
		ResendFallback:   !target.strict,
		TransportResend:  true,
		DefaultFailure:   target.defaultFailure,
		TransportFailure: target.transportFailure,
		Metrics: flows.CallMetrics{
			Success:     int(MetricResendSuccess),
			Failure:     int(MetricResendFailure),
			Transport:   int(MetricTransportFailure),
			RateLimited: int(MetricRateLimited),
		},
	}))

	c.mu.Lock()
	c.resending = false
	next := c.outcomeState(out)
	if s, ok := next.(Succeeded); ok {
		// Resend never navigates.
		s.RedirectURL = ""
		next = s
	}
	c.setLocked(next)
	c.unlock()
	return next, failureErr(next)
}
