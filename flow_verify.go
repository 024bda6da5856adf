package authflow

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/authflow/gateway"
	"github.com/MrEthical07/authflow/internal/flows"
	"go.uber.org/zap"
)

// tokenCheck describes what one token screen does on mount.
type tokenCheck struct {
	endpoint         string
	missingToken     string
	defaultSuccess   string
	defaultFailure   string
	transportFailure string
	successLink      *ActionLink
	failureLink      *ActionLink
	successMetric    MetricID
	failureMetric    MetricID
}

// TokenScreen is a page opened from an emailed link. It reads the token from
// its entry parameters exactly once, on Mount.
type TokenScreen struct {
	*controller
	check   tokenCheck
	mounted bool
	token   string
	valid   bool
}

// NewVerifyRegistration backs the registration confirmation link. When the
// server offers it, a fresh link can be requested with RequestNewLink.
func (c *Client) NewVerifyRegistration() *TokenScreen {
	cfg := c.config
	ctrl := newController(c, ScreenVerifyRegistration, cfg.Routes.Root)
	ctrl.resend = &resendTarget{
		path:             cfg.Endpoints.ResendVerification,
		defaultFailure:   "Failed to resend verification email.",
		transportFailure: "Failed to resend verification email. Please try again.",
		strict:           true,
	}
	return &TokenScreen{
		controller: ctrl,
		check: tokenCheck{
			endpoint:         cfg.Endpoints.VerifyRegistration,
			missingToken:     "No verification token provided. Please check your email link.",
			defaultSuccess:   "Your email has been verified.",
			defaultFailure:   "Email verification failed.",
			transportFailure: "Failed to verify email. Please try again later.",
			successLink:      &ActionLink{Target: cfg.Routes.Login, Text: "Log In Now"},
			successMetric:    MetricVerifyRegistrationSuccess,
			failureMetric:    MetricVerifyRegistrationFailure,
		},
	}
}

// NewVerifyEmailChange backs the link confirming a changed email address.
func (c *Client) NewVerifyEmailChange() *TokenScreen {
	cfg := c.config
	return &TokenScreen{
		controller: newController(c, ScreenVerifyEmailChange, cfg.Routes.Root),
		check: tokenCheck{
			endpoint:         cfg.Endpoints.VerifyEmailChange,
			missingToken:     "No verification token provided. Please check your email link.",
			defaultSuccess:   "Your email address has been updated.",
			defaultFailure:   "Email change verification failed.",
			transportFailure: "Failed to verify email change. Please try again later.",
			successLink:      &ActionLink{Target: cfg.Routes.Login, Text: "Log In Now"},
			failureLink:      &ActionLink{Target: cfg.Routes.Login, Text: "Log In"},
			successMetric:    MetricVerifyEmailChangeSuccess,
			failureMetric:    MetricVerifyEmailChangeFailure,
		},
	}
}

// Mount reads "token" from params and checks it with the server. A second
// call returns ErrAlreadyMounted and changes nothing. Without a token the
// screen fails at once and no call is made.
func (s *TokenScreen) Mount(ctx context.Context, params url.Values) (State, error) {
	if err := s.client.ready(); err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	if s.mounted {
		st := s.state
		s.mu.Unlock()
		return st, ErrAlreadyMounted
	}
	s.mounted = true

	token := params.Get("token")
	if token == "" {
		failed := Failed{
			Feedback: FeedbackMessage{Kind: FeedbackError, Text: s.check.missingToken},
			Err:      ErrMissingToken,
		}
		s.setLocked(failed)
		s.unlock()

		s.client.metrics.Inc(MetricMissingToken)
		s.client.emitAudit(ctx, s.screen, auditEventMount, false, ErrMissingToken, nil)
		return failed, ErrMissingToken
	}

	s.token = token
	s.submitting = true
	s.setLocked(InFlight{})
	s.unlock()

	path, query := tokenEndpoint(s.check.endpoint, token)
	ctx = s.ensureRequestID(ctx)
	out := flows.RunCall(ctx, s.callDeps(flows.CallDeps{
		Event: auditEventMount,
		Request: gateway.Request{
			Method: http.MethodGet,
			Path:   path,
			Query:  query,
		},
		DefaultSuccess:   s.check.defaultSuccess,
		DefaultFailure:   s.check.defaultFailure,
		TransportFailure: s.check.transportFailure,
		Metrics: flows.CallMetrics{
			Success:     int(s.check.successMetric),
			Failure:     int(s.check.failureMetric),
			Transport:   int(MetricTransportFailure),
			RateLimited: int(MetricRateLimited),
		},
	}))

	s.mu.Lock()
	s.submitting = false
	next := s.outcomeState(out)
	switch v := next.(type) {
	case Succeeded:
		s.valid = true
		v.RedirectURL = ""
		if v.Feedback.ActionLink == nil {
			v.Feedback.ActionLink = s.check.successLink
		}
		v.Feedback.ResendAvailable = false
		next = v
	case Failed:
		if v.Feedback.ActionLink == nil {
			v.Feedback.ActionLink = s.check.failureLink
		}
		// Transport failures never offer a new link.
		v.Feedback.ResendAvailable = v.Feedback.ResendAvailable && s.resend != nil && out.Kind == flows.OutcomeRejected
		next = v
	}
	s.setLocked(next)
	s.unlock()

	s.client.logger.Debug("token screen mounted",
		zap.String("screen", string(s.screen)),
		zap.String("outcome", out.Kind.String()),
	)
	return next, failureErr(next)
}

// Token returns the token read on Mount.
func (s *TokenScreen) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// RequestNewLink sends a fresh link to email. It is only available while
// the current feedback offers it. An invalid email is rejected with a
// *ValidationError and leaves the state untouched.
func (s *TokenScreen) RequestNewLink(ctx context.Context, email string) (State, error) {
	email = strings.TrimSpace(email)
	if v := flows.Check(flows.EmailCaptureRules, flows.Fields{Email: email}); v != nil {
		s.client.metrics.Inc(MetricValidationRejected)
		return s.State(), &ValidationError{Field: v.Field, Message: v.Message}
	}
	return s.runResend(ctx, email)
}

// ResetPasswordLanding is the page a password reset email links to. Once
// the token checks out, Form yields the new-password form bound to it.
type ResetPasswordLanding struct {
	*TokenScreen
}

// NewResetPasswordLanding creates the screen that checks an emailed reset
// token before the new password form is shown.
func (c *Client) NewResetPasswordLanding() *ResetPasswordLanding {
	cfg := c.config
	ctrl := newController(c, ScreenResetLanding, cfg.Routes.Root)
	ctrl.resend = &resendTarget{
		path:             cfg.Endpoints.ForgotPassword,
		defaultFailure:   "Failed to send reset email.",
		transportFailure: "Failed to send reset email. Please try again.",
		strict:           true,
	}
	return &ResetPasswordLanding{TokenScreen: &TokenScreen{
		controller: ctrl,
		check: tokenCheck{
			endpoint:         cfg.Endpoints.ValidateResetToken,
			missingToken:     "No reset token provided. Please check your email link.",
			defaultFailure:   "This reset link is invalid or has expired.",
			transportFailure: "Failed to validate reset token. Please try again later.",
			successMetric:    MetricResetTokenValid,
			failureMetric:    MetricResetTokenInvalid,
		},
	}}
}

// Form returns the new-password form, or ErrTokenNotValidated until Mount
// succeeded.
func (l *ResetPasswordLanding) Form() (*ResetPasswordForm, error) {
	l.mu.Lock()
	valid, token := l.valid, l.token
	l.mu.Unlock()
	if !valid {
		return nil, ErrTokenNotValidated
	}
	return l.client.NewResetPassword(token), nil
}
