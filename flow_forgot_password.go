package authflow

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/authflow/gateway"
	"github.com/MrEthical07/authflow/internal/flows"
)

// ForgotPasswordForm backs the "forgot password" screen.
type ForgotPasswordForm struct {
	*controller
	email string
}

// NewForgotPassword creates the controller with the email field pre-filled
// from initialEmail, as when the screen is reached from a link that carried
// the address. The trimmed address is also the pending resend target.
func (c *Client) NewForgotPassword(initialEmail string) *ForgotPasswordForm {
	ctrl := newController(c, ScreenForgotPassword, c.config.Routes.Login)
	ctrl.resend = passwordResetResend(c.config)
	ctrl.pendingEmail = strings.TrimSpace(initialEmail)
	return &ForgotPasswordForm{controller: ctrl, email: initialEmail}
}

// SetEmail replaces the email field.
func (f *ForgotPasswordForm) SetEmail(v string) error {
	return f.edit(func() { f.email = v })
}

// Submit requests a reset mail for the trimmed email.
func (f *ForgotPasswordForm) Submit(ctx context.Context) (State, error) {
	cfg := f.client.config
	return f.submit(ctx, submission{
		rules: flows.ForgotPasswordRules,
		fields: func() flows.Fields {
			return flows.Fields{Email: f.email}
		},
		request: func(in flows.Fields) gateway.Request {
			return gateway.Request{
				Method:          http.MethodPost,
				Path:            cfg.Endpoints.ForgotPassword,
				Body:            flows.NewEmailPayload(in.Email),
				WithCredentials: true,
			}
		},
		call: flows.CallDeps{
			DefaultFailure:   "Request failed. Please try again.",
			TransportFailure: msgTransportFailure,
		},
		accepted: func(in flows.Fields) {
			f.pendingEmail = strings.TrimSpace(in.Email)
		},
		settle: func(out flows.Outcome, _ flows.Fields, _ *FeedbackMessage) {
			if out.Kind == flows.OutcomeSucceeded {
				f.email = ""
			}
		},
		successMetric: MetricForgotPasswordSuccess,
		failureMetric: MetricForgotPasswordFailure,
	})
}
