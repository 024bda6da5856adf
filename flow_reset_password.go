package authflow

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authflow/gateway"
	"github.com/MrEthical07/authflow/internal/flows"
)

// ResetPasswordForm sets a new password for a validated reset token. It is
// obtained from [ResetPasswordLanding.Form] or [Client.NewResetPassword].
type ResetPasswordForm struct {
	*controller
	token    string
	password string
	confirm  string
}

// NewResetPassword binds a form to token without validating it first.
func (c *Client) NewResetPassword(token string) *ResetPasswordForm {
	return &ResetPasswordForm{
		controller: newController(c, ScreenResetPassword, c.config.Routes.Login),
		token:      token,
	}
}

// SetPassword replaces the new password field.
func (f *ResetPasswordForm) SetPassword(v string) error {
	return f.edit(func() { f.password = v })
}

// SetConfirmPassword replaces the confirmation field.
func (f *ResetPasswordForm) SetConfirmPassword(v string) error {
	return f.edit(func() { f.confirm = v })
}

// Submit posts the new password with the token. Success clears both fields
// and offers a link to the login page.
func (f *ResetPasswordForm) Submit(ctx context.Context) (State, error) {
	cfg := f.client.config
	return f.submit(ctx, submission{
		rules: flows.ResetPasswordRules,
		fields: func() flows.Fields {
			return flows.Fields{Password: f.password, Confirm: f.confirm}
		},
		request: func(in flows.Fields) gateway.Request {
			return gateway.Request{
				Method:          http.MethodPost,
				Path:            cfg.Endpoints.ResetPassword,
				Body:            flows.NewResetPayload(f.token, in),
				WithCredentials: true,
			}
		},
		call: flows.CallDeps{
			DefaultFailure:   "Password reset failed. Please try again.",
			TransportFailure: msgTransportFailure,
		},
		settle: func(out flows.Outcome, _ flows.Fields, fb *FeedbackMessage) {
			if out.Kind != flows.OutcomeSucceeded {
				return
			}
			f.password, f.confirm = "", ""
			if fb.ActionLink == nil {
				fb.ActionLink = &ActionLink{Target: cfg.Routes.Login, Text: "Log In Now"}
			}
		},
		successMetric: MetricResetPasswordSuccess,
		failureMetric: MetricResetPasswordFailure,
	})
}
