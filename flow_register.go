package authflow

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authflow/gateway"
	"github.com/MrEthical07/authflow/internal/flows"
)

// RegisterForm backs the registration screen.
type RegisterForm struct {
	*controller
	username string
	email    string
	password string
	confirm  string
}

// NewRegister creates a registration form. Resend goes to the
// resend-verification endpoint.
func (c *Client) NewRegister() *RegisterForm {
	ctrl := newController(c, ScreenRegister, c.config.Routes.Home)
	ctrl.resend = verificationResend(c.config)
	return &RegisterForm{controller: ctrl}
}

// SetUsername replaces the username field.
func (f *RegisterForm) SetUsername(v string) error {
	return f.edit(func() { f.username = v })
}

// SetEmail replaces the email field.
func (f *RegisterForm) SetEmail(v string) error {
	return f.edit(func() { f.email = v })
}

// SetPassword replaces the password field.
func (f *RegisterForm) SetPassword(v string) error {
	return f.edit(func() { f.password = v })
}

// SetConfirmPassword replaces the confirmation field.
func (f *RegisterForm) SetConfirmPassword(v string) error {
	return f.edit(func() { f.confirm = v })
}

// Submit validates and posts the registration. On success every field is
// cleared and the submitted email is kept for resending the verification
// mail.
func (f *RegisterForm) Submit(ctx context.Context) (State, error) {
	cfg := f.client.config
	return f.submit(ctx, submission{
		rules: flows.RegisterRules,
		fields: func() flows.Fields {
			return flows.Fields{Username: f.username, Email: f.email, Password: f.password, Confirm: f.confirm}
		},
		request: func(in flows.Fields) gateway.Request {
			return gateway.Request{
				Method:          http.MethodPost,
				Path:            cfg.Endpoints.Register,
				Body:            flows.NewRegisterPayload(in),
				WithCredentials: true,
			}
		},
		call: flows.CallDeps{
			DefaultFailure:   "Registration failed. Please try again.",
			TransportFailure: msgTransportFailure,
		},
		settle: func(out flows.Outcome, in flows.Fields, _ *FeedbackMessage) {
			switch out.Kind {
			case flows.OutcomeSucceeded:
				f.pendingEmail = in.Email
				f.username, f.email, f.password, f.confirm = "", "", "", ""
			case flows.OutcomeRejected:
				if out.ResendOffered {
					f.pendingEmail = in.Email
				}
			}
		},
		successMetric: MetricRegisterSuccess,
		failureMetric: MetricRegisterFailure,
	})
}
