package authflow

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authflow/gateway"
	"github.com/MrEthical07/authflow/internal/flows"
)

// LoginForm backs the login screen.
type LoginForm struct {
	*controller
	email    string
	password string
}

// NewLogin creates a login controller in the Idle state.
func (c *Client) NewLogin() *LoginForm {
	ctrl := newController(c, ScreenLogin, c.config.Routes.Home)
	ctrl.resend = verificationResend(c.config)
	return &LoginForm{controller: ctrl}
}

// SetEmail replaces the email field.
func (f *LoginForm) SetEmail(v string) error {
	return f.edit(func() { f.email = v })
}

// SetPassword replaces the password field.
func (f *LoginForm) SetPassword(v string) error {
	return f.edit(func() { f.password = v })
}

// Email returns the current email field.
func (f *LoginForm) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Submit validates the fields and, when they pass, posts them to the login
// endpoint. A redirect in a successful answer is handed to the Navigator.
func (f *LoginForm) Submit(ctx context.Context) (State, error) {
	cfg := f.client.config
	return f.submit(ctx, submission{
		rules: flows.LoginRules,
		fields: func() flows.Fields {
			return flows.Fields{Email: f.email, Password: f.password}
		},
		request: func(in flows.Fields) gateway.Request {
			return gateway.Request{
				Method:          http.MethodPost,
				Path:            cfg.Endpoints.Login,
				Body:            flows.NewLoginPayload(in),
				WithCredentials: true,
			}
		},
		call: flows.CallDeps{
			DefaultFailure:   "Login failed. Please check your credentials.",
			TransportFailure: msgTransportFailure,
		},
		settle: func(out flows.Outcome, in flows.Fields, _ *FeedbackMessage) {
			switch out.Kind {
			case flows.OutcomeSucceeded:
				f.password = ""
			case flows.OutcomeRejected:
				if out.ResendOffered {
					f.pendingEmail = in.Email
				}
			}
		},
		successMetric: MetricLoginSuccess,
		failureMetric: MetricLoginFailure,
	})
}

const msgTransportFailure = "An error occurred. Please try again later."
