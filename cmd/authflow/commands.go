package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/prefs"
	"github.com/spf13/cobra"
)

// resender is implemented by every controller with a resend action.
type resender interface {
	Resend(ctx context.Context) (authflow.State, error)
	State() authflow.State
}

// maybeResend resends when asked to and the feedback on screen offers it.
func maybeResend(ctx context.Context, r *renderer, c resender, want bool) error {
	fb, ok := authflow.FeedbackOf(c.State())
	if !want || !ok || !fb.ResendAvailable {
		return nil
	}
	s, err := c.Resend(ctx)
	return finish(r, s, err)
}

func passwordFlag(v string) string {
	if v != "" {
		return v
	}
	return os.Getenv(envPrefix + "PASSWORD")
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	var resend bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx)
			if err != nil {
				return err
			}
			r := a.Renderer(ctx)

			form := client.NewLogin()
			if err := errors.Join(form.SetEmail(email), form.SetPassword(passwordFlag(password))); err != nil {
				return err
			}
			s, err := form.Submit(ctx)
			r.State(s)
			if err := maybeResend(ctx, r, form, resend); err != nil {
				return err
			}
			if _, failed := s.(authflow.Failed); failed {
				return errReported
			}
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (env AUTHFLOW_PASSWORD)")
	cmd.Flags().BoolVar(&resend, "resend", false, "resend the verification email when offered")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var username, email, password, confirm string
	var resend bool
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx)
			if err != nil {
				return err
			}
			r := a.Renderer(ctx)

			form := client.NewRegister()
			pw := passwordFlag(password)
			if confirm == "" {
				confirm = os.Getenv(envPrefix + "CONFIRM_PASSWORD")
			}
			if err := errors.Join(
				form.SetUsername(username),
				form.SetEmail(email),
				form.SetPassword(pw),
				form.SetConfirmPassword(confirm),
			); err != nil {
				return err
			}
			s, err := form.Submit(ctx)
			r.State(s)
			if _, failed := s.(authflow.Failed); failed {
				return errReported
			}
			if err != nil {
				return err
			}
			return maybeResend(ctx, r, form, resend)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "letters, digits and underscores, at least 3")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (env AUTHFLOW_PASSWORD)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password again (env AUTHFLOW_CONFIRM_PASSWORD)")
	cmd.Flags().BoolVar(&resend, "resend", false, "immediately request another verification email")
	return cmd
}

func newForgotPasswordCmd(a *app) *cobra.Command {
	var email string
	var resend bool
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx)
			if err != nil {
				return err
			}
			r := a.Renderer(ctx)

			form := client.NewForgotPassword(email)
			s, err := form.Submit(ctx)
			r.State(s)
			if err := maybeResend(ctx, r, form, resend); err != nil {
				return err
			}
			if _, failed := s.(authflow.Failed); failed {
				return errReported
			}
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&resend, "resend", false, "request the email again when offered")
	return cmd
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var token, password, confirm, newLinkTo string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password using the emailed reset token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx)
			if err != nil {
				return err
			}
			r := a.Renderer(ctx)

			landing := client.NewResetPasswordLanding()
			s, err := landing.Mount(ctx, url.Values{"token": {token}})
			if _, failed := s.(authflow.Failed); failed {
				r.State(s)
				return requestNewLink(ctx, r, landing.TokenScreen, newLinkTo)
			}
			if err != nil {
				return err
			}

			form, err := landing.Form()
			if err != nil {
				return err
			}
			if confirm == "" {
				confirm = os.Getenv(envPrefix + "CONFIRM_PASSWORD")
			}
			if err := errors.Join(form.SetPassword(passwordFlag(password)), form.SetConfirmPassword(confirm)); err != nil {
				return err
			}
			s, err = form.Submit(ctx)
			return finish(r, s, err)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token from the reset link")
	cmd.Flags().StringVar(&password, "password", "", "new password (env AUTHFLOW_PASSWORD)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "new password again (env AUTHFLOW_CONFIRM_PASSWORD)")
	cmd.Flags().StringVar(&newLinkTo, "new-link-to", "", "when the link is invalid, send a fresh one to this email")
	return cmd
}

// requestNewLink asks for a fresh emailed link after a failed mount when an
// address was given and the server offered it.
func requestNewLink(ctx context.Context, r *renderer, screen *authflow.TokenScreen, email string) error {
	fb, _ := screen.Feedback()
	if email == "" || !fb.ResendAvailable {
		return errReported
	}
	s, err := screen.RequestNewLink(ctx, email)
	var verr *authflow.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return finish(r, s, err)
}

func newVerifyRegistrationCmd(a *app) *cobra.Command {
	var token, newLinkTo string
	cmd := &cobra.Command{
		Use:   "verify-registration",
		Short: "Confirm a new account with the emailed token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx)
			if err != nil {
				return err
			}
			r := a.Renderer(ctx)

			screen := client.NewVerifyRegistration()
			s, err := screen.Mount(ctx, url.Values{"token": {token}})
			r.State(s)
			if _, failed := s.(authflow.Failed); failed {
				return requestNewLink(ctx, r, screen, newLinkTo)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token from the verification link")
	cmd.Flags().StringVar(&newLinkTo, "new-link-to", "", "when the link is invalid, send a fresh one to this email")
	return cmd
}

func newVerifyEmailChangeCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "verify-email-change",
		Short: "Confirm a changed email address with the emailed token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx)
			if err != nil {
				return err
			}
			s, err := client.NewVerifyEmailChange().Mount(ctx, url.Values{"token": {token}})
			return finish(a.Renderer(ctx), s, err)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token from the confirmation link")
	return cmd
}

func newMarketCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Show today's best and worst stocks and the latest transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.Market(ctx)
			if err != nil {
				return err
			}
			ov, err := svc.Overview(ctx)
			a.Renderer(ctx).Overview(ov)
			if err != nil {
				return errReported
			}
			return nil
		},
	}
}

func newThemeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the UI theme preference",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.Prefs(cmd.Context())
			if err != nil {
				return err
			}
			r := a.Renderer(cmd.Context())
			r.Line("%s (renders %s)", m.Theme(), r.theme)
			return nil
		},
	}

	set := &cobra.Command{
		Use:       "set <light|dark|system>",
		Short:     "Change the UI theme preference",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(prefs.ThemeLight), string(prefs.ThemeDark), string(prefs.ThemeSystem)},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := prefs.ParseTheme(args[0])
			if err != nil {
				return err
			}
			m, err := a.Prefs(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.Set(cmd.Context(), t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s\n", t)
			return nil
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print theme changes made from other terminals (requires Redis)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.Prefs(cmd.Context())
			if err != nil {
				return err
			}
			changes, err := m.Watch(cmd.Context())
			if err != nil {
				return err
			}
			for t := range changes {
				fmt.Fprintf(cmd.OutOrStdout(), "theme changed to %s\n", t)
			}
			return nil
		},
	}

	cmd.AddCommand(set, watch)
	return cmd
}

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the signed-in user from the session cookie",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx)
			if err != nil {
				return err
			}
			info, err := client.Session(ctx)
			if errors.Is(err, authflow.ErrNoSession) {
				a.Renderer(ctx).Line("not signed in")
				return nil
			}
			if err != nil {
				return err
			}
			a.Renderer(ctx).Session(info)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the session cookies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.Client(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.ClearSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		},
	})
	return cmd
}
