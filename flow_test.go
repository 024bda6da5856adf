package authflow

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/MrEthical07/authflow/gateway"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/google/go-cmp/cmp"
)

var errDial = &gateway.TransportError{Op: "POST", Err: errors.New("connection refused")}

func mustFailed(t *testing.T, s State) Failed {
	t.Helper()
	f, ok := s.(Failed)
	if !ok {
		t.Fatalf("expected Failed, got %T (%v)", s, s.Phase())
	}
	return f
}

func mustSucceeded(t *testing.T, s State) Succeeded {
	t.Helper()
	v, ok := s.(Succeeded)
	if !ok {
		t.Fatalf("expected Succeeded, got %T (%v)", s, s.Phase())
	}
	return v
}

func TestLoginValidationChain(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"both empty", "", "", "Please enter both email and password"},
		{"email empty", "", "abc12345", "Please enter your email address"},
		{"password empty", "trader@example.com", "", "Please enter your password"},
		{"bad email", "notanemail", "abc12345", "Please enter a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			login := env.client.NewLogin()
			_ = login.SetEmail(tt.email)
			_ = login.SetPassword(tt.password)

			s, err := login.Submit(context.Background())
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			f := mustFailed(t, s)
			if f.Feedback.Text != tt.want || f.Feedback.Kind != FeedbackError {
				t.Fatalf("feedback = %+v, want %q", f.Feedback, tt.want)
			}
			if n := len(env.caller.calls()); n != 0 {
				t.Fatalf("expected no gateway call, got %d", n)
			}
		})
	}
}

func TestLoginInvalidCredentialsKeepsFields(t *testing.T) {
	env := newTestEnv(t)
	env.caller.push(rejected(http.StatusUnauthorized, "Invalid credentials"))

	login := env.client.NewLogin()
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")

	s, err := login.Submit(context.Background())
	var appErr *ApplicationError
	if !errors.As(err, &appErr) || appErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected ApplicationError 401, got %v", err)
	}
	want := FeedbackMessage{Kind: FeedbackError, Text: "Invalid credentials"}
	if diff := cmp.Diff(want, mustFailed(t, s).Feedback); diff != "" {
		t.Fatalf("feedback mismatch (-want +got):\n%s", diff)
	}
	if login.Email() != "a@b.co" || login.password != "abc12345" {
		t.Fatalf("fields must survive a rejected login")
	}

	calls := env.caller.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	want2 := gateway.Request{
		Method:          http.MethodPost,
		Path:            "/api/auth/login",
		Body:            flows.LoginPayload{Email: "a@b.co", Password: "abc12345"},
		WithCredentials: true,
	}
	if diff := cmp.Diff(want2, calls[0]); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginDefaultFailureMessage(t *testing.T) {
	env := newTestEnv(t)
	env.caller.push(rejected(http.StatusBadRequest, ""))

	login := env.client.NewLogin()
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")
	s, _ := login.Submit(context.Background())

	if got := mustFailed(t, s).Feedback.Text; got != "Login failed. Please check your credentials." {
		t.Fatalf("text = %q", got)
	}
}

func TestLoginSuccessRedirectsAndClearsPassword(t *testing.T) {
	env := newTestEnv(t)
	res := ok("Login successful")
	res.RedirectURL = "/home"
	env.caller.push(res)

	login := env.client.NewLogin()
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")

	s, err := login.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	succ := mustSucceeded(t, s)
	if succ.RedirectURL != "/home" || succ.Feedback.Kind != FeedbackSuccess {
		t.Fatalf("unexpected success state %+v", succ)
	}
	if diff := cmp.Diff([]string{"/home"}, env.nav.all()); diff != "" {
		t.Fatalf("navigation mismatch (-want +got):\n%s", diff)
	}
	if login.password != "" {
		t.Fatal("password must be cleared after success")
	}
	if login.Email() != "a@b.co" {
		t.Fatal("email must be kept after success")
	}
}

func TestLoginTransportFailure(t *testing.T) {
	env := newTestEnv(t)
	env.caller.fail(errDial)

	login := env.client.NewLogin()
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")

	s, err := login.Submit(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	f := mustFailed(t, s)
	if f.Feedback.Text != "An error occurred. Please try again later." || f.Feedback.ResendAvailable {
		t.Fatalf("unexpected feedback %+v", f.Feedback)
	}
	if got := env.client.MetricsSnapshot().Counters[MetricTransportFailure]; got != 1 {
		t.Fatalf("transport failures = %d", got)
	}
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.caller.push(rejected(http.StatusTooManyRequests, "Too many login attempts"))

	login := env.client.NewLogin()
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")

	s, err := login.Submit(context.Background())
	if !errors.Is(err, ErrRateLimited) || !errors.Is(err, ErrApplication) {
		t.Fatalf("expected rate limited application error, got %v", err)
	}
	if mustFailed(t, s).Feedback.Text != "Too many login attempts" {
		t.Fatal("rate limited answer must show the server message")
	}
	snap := env.client.MetricsSnapshot()
	if snap.Counters[MetricRateLimited] != 1 || snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestUnverifiedLoginOffersResendAndSurvivesTransportFailure(t *testing.T) {
	env := newTestEnv(t)
	unverified := rejected(http.StatusForbidden, "Please verify your email before logging in.")
	unverified.ShowResend = boolPtr(true)
	env.caller.push(unverified).fail(errDial)

	login := env.client.NewLogin()
	_ = login.SetEmail("trader@example.com")
	_ = login.SetPassword("abc12345")

	s, _ := login.Submit(context.Background())
	if !mustFailed(t, s).Feedback.ResendAvailable {
		t.Fatal("resend must be offered")
	}
	if got := login.ResendState().PendingEmail; got != "trader@example.com" {
		t.Fatalf("pending email = %q", got)
	}

	s, err := login.Resend(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	f := mustFailed(t, s)
	if f.Feedback.Text != "Failed to resend verification email. Please try again later." {
		t.Fatalf("text = %q", f.Feedback.Text)
	}
	if !f.Feedback.ResendAvailable {
		t.Fatal("resend stays available after a transport failure")
	}
	if login.ResendState() != (ResendState{PendingEmail: "trader@example.com"}) {
		t.Fatalf("unexpected resend state %+v", login.ResendState())
	}
}

func TestResendWithoutPendingEmailMakesNoCall(t *testing.T) {
	env := newTestEnv(t)
	login := env.client.NewLogin()

	s, err := login.Resend(context.Background())
	if !errors.Is(err, ErrNoPendingEmail) {
		t.Fatalf("expected ErrNoPendingEmail, got %v", err)
	}
	if _, ok := s.(Idle); !ok {
		t.Fatalf("state changed to %T", s)
	}
	if n := len(env.caller.calls()); n != 0 {
		t.Fatalf("expected no calls, got %d", n)
	}
}

func TestResendRefusedWhenFeedbackDoesNotOfferIt(t *testing.T) {
	env := newTestEnv(t)
	env.caller.push(rejected(http.StatusUnauthorized, "Invalid credentials"))

	login := env.client.NewLogin()
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")
	_, _ = login.Submit(context.Background())

	login.pendingEmail = "a@b.co"
	if _, err := login.Resend(context.Background()); !errors.Is(err, ErrResendUnavailable) {
		t.Fatalf("expected ErrResendUnavailable, got %v", err)
	}
	if n := len(env.caller.calls()); n != 1 {
		t.Fatalf("expected only the login call, got %d", n)
	}
}

func TestRegisterThenResendReplacesFeedback(t *testing.T) {
	env := newTestEnv(t)
	registered := ok("Registration successful! Please check your email to verify your account.")
	registered.ShowResend = boolPtr(true)
	env.caller.push(registered).push(ok("Verification email sent."))

	reg := env.client.NewRegister()
	_ = reg.SetUsername("trader_1")
	_ = reg.SetEmail("trader@example.com")
	_ = reg.SetPassword("abc12345")
	_ = reg.SetConfirmPassword("abc12345")

	s, err := reg.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !mustSucceeded(t, s).Feedback.ResendAvailable {
		t.Fatal("resend must be offered after registration")
	}
	if reg.username != "" || reg.email != "" || reg.password != "" || reg.confirm != "" {
		t.Fatal("register fields must be cleared")
	}

	s, err = reg.Resend(context.Background())
	if err != nil {
		t.Fatalf("Resend: %v", err)
	}
	want := FeedbackMessage{Kind: FeedbackSuccess, Text: "Verification email sent.", ResendAvailable: true}
	if diff := cmp.Diff(want, mustSucceeded(t, s).Feedback); diff != "" {
		t.Fatalf("feedback mismatch (-want +got):\n%s", diff)
	}

	calls := env.caller.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Body != (flows.RegisterPayload{Username: "trader_1", Email: "trader@example.com", Password: "abc12345"}) {
		t.Fatalf("register body = %#v", calls[0].Body)
	}
	if calls[1].Path != "/api/auth/resend-verification" || calls[1].Body != (flows.EmailPayload{Email: "trader@example.com"}) {
		t.Fatalf("resend request = %#v", calls[1])
	}
}

func TestRegisterValidationChain(t *testing.T) {
	tests := []struct {
		name                               string
		username, email, password, confirm string
		want                               string
	}{
		{"all empty", "", "", "", "", "Please fill in all fields"},
		{"username", "", "a@b.co", "abc12345", "abc12345", "Please enter a username"},
		{"confirm", "trader", "a@b.co", "abc12345", "", "Please confirm your password"},
		{"short username", "ab", "a@b.co", "abc12345", "abc12345", "Username must be at least 3 characters and contain only letters, numbers, and underscores"},
		{"weak password", "trader", "a@b.co", "abcdefgh", "abcdefgh", "Password must be at least 8 characters with at least one letter and one number"},
		{"mismatch", "trader", "a@b.co", "abc12345", "abc12346", "Passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			reg := env.client.NewRegister()
			_ = reg.SetUsername(tt.username)
			_ = reg.SetEmail(tt.email)
			_ = reg.SetPassword(tt.password)
			_ = reg.SetConfirmPassword(tt.confirm)

			s, _ := reg.Submit(context.Background())
			if got := mustFailed(t, s).Feedback.Text; got != tt.want {
				t.Fatalf("text = %q, want %q", got, tt.want)
			}
			if len(env.caller.calls()) != 0 {
				t.Fatal("validation failure must not call the gateway")
			}
		})
	}
}

func TestDuplicateSubmitPerformsOneCall(t *testing.T) {
	env := newTestEnv(t)
	env.caller.entered = make(chan struct{})
	env.caller.release = make(chan struct{})
	env.caller.push(ok("Login successful"))

	login := env.client.NewLogin()
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = login.Submit(context.Background())
	}()
	<-env.caller.entered

	s, err := login.Submit(context.Background())
	if !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if s.Phase() != PhaseInFlight {
		t.Fatalf("phase = %v", s.Phase())
	}
	if err := login.SetEmail("other@b.co"); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("edits must be refused in flight, got %v", err)
	}
	if _, err := login.Resend(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("resend must be refused in flight, got %v", err)
	}

	close(env.caller.release)
	wg.Wait()

	if n := len(env.caller.calls()); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
	if login.State().Phase() != PhaseSucceeded {
		t.Fatalf("final phase = %v", login.State().Phase())
	}
	if got := env.client.MetricsSnapshot().Counters[MetricDuplicateSubmit]; got != 2 {
		t.Fatalf("duplicate submits = %d", got)
	}
}

func TestEditAfterFeedbackReturnsToIdle(t *testing.T) {
	env := newTestEnv(t)
	login := env.client.NewLogin()
	_, _ = login.Submit(context.Background())
	if login.State().Phase() != PhaseFailed {
		t.Fatal("expected validation failure")
	}
	if err := login.SetEmail("a@b.co"); err != nil {
		t.Fatalf("SetEmail: %v", err)
	}
	if _, ok := login.State().(Idle); !ok {
		t.Fatalf("state = %T, want Idle", login.State())
	}
	if _, ok := login.Feedback(); ok {
		t.Fatal("Idle carries no feedback")
	}
}

func TestObserverSeesEveryTransition(t *testing.T) {
	var mu sync.Mutex
	var phases []Phase
	env := newTestEnv(t, func(b *Builder) {
		b.WithObserver(func(screen Screen, s State) {
			if screen != ScreenLogin {
				t.Errorf("screen = %q", screen)
			}
			mu.Lock()
			phases = append(phases, s.Phase())
			mu.Unlock()
		})
	})
	env.caller.push(ok("Login successful"))

	login := env.client.NewLogin()
	_, _ = login.Submit(context.Background())
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")
	_, _ = login.Submit(context.Background())

	want := []Phase{
		PhaseValidating, PhaseFailed,
		PhaseIdle,
		PhaseValidating, PhaseInFlight, PhaseSucceeded,
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, phases); diff != "" {
		t.Fatalf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	env := newTestEnv(t)
	env.caller.push(ok("")).push(ok(""))

	login := env.client.NewLogin()
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")
	_, _ = login.Submit(WithRequestID(context.Background(), "req-42"))
	_ = login.SetPassword("abc12345")
	_, _ = login.Submit(context.Background())

	env.caller.mu.Lock()
	ids := append([]string(nil), env.caller.ids...)
	env.caller.mu.Unlock()
	if ids[0] != "req-42" {
		t.Fatalf("first id = %q", ids[0])
	}
	if len(ids[1]) != 36 {
		t.Fatalf("generated id = %q", ids[1])
	}
}

func TestCancelAndActionLinkNavigation(t *testing.T) {
	env := newTestEnv(t)
	res := ok("Email sent")
	res.ActionLink = &gateway.ActionLink{Target: "login", Text: "Back to login"}
	env.caller.push(res)

	forgot := env.client.NewForgotPassword("")
	if err := forgot.FollowActionLink(context.Background()); !errors.Is(err, ErrNoActionLink) {
		t.Fatalf("expected ErrNoActionLink, got %v", err)
	}
	_ = forgot.SetEmail("a@b.co")
	_, _ = forgot.Submit(context.Background())

	if err := forgot.FollowActionLink(context.Background()); err != nil {
		t.Fatalf("FollowActionLink: %v", err)
	}
	if err := forgot.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := env.client.NewLogin().Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if diff := cmp.Diff([]string{"/login", "/login", "/home"}, env.nav.all()); diff != "" {
		t.Fatalf("navigation mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigationFailureKeepsState(t *testing.T) {
	env := newTestEnv(t)
	env.nav.err = errors.New("router unavailable")
	res := ok("Login successful")
	res.RedirectURL = "/home"
	env.caller.push(res)

	login := env.client.NewLogin()
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")
	s, err := login.Submit(context.Background())
	if err != nil {
		t.Fatalf("navigation failure must not fail the submit: %v", err)
	}
	mustSucceeded(t, s)
	if got := env.client.MetricsSnapshot().Counters[MetricNavigationFailure]; got != 1 {
		t.Fatalf("navigation failures = %d", got)
	}
}

func TestForgotPasswordTrimsAndCapturesEmail(t *testing.T) {
	env := newTestEnv(t)
	env.caller.push(ok("If that email exists, a reset link has been sent."))

	forgot := env.client.NewForgotPassword("  first@example.com ")
	if got := forgot.ResendState().PendingEmail; got != "first@example.com" {
		t.Fatalf("initial pending = %q", got)
	}
	if forgot.email != "  first@example.com " {
		t.Fatalf("email field = %q, want the initial address", forgot.email)
	}

	_ = forgot.SetEmail("   ")
	s, _ := forgot.Submit(context.Background())
	if mustFailed(t, s).Feedback.Text != "Please enter your email address" {
		t.Fatal("blank email must be rejected")
	}

	_ = forgot.SetEmail("  second@example.com  ")
	s, err := forgot.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	mustSucceeded(t, s)
	if forgot.email != "" {
		t.Fatal("email field must be cleared")
	}
	if got := forgot.ResendState().PendingEmail; got != "second@example.com" {
		t.Fatalf("pending = %q", got)
	}
	if body := env.caller.calls()[0].Body; body != (flows.EmailPayload{Email: "second@example.com"}) {
		t.Fatalf("body = %#v", body)
	}
}

func TestFlowMetricsAndAudit(t *testing.T) {
	sink := NewChannelSink(16)
	env := newTestEnv(t, func(b *Builder) {
		cfg := DefaultConfig()
		cfg.API.BaseURL = "http://api.example.test"
		cfg.Audit.Enabled = true
		b.WithConfig(cfg).WithAuditSink(sink)
	})
	env.caller.push(ok("Login successful"))

	login := env.client.NewLogin()
	_, _ = login.Submit(context.Background())
	_ = login.SetEmail("a@b.co")
	_ = login.SetPassword("abc12345")
	_, _ = login.Submit(WithRequestID(context.Background(), "req-7"))
	env.client.Close()

	var got []AuditEvent
	for len(got) < 2 {
		got = append(got, <-sink.Events())
	}
	if got[0].EventType != "flow.validation_rejected" || got[0].Metadata["field"] != "email" {
		t.Fatalf("first event = %+v", got[0])
	}
	if got[1].EventType != "flow.submit" || !got[1].Success || got[1].RequestID != "req-7" || got[1].Screen != "login" {
		t.Fatalf("second event = %+v", got[1])
	}

	snap := env.client.MetricsSnapshot()
	if snap.Counters[MetricValidationRejected] != 1 || snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestForgotPasswordInitialEmailSubmitsWithoutEdit(t *testing.T) {
	env := newTestEnv(t)
	env.caller.push(ok("If that email exists, a reset link has been sent."))

	forgot := env.client.NewForgotPassword("user@test.com")
	s, err := forgot.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	mustSucceeded(t, s)

	calls := env.caller.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	if diff := cmp.Diff(flows.EmailPayload{Email: "user@test.com"}, calls[0].Body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}
