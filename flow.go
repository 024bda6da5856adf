package authflow

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/authflow/gateway"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/google/uuid"
)

// controller is the state machine shared by every screen. Field values live
// in the embedding screen type and are only touched under mu.
type controller struct {
	client      *Client
	screen      Screen
	cancelRoute string
	resend      *resendTarget

	mu           sync.Mutex
	state        State
	submitting   bool
	resending    bool
	pendingEmail string
	transitions  []State
}

func newController(c *Client, screen Screen, cancelRoute string) *controller {
	return &controller{
		client:      c,
		screen:      screen,
		cancelRoute: cancelRoute,
		state:       Idle{},
	}
}

// State returns the current state.
func (c *controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Feedback returns the message currently shown, if any.
func (c *controller) Feedback() (FeedbackMessage, bool) {
	return FeedbackOf(c.State())
}

// ResendState returns a snapshot of the resend sub-flow.
func (c *controller) ResendState() ResendState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ResendState{PendingEmail: c.pendingEmail, InFlight: c.resending}
}

// Cancel leaves the screen.
func (c *controller) Cancel(ctx context.Context) error {
	return c.client.navigate(ctx, c.screen, c.cancelRoute)
}

// FollowActionLink navigates to the action link of the current feedback.
func (c *controller) FollowActionLink(ctx context.Context) error {
	fb, ok := c.Feedback()
	if !ok || fb.ActionLink == nil {
		return ErrNoActionLink
	}
	return c.client.navigate(ctx, c.screen, linkTarget(fb.ActionLink.Target))
}

func (c *controller) busy() bool {
	return c.submitting || c.resending
}

// setLocked records a transition; observers hear about it on unlock.
func (c *controller) setLocked(s State) {
	c.state = s
	c.transitions = append(c.transitions, s)
}

func (c *controller) unlock() {
	pending := c.transitions
	c.transitions = nil
	c.mu.Unlock()
	c.client.notify(c.screen, pending)
}

// edit applies a field change. Edits are refused while a submission is in
// flight and clear any feedback otherwise.
func (c *controller) edit(apply func()) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	apply()
	switch c.state.(type) {
	case Succeeded, Failed:
		c.setLocked(Idle{})
	}
	c.unlock()
	return nil
}

// submission describes one screen's submit. Hooks run under the controller
// lock.
type submission struct {
	rules   []flows.Rule
	fields  func() flows.Fields
	request func(flows.Fields) gateway.Request
	call    flows.CallDeps

	// accepted runs once validation passed, before the call.
	accepted func(flows.Fields)
	// settle runs after the call and may adjust the feedback about to be shown.
	settle func(flows.Outcome, flows.Fields, *FeedbackMessage)

	successMetric MetricID
	failureMetric MetricID
}

func (c *controller) submit(ctx context.Context, sub submission) (State, error) {
	if err := c.client.ready(); err != nil {
		return c.State(), err
	}

	c.mu.Lock()
	if c.busy() {
		s := c.state
		c.mu.Unlock()
		c.client.metrics.Inc(MetricDuplicateSubmit)
		return s, ErrSubmissionInFlight
	}

	c.setLocked(Validating{})
	fields := sub.fields()
	if v := flows.Check(sub.rules, fields); v != nil {
		verr := &ValidationError{Field: v.Field, Message: v.Message}
		failed := Failed{
			Feedback: FeedbackMessage{Kind: FeedbackError, Text: v.Message},
			Err:      verr,
		}
		c.setLocked(failed)
		c.unlock()

		c.client.metrics.Inc(MetricValidationRejected)
		c.client.emitAudit(ctx, c.screen, auditEventValidationRejected, false, verr, func() map[string]string {
			return map[string]string{"field": v.Field}
		})
		return failed, verr
	}

	if sub.accepted != nil {
		sub.accepted(fields)
	}
	c.submitting = true
	c.setLocked(InFlight{})
	c.unlock()

	ctx = c.ensureRequestID(ctx)
	deps := sub.call
	deps.Event = auditEventSubmit
	deps.Request = sub.request(fields)
	deps.Metrics = flows.CallMetrics{
		Success:     int(sub.successMetric),
		Failure:     int(sub.failureMetric),
		Transport:   int(MetricTransportFailure),
		RateLimited: int(MetricRateLimited),
	}
	out := flows.RunCall(ctx, c.callDeps(deps))

	c.mu.Lock()
	c.submitting = false
	next := c.outcomeState(out)
	if sub.settle != nil {
		switch s := next.(type) {
		case Succeeded:
			sub.settle(out, fields, &s.Feedback)
			next = s
		case Failed:
			sub.settle(out, fields, &s.Feedback)
			next = s
		}
	}
	next = c.gateResend(next)
	c.setLocked(next)
	c.unlock()

	if s, ok := next.(Succeeded); ok && s.RedirectURL != "" {
		_ = c.client.navigate(ctx, c.screen, s.RedirectURL)
	}
	return next, failureErr(next)
}

// outcomeState maps a call outcome onto a terminal state. ResendAvailable
// is set from the server flag alone; gateResend narrows it.
func (c *controller) outcomeState(out flows.Outcome) State {
	fb := FeedbackMessage{
		Text:            out.Message,
		Detail:          out.Detail,
		ActionLink:      actionLinkFrom(out.ActionLink),
		ResendAvailable: out.ResendOffered,
	}

	switch out.Kind {
	case flows.OutcomeSucceeded:
		fb.Kind = FeedbackSuccess
		return Succeeded{Feedback: fb, RedirectURL: out.RedirectURL}
	case flows.OutcomeRejected:
		fb.Kind = FeedbackError
		return Failed{
			Feedback: fb,
			Err:      &ApplicationError{Status: out.Status, Message: out.Message, RateLimited: out.RateLimited},
		}
	default:
		fb.Kind = FeedbackError
		fb.Detail = ""
		fb.ActionLink = nil
		err := out.Err
		if err == nil {
			err = ErrTransport
		}
		return Failed{Feedback: fb, Err: err}
	}
}

// gateResend hides the resend action when there is nowhere to send it.
func (c *controller) gateResend(s State) State {
	ok := c.resend != nil && c.pendingEmail != ""
	switch v := s.(type) {
	case Succeeded:
		v.Feedback.ResendAvailable = v.Feedback.ResendAvailable && ok
		return v
	case Failed:
		v.Feedback.ResendAvailable = v.Feedback.ResendAvailable && ok
		return v
	default:
		return s
	}
}

func (c *controller) callDeps(deps flows.CallDeps) flows.CallDeps {
	m := c.client.metrics
	deps.Call = c.client.caller.Do
	deps.MetricInc = func(id int) { m.Inc(MetricID(id)) }
	deps.ObserveLatency = func(d time.Duration) { m.Observe(MetricGatewayLatency, d) }
	deps.EmitAudit = func(ctx context.Context, event string, success bool, err error, metadata func() map[string]string) {
		c.client.emitAudit(ctx, c.screen, event, success, err, metadata)
	}
	return deps
}

func (c *controller) ensureRequestID(ctx context.Context) context.Context {
	if requestIDFromContext(ctx) != "" {
		return ctx
	}
	return WithRequestID(ctx, uuid.NewString())
}

func failureErr(s State) error {
	if f, ok := s.(Failed); ok {
		return f.Err
	}
	return nil
}

func actionLinkFrom(l *gateway.ActionLink) *ActionLink {
	if l == nil {
		return nil
	}
	return &ActionLink{Target: l.Target, Text: l.Text}
}
