package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authflow/gateway"
)

// OutcomeKind classifies a finished gateway call.
type OutcomeKind uint8

const (
	// OutcomeSucceeded means the server answered success:true.
	OutcomeSucceeded OutcomeKind = iota + 1
	// OutcomeRejected means the server answered, but not with success.
	OutcomeRejected
	// OutcomeUnreachable means no usable body arrived.
	OutcomeUnreachable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Outcome is the normalized result of one call. Message is already resolved
// against the defaults in CallDeps.
type Outcome struct {
	Kind          OutcomeKind
	Status        int
	Message       string
	Detail        string
	ActionLink    *gateway.ActionLink
	RedirectURL   string
	ResendOffered bool
	RateLimited   bool
	Err           error
	Result        gateway.Result
}

// CallMetrics carries the metric IDs a call reports. A negative ID is skipped.
type CallMetrics struct {
	Success     int
	Failure     int
	Transport   int
	RateLimited int
}

// CallDeps describes one submit, resend or token check.
type CallDeps struct {
	Event   string
	Request gateway.Request

	// RequireOK makes a 2xx status part of success, as resend actions do.
	RequireOK bool
	// ResendFallback is used when the server omits showResendButton.
	ResendFallback bool
	// TransportResend is ResendOffered after a transport failure.
	TransportResend bool

	DefaultSuccess   string
	DefaultFailure   string
	TransportFailure string

	Call           func(context.Context, gateway.Request) (gateway.Result, error)
	Now            func() time.Time
	MetricInc      func(int)
	ObserveLatency func(time.Duration)
	EmitAudit      func(context.Context, string, bool, error, func() map[string]string)

	Metrics CallMetrics
}

// ErrNoCaller is returned in Outcome.Err when CallDeps has no Call.
var ErrNoCaller = errors.New("flows: no gateway configured")

// RunCall performs deps.Request once and classifies the answer.
func RunCall(ctx context.Context, deps CallDeps) Outcome {
	normalizeCallDeps(&deps)

	if deps.Call == nil {
		return Outcome{
			Kind:          OutcomeUnreachable,
			Message:       deps.TransportFailure,
			ResendOffered: deps.TransportResend,
			Err:           ErrNoCaller,
		}
	}

	start := deps.Now()
	res, err := deps.Call(ctx, deps.Request)
	deps.ObserveLatency(deps.Now().Sub(start))

	if err != nil {
		inc(deps, deps.Metrics.Transport)
		deps.EmitAudit(ctx, deps.Event, false, err, func() map[string]string {
			return map[string]string{"outcome": OutcomeUnreachable.String()}
		})
		status := 0
		var te *gateway.TransportError
		if errors.As(err, &te) {
			status = te.Status
		}
		return Outcome{
			Kind:          OutcomeUnreachable,
			Status:        status,
			Message:       deps.TransportFailure,
			ResendOffered: deps.TransportResend,
			Err:           err,
		}
	}

	out := Outcome{
		Status:        res.HTTPStatus,
		Detail:        res.Details,
		ActionLink:    res.ActionLink,
		ResendOffered: res.ResendOffered(deps.ResendFallback),
		RateLimited:   res.RateLimited(),
		Result:        res,
	}

	if res.Success && (!deps.RequireOK || res.OK) {
		out.Kind = OutcomeSucceeded
		out.Message = firstNonEmpty(res.Message, deps.DefaultSuccess)
		out.RedirectURL = res.RedirectURL
		inc(deps, deps.Metrics.Success)
		deps.EmitAudit(ctx, deps.Event, true, nil, func() map[string]string {
			return outcomeMetadata(out)
		})
		return out
	}

	out.Kind = OutcomeRejected
	out.Message = firstNonEmpty(res.Message, deps.DefaultFailure)
	inc(deps, deps.Metrics.Failure)
	if out.RateLimited {
		inc(deps, deps.Metrics.RateLimited)
	}
	deps.EmitAudit(ctx, deps.Event, false, nil, func() map[string]string {
		return outcomeMetadata(out)
	})
	return out
}

func outcomeMetadata(out Outcome) map[string]string {
	md := map[string]string{
		"outcome": out.Kind.String(),
	}
	if out.RateLimited {
		md["rate_limited"] = "true"
	}
	if out.ResendOffered {
		md["resend_offered"] = "true"
	}
	return md
}

func inc(deps CallDeps, id int) {
	if id >= 0 {
		deps.MetricInc(id)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func normalizeCallDeps(deps *CallDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.ObserveLatency == nil {
		deps.ObserveLatency = func(time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, error, func() map[string]string) {}
	}
}
