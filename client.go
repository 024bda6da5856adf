package authflow

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authflow/gateway"
	internalaudit "github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/jwt"
	"github.com/MrEthical07/authflow/session"
	"go.uber.org/zap"
)

// Client is the shared, immutable context of every screen controller: the
// gateway, navigation, metrics and audit. It is safe for concurrent use.
type Client struct {
	config    Config
	caller    Caller
	gateway   *gateway.Client
	jar       *session.Jar
	navigator Navigator
	observer  Observer
	logger    *zap.Logger
	metrics   *Metrics
	audit     *internalaudit.Dispatcher
	closed    atomic.Bool
}

// Close drains the audit dispatcher. Controllers keep working afterwards but
// emit no more audit events.
func (c *Client) Close() {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.audit.Close()
}

// Config returns a copy of the configuration the Client was built with.
func (c *Client) Config() Config {
	return cloneConfig(c.config)
}

// Gateway returns the HTTP gateway, or nil when one was injected with
// [Builder.WithGateway].
func (c *Client) Gateway() *gateway.Client {
	return c.gateway
}

// Caller returns whatever performs gateway requests for this Client.
func (c *Client) Caller() Caller {
	return c.caller
}

// MetricsSnapshot returns the current counter values.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped counts audit events that never reached the sink.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// Session decodes the session cookie set by a successful login. The token
// signature is not verified; the result is for display only.
func (c *Client) Session(ctx context.Context) (SessionInfo, error) {
	if err := c.ready(); err != nil {
		return SessionInfo{}, err
	}
	raw, ok := c.jar.Value(c.config.Session.CookieName)
	if !ok || raw == "" {
		return SessionInfo{}, ErrNoSession
	}
	claims, err := jwt.Inspect(raw)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("inspect session cookie: %w", err)
	}

	info := SessionInfo{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
		Expired:  claims.Expired(time.Now()),
	}
	if exp := claims.ExpiresAtTime(); !exp.IsZero() {
		info.ExpiresAt = exp.Unix()
	}
	return info, nil
}

// ClearSession forgets the session cookies, including persisted ones.
func (c *Client) ClearSession(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.jar.Clear(ctx)
}

func (c *Client) ready() error {
	if c == nil || c.caller == nil || c.jar == nil {
		return ErrClientNotReady
	}
	return nil
}

func (c *Client) emitAudit(ctx context.Context, screen Screen, event string, success bool, err error, metadata func() map[string]string) {
	if c.audit == nil || c.closed.Load() {
		return
	}
	ev := AuditEvent{
		EventType: event,
		Screen:    string(screen),
		RequestID: requestIDFromContext(ctx),
		Success:   success,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if metadata != nil {
		ev.Metadata = metadata()
	}
	c.audit.Emit(ctx, ev)
}

// navigate hands target to the Navigator. Failures are logged and counted;
// the controller state is not affected.
func (c *Client) navigate(ctx context.Context, screen Screen, target string) error {
	err := c.navigator.Navigate(ctx, target)
	if err != nil {
		c.metrics.Inc(MetricNavigationFailure)
		c.logger.Warn("navigation failed",
			zap.String("screen", string(screen)),
			zap.String("target", target),
			zap.Error(err),
		)
	}
	c.emitAudit(ctx, screen, auditEventNavigate, err == nil, err, func() map[string]string {
		return map[string]string{"target": target}
	})
	return err
}

func (c *Client) notify(screen Screen, states []State) {
	if c.observer == nil {
		return
	}
	for _, s := range states {
		c.observer(screen, s)
	}
}

// linkTarget turns an action link target into a route. Servers send bare
// page names ("login") as well as paths.
func linkTarget(target string) string {
	return "/" + strings.TrimLeft(target, "/")
}

const (
	auditEventSubmit             = "flow.submit"
	auditEventValidationRejected = "flow.validation_rejected"
	auditEventResend             = "flow.resend"
	auditEventMount              = "flow.mount"
	auditEventNavigate           = "flow.navigate"
)
