package authflow

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/MrEthical07/authflow/gateway"
	internalaudit "github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles a [Client]. It is single-use: configure it, call Build
// once, and discard it.
type Builder struct {
	config Config

	caller     Caller
	httpClient *http.Client
	redis      redis.UniversalClient
	store      session.Store

	navigator Navigator
	observer  Observer
	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New starts a Builder from [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets Config.API.BaseURL.
func (b *Builder) WithBaseURL(base string) *Builder {
	b.config.API.BaseURL = base
	return b
}

// WithGateway replaces the HTTP gateway, typically with a stub in tests.
// Session cookies are not handled for a replaced gateway.
func (b *Builder) WithGateway(caller Caller) *Builder {
	b.caller = caller
	return b
}

// WithHTTPClient sets the http.Client the default gateway uses.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithRedis persists session cookies in Redis. It implies nothing unless
// Config.Session.Persist is set.
func (b *Builder) WithRedis(rdb redis.UniversalClient) *Builder {
	b.redis = rdb
	return b
}

// WithSessionStore persists session cookies in store. It wins over WithRedis.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithNavigator sets where controllers send redirects and cancels.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithObserver registers a state transition observer.
func (b *Builder) WithObserver(obs Observer) *Builder {
	b.observer = obs
	return b
}

// WithLogger sets the diagnostic logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink audit events are delivered to. Audit must
// also be enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled turns the flow counters on or off. They are on by
// default.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms records gateway latency buckets in addition to the
// counters.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and creates the Client.
func (b *Builder) Build() (*Client, error) {
	return b.BuildContext(context.Background())
}

// BuildContext is Build with a context for restoring persisted cookies.
func (b *Builder) BuildContext(ctx context.Context) (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := b.store
	if store == nil && b.redis != nil {
		store = session.NewRedisStore(b.redis, cfg.Session.RedisKeyPrefix, cfg.Session.TTL)
	}
	if cfg.Session.Persist && store == nil {
		return nil, errors.New("Session Persist requires a session store or redis client")
	}
	if !cfg.Session.Persist {
		store = nil
	}

	origin, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, err
	}
	jar, err := session.NewJar(origin, store)
	if err != nil {
		return nil, err
	}
	if err := jar.Restore(ctx); err != nil {
		logger.Warn("session cookies not restored", zap.Error(err))
	}

	c := &Client{
		config:    cfg,
		caller:    b.caller,
		jar:       jar,
		navigator: b.navigator,
		observer:  b.observer,
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
	}

	if c.caller == nil {
		hc := b.httpClient
		if hc == nil {
			hc = &http.Client{Timeout: cfg.API.Timeout}
		}
		gw, err := gateway.New(cfg.API.BaseURL,
			gateway.WithHTTPClient(hc),
			gateway.WithJar(jar),
			gateway.WithLogger(logger.Named("gateway")),
			gateway.WithMaxBodyBytes(cfg.API.MaxBodyBytes),
		)
		if err != nil {
			return nil, err
		}
		c.gateway = gw
		c.caller = gw
	}

	if c.navigator == nil {
		c.navigator = NavigatorFunc(func(_ context.Context, target string) error {
			logger.Debug("navigation requested without navigator", zap.String("target", target))
			return nil
		})
	}

	c.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true
	return c, nil
}
