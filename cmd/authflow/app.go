package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/market"
	"github.com/MrEthical07/authflow/metrics/export/prometheus"
	"github.com/MrEthical07/authflow/prefs"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	configPath     string
	envFile        string
	baseURL        string
	timeout        time.Duration
	redisAddr      string
	persistSession bool
	prefsFile      string
	logLevel       string
	audit          bool
	metricsOut     string
}

// app owns everything one invocation builds. Pieces are created on first
// use so that commands like "theme" work without an API configured.
type app struct {
	opts     options
	settings settings
	out      io.Writer
	errOut   io.Writer

	logger *zap.Logger
	rdb    *redis.Client
	client *authflow.Client
	prefs  *prefs.Manager
	render *renderer
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func (a *app) setup(changed func(string) bool) error {
	s, err := loadSettings(&a.opts, changed)
	if err != nil {
		return err
	}
	a.settings = s

	logger, err := newLogger(s.LogLevel, a.errOut)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	if lvl > zapcore.DebugLevel {
		enc = zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func (a *app) redisClient() *redis.Client {
	if a.rdb == nil && a.settings.RedisAddr != "" {
		a.rdb = redis.NewClient(&redis.Options{Addr: a.settings.RedisAddr})
	}
	return a.rdb
}

// Client builds the auth client. Session cookies persist to Redis when an
// address is configured.
func (a *app) Client(ctx context.Context) (*authflow.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg := a.settings.Config
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("no API base URL: set --base-url, %sBASE_URL or api.base_url", envPrefix)
	}

	b := authflow.New().
		WithConfig(cfg).
		WithLogger(a.logger).
		WithNavigator(authflow.NavigatorFunc(a.navigate)).
		WithLatencyHistograms(a.opts.metricsOut != "")
	if cfg.Audit.Enabled {
		b.WithAuditSink(authflow.NewZapSink(a.logger))
	}
	if rdb := a.redisClient(); rdb != nil {
		b.WithRedis(rdb)
	}

	client, err := b.BuildContext(ctx)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

func (a *app) Market(ctx context.Context) (*market.Service, error) {
	client, err := a.Client(ctx)
	if err != nil {
		return nil, err
	}
	return market.FromClient(client, market.WithLogger(a.logger.Named("market"))), nil
}

// Prefs returns the initialized theme manager. Redis wins over the file
// when configured so that several terminals share one theme.
func (a *app) Prefs(ctx context.Context) (*prefs.Manager, error) {
	if a.prefs != nil {
		return a.prefs, nil
	}
	var store prefs.Store = prefs.NewFileStore(a.settings.PrefsFile)
	if rdb := a.redisClient(); rdb != nil {
		store = prefs.NewRedisStore(rdb, a.settings.Config.Session.RedisKeyPrefix)
	}
	m := prefs.NewManager(store, a.logger.Named("prefs"))
	if _, err := m.Init(ctx); err != nil {
		return nil, err
	}
	a.prefs = m
	return m, nil
}

// Renderer picks its palette from the theme preference. A broken
// preference store only costs the palette.
func (a *app) Renderer(ctx context.Context) *renderer {
	if a.render != nil {
		return a.render
	}
	theme := prefs.DefaultTheme
	if m, err := a.Prefs(ctx); err == nil {
		theme = m.Theme()
	} else {
		a.logger.Warn("theme preference unavailable", zap.Error(err))
	}
	a.render = newRenderer(a.out, theme)
	return a.render
}

func (a *app) navigate(ctx context.Context, target string) error {
	a.Renderer(ctx).Navigation(target)
	return nil
}

// close flushes metrics and releases connections. It is safe to call on a
// partially set up app.
func (a *app) close() error {
	var firstErr error
	if a.client != nil {
		if a.opts.metricsOut != "" {
			if err := a.writeMetrics(prometheus.NewPrometheusExporter(a.client)); err != nil {
				firstErr = err
			}
		}
		a.client.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return firstErr
}

// writeMetrics dumps the Prometheus exposition to --metrics-out; "-" means
// stderr.
func (a *app) writeMetrics(exp *prometheus.PrometheusExporter) error {
	if a.opts.metricsOut == "-" {
		_, err := io.WriteString(a.errOut, exp.Render())
		return err
	}
	return os.WriteFile(a.opts.metricsOut, []byte(exp.Render()), 0o644)
}
