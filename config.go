package authflow

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds everything a [Client] needs. Build one with [DefaultConfig]
// and override fields; [Builder.Build] validates it.
type Config struct {
	API       APIConfig
	Endpoints EndpointsConfig
	Routes    RoutesConfig
	Session   SessionConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the remote authentication service.
type APIConfig struct {
	BaseURL      string
	Timeout      time.Duration // 0 leaves http.Client's default
	MaxBodyBytes int64
}

/*
====================================
ENDPOINTS CONFIG
====================================
*/

// EndpointsConfig lists the API paths. Token endpoints may contain a
// "{token}" placeholder; otherwise the token travels as the "token" query
// parameter.
type EndpointsConfig struct {
	Login              string
	Register           string
	ResendVerification string
	ForgotPassword     string
	ResetPassword      string
	ValidateResetToken string
	VerifyRegistration string
	VerifyEmailChange  string
	BestStocks         string
	WorstStocks        string
	LatestTransactions string
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig names the client-side pages controllers navigate to.
type RoutesConfig struct {
	Root  string
	Home  string
	Login string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the credential cookie.
type SessionConfig struct {
	CookieName string
	// Persist writes cookies to the session store after every credentialed
	// call and restores them on Build.
	Persist        bool
	RedisKeyPrefix string
	TTL            time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const tokenPlaceholder = "{token}"

// DefaultConfig returns the endpoint layout of the trading platform API.
// BaseURL is left empty and must be set.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			MaxBodyBytes: 1 << 20,
		},
		Endpoints: EndpointsConfig{
			Login:              "/api/auth/login",
			Register:           "/api/auth/register",
			ResendVerification: "/api/auth/resend-verification",
			ForgotPassword:     "/api/auth/forgot-password",
			ResetPassword:      "/api/auth/reset-password",
			ValidateResetToken: "/api/auth/reset-password/validate",
			VerifyRegistration: "/api/auth/verify_registration",
			VerifyEmailChange:  "/api/auth/email-verifications/{token}",
			BestStocks:         "/api/home/best-stocks",
			WorstStocks:        "/api/home/worst-stocks",
			LatestTransactions: "/api/home/latest-transactions",
		},
		Routes: RoutesConfig{
			Root:  "/",
			Home:  "/home",
			Login: "/login",
		},
		Session: SessionConfig{
			CookieName:     "token",
			Persist:        false,
			RedisKeyPrefix: "authflow",
			TTL:            7 * 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate reports the first problem in c.
func (c *Config) Validate() error {
	// API
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("API BaseURL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("API BaseURL must be an absolute http(s) URL")
	}
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must be >= 0")
	}
	if c.API.MaxBodyBytes < 0 {
		return errors.New("API MaxBodyBytes must be >= 0")
	}

	// Endpoints
	endpoints := []struct {
		name string
		path string
	}{
		{"Login", c.Endpoints.Login},
		{"Register", c.Endpoints.Register},
		{"ResendVerification", c.Endpoints.ResendVerification},
		{"ForgotPassword", c.Endpoints.ForgotPassword},
		{"ResetPassword", c.Endpoints.ResetPassword},
		{"ValidateResetToken", c.Endpoints.ValidateResetToken},
		{"VerifyRegistration", c.Endpoints.VerifyRegistration},
		{"VerifyEmailChange", c.Endpoints.VerifyEmailChange},
		{"BestStocks", c.Endpoints.BestStocks},
		{"WorstStocks", c.Endpoints.WorstStocks},
		{"LatestTransactions", c.Endpoints.LatestTransactions},
	}
	for _, ep := range endpoints {
		if !strings.HasPrefix(ep.path, "/") {
			return fmt.Errorf("Endpoints %s must start with /", ep.name)
		}
		if strings.Count(ep.path, tokenPlaceholder) > 1 {
			return fmt.Errorf("Endpoints %s has more than one %s", ep.name, tokenPlaceholder)
		}
	}

	// Routes
	for name, route := range map[string]string{"Root": c.Routes.Root, "Home": c.Routes.Home, "Login": c.Routes.Login} {
		if !strings.HasPrefix(route, "/") {
			return fmt.Errorf("Routes %s must start with /", name)
		}
	}

	// Session
	if c.Session.CookieName == "" {
		return errors.New("Session CookieName is required")
	}
	if c.Session.TTL < 0 {
		return errors.New("Session TTL must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

// tokenEndpoint fills a token endpoint. The token is path-escaped into a
// placeholder or sent as the "token" query parameter. A token made only of
// dots is percent-encoded so that path joining cannot treat it as a dot
// segment.
func tokenEndpoint(path, token string) (string, url.Values) {
	if strings.Contains(path, tokenPlaceholder) {
		seg := url.PathEscape(token)
		if strings.Trim(token, ".") == "" {
			seg = strings.Repeat("%2E", len(token))
		}
		return strings.Replace(path, tokenPlaceholder, seg, 1), nil
	}
	return path, url.Values{"token": {token}}
}
