package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MrEthical07/authflow"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout of --config. Absent keys keep defaults.
type fileConfig struct {
	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Endpoints map[string]string `yaml:"endpoints"`
	Session   struct {
		Persist    *bool  `yaml:"persist"`
		CookieName string `yaml:"cookie_name"`
		RedisAddr  string `yaml:"redis_addr"`
	} `yaml:"session"`
	Audit struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"audit"`
	Prefs struct {
		File string `yaml:"file"`
	} `yaml:"prefs"`
	LogLevel string `yaml:"log_level"`
}

// settings is everything the CLI resolved before building a client.
type settings struct {
	Config    authflow.Config
	RedisAddr string
	PrefsFile string
	LogLevel  string
}

const envPrefix = "AUTHFLOW_"

func defaultPrefsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "authflow", "prefs.yaml")
}

// loadSettings layers defaults, the .env file, the YAML file, AUTHFLOW_*
// variables and finally explicitly set flags.
func loadSettings(opts *options, changed func(string) bool) (settings, error) {
	s := settings{
		Config:    authflow.DefaultConfig(),
		PrefsFile: defaultPrefsFile(),
		LogLevel:  "warn",
	}

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !(errors.Is(err, os.ErrNotExist) && !changed("env-file")) {
			return s, fmt.Errorf("load env file: %w", err)
		}
	}

	if opts.configPath != "" {
		if err := applyFile(&s, opts.configPath); err != nil {
			return s, err
		}
	}

	if err := applyEnv(&s); err != nil {
		return s, err
	}

	if changed("base-url") {
		s.Config.API.BaseURL = opts.baseURL
	}
	if changed("timeout") {
		s.Config.API.Timeout = opts.timeout
	}
	if changed("redis-addr") {
		s.RedisAddr = opts.redisAddr
	}
	if changed("persist-session") {
		s.Config.Session.Persist = opts.persistSession
	}
	if changed("prefs-file") {
		s.PrefsFile = opts.prefsFile
	}
	if changed("log-level") {
		s.LogLevel = opts.logLevel
	}
	if changed("audit") {
		s.Config.Audit.Enabled = opts.audit
	}
	return s, nil
}

func applyFile(s *settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := &s.Config
	if fc.API.BaseURL != "" {
		cfg.API.BaseURL = fc.API.BaseURL
	}
	if fc.API.Timeout != 0 {
		cfg.API.Timeout = fc.API.Timeout
	}
	for name, path := range fc.Endpoints {
		target := endpointField(cfg, name)
		if target == nil {
			return fmt.Errorf("config: unknown endpoint %q", name)
		}
		*target = path
	}
	if fc.Session.Persist != nil {
		cfg.Session.Persist = *fc.Session.Persist
	}
	if fc.Session.CookieName != "" {
		cfg.Session.CookieName = fc.Session.CookieName
	}
	if fc.Session.RedisAddr != "" {
		s.RedisAddr = fc.Session.RedisAddr
	}
	if fc.Audit.Enabled != nil {
		cfg.Audit.Enabled = *fc.Audit.Enabled
	}
	if fc.Prefs.File != "" {
		s.PrefsFile = fc.Prefs.File
	}
	if fc.LogLevel != "" {
		s.LogLevel = fc.LogLevel
	}
	return nil
}

func endpointField(cfg *authflow.Config, name string) *string {
	ep := &cfg.Endpoints
	switch name {
	case "login":
		return &ep.Login
	case "register":
		return &ep.Register
	case "resend_verification":
		return &ep.ResendVerification
	case "forgot_password":
		return &ep.ForgotPassword
	case "reset_password":
		return &ep.ResetPassword
	case "validate_reset_token":
		return &ep.ValidateResetToken
	case "verify_registration":
		return &ep.VerifyRegistration
	case "verify_email_change":
		return &ep.VerifyEmailChange
	case "best_stocks":
		return &ep.BestStocks
	case "worst_stocks":
		return &ep.WorstStocks
	case "latest_transactions":
		return &ep.LatestTransactions
	default:
		return nil
	}
}

func applyEnv(s *settings) error {
	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		s.Config.API.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", envPrefix, err)
		}
		s.Config.API.Timeout = d
	}
	if v := os.Getenv(envPrefix + "REDIS_ADDR"); v != "" {
		s.RedisAddr = v
	}
	if v := os.Getenv(envPrefix + "PERSIST_SESSION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPERSIST_SESSION: %w", envPrefix, err)
		}
		s.Config.Session.Persist = b
	}
	if v := os.Getenv(envPrefix + "PREFS_FILE"); v != "" {
		s.PrefsFile = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	return nil
}
