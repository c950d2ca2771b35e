package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"frontdesk/internal/integrations/gemini"
	"frontdesk/internal/integrations/paramstore"
)

const (
	defaultLeadsCSV          = "leads.csv"
	defaultGenerationTimeout = 10 * time.Second
	defaultCooldownWindow    = 15 * time.Minute
	defaultPort              = 5000
)

// SSM parameter names, relative to PARAM_PREFIX.
const (
	paramGeminiAPIKey     = "gemini-api-key"
	paramTwilioAccountSID = "twilio-account-sid"
	paramTwilioAuthToken  = "twilio-auth-token"
)

// Config is the process configuration. It is read once at startup.
type Config struct {
	GeminiAPIKey      string
	GeminiModel       string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	PersonalPhone     string
	MonitorPhone      string
	LeadsCSV          string
	LeadsTable        string
	ParamPrefix       string
	GenerationTimeout time.Duration
	CooldownWindow    time.Duration
	Port              int
	LogLevel          slog.Level
}

// LoadDotEnv loads .env and .env.local when present. Existing variables win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// FromEnv builds a Config from getenv. Secrets may be left empty for ResolveSecrets.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		GeminiAPIKey:      env("GEMINI_API_KEY"),
		GeminiModel:       envDefault(env("GEMINI_MODEL"), gemini.DefaultModel),
		TwilioAccountSID:  env("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   env("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: env("TWILIO_PHONE_NUMBER"),
		PersonalPhone:     env("PERSONAL_PHONE"),
		MonitorPhone:      env("MONITOR_PHONE"),
		LeadsCSV:          envDefault(env("LEADS_CSV"), defaultLeadsCSV),
		LeadsTable:        env("LEADS_TABLE"),
		ParamPrefix:       env("PARAM_PREFIX"),
	}

	var err error
	if cfg.GenerationTimeout, err = envDuration(env("GENERATION_TIMEOUT"), defaultGenerationTimeout); err != nil {
		return Config{}, fmt.Errorf("config: GENERATION_TIMEOUT: %w", err)
	}
	if cfg.CooldownWindow, err = envDuration(env("COOLDOWN_WINDOW"), defaultCooldownWindow); err != nil {
		return Config{}, fmt.Errorf("config: COOLDOWN_WINDOW: %w", err)
	}
	if cfg.Port, err = envInt(env("PORT"), defaultPort); err != nil {
		return Config{}, fmt.Errorf("config: PORT: %w", err)
	}
	if cfg.LogLevel, err = parseLevel(env("LOG_LEVEL")); err != nil {
		return Config{}, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// ResolveSecrets fills credentials missing from the environment from SSM under
// ParamPrefix. It is a no-op when ParamPrefix is empty.
func (c *Config) ResolveSecrets(ctx context.Context, getter paramstore.Getter) error {
	if c.ParamPrefix == "" {
		return nil
	}
	if getter == nil {
		return errors.New("config: param getter must not be nil")
	}
	for _, s := range []struct {
		name string
		dst  *string
	}{
		{paramGeminiAPIKey, &c.GeminiAPIKey},
		{paramTwilioAccountSID, &c.TwilioAccountSID},
		{paramTwilioAuthToken, &c.TwilioAuthToken},
	} {
		if *s.dst != "" {
			continue
		}
		v, err := getter.GetParameter(ctx, paramstore.Join(c.ParamPrefix, s.name))
		if errors.Is(err, paramstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", s.name, err)
		}
		*s.dst = v
	}
	return nil
}

// Validate reports every missing required setting at once.
func (c Config) Validate() error {
	var errs []error
	for _, r := range []struct {
		key, val string
	}{
		{"GEMINI_API_KEY", c.GeminiAPIKey},
		{"TWILIO_ACCOUNT_SID", c.TwilioAccountSID},
		{"TWILIO_AUTH_TOKEN", c.TwilioAuthToken},
		{"TWILIO_PHONE_NUMBER", c.TwilioPhoneNumber},
		{"PERSONAL_PHONE", c.PersonalPhone},
	} {
		if r.val == "" {
			errs = append(errs, fmt.Errorf("config: %s is not set", r.key))
		}
	}
	return errors.Join(errs...)
}

func envDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func envInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func envDuration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func parseLevel(v string) (slog.Level, error) {
	if v == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return 0, err
	}
	return lvl, nil
}
