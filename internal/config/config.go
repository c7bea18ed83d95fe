package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"vpbx-platform/internal/vpbx"
)

// Config holds all configuration required by the API process.
// All values come from env, optionally seeded from .env files.
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	VPBX    VPBXConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Webhook WebhookConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type VPBXConfig struct {
	APIKey  string
	Salt    string
	BaseURL string

	HTTPTimeout       time.Duration
	StatsPollAttempts int
	StatsPollInterval time.Duration
}

func (c VPBXConfig) Credentials() vpbx.Credentials {
	return vpbx.Credentials{APIKey: c.APIKey, Salt: c.Salt}
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type WebhookConfig struct {
	DedupTTL time.Duration
}

// LoadEnvFiles seeds the environment from .env.local and .env when present.
// Variables already set in the process environment always win.
func LoadEnvFiles() {
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", f, err)
		}
	}
}

// Load reads the full API configuration.
func Load() (Config, error) {
	LoadEnvFiles()

	c := Config{}
	var parseErrs []error

	parseErrs = loadApp(&c, parseErrs)
	parseErrs = loadVPBX(&c, parseErrs)
	parseErrs = loadAuth(&c, parseErrs)

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	{
		d, err := optionalDuration("WEBHOOK_DEDUP_TTL")
		d, parseErrs = appendParseErr(parseErrs, d, err)
		c.Webhook.DedupTTL = d
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadClient reads only what the CLI needs: app env, provider credentials and
// token signing settings. Database and Redis are not touched.
func LoadClient() (Config, error) {
	LoadEnvFiles()

	c := Config{}
	var parseErrs []error
	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	if c.App.Env == "" {
		c.App.Env = "local"
	}
	parseErrs = loadVPBX(&c, parseErrs)
	parseErrs = loadAuth(&c, parseErrs)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	c.ApplyDefaults()
	if err := joinErrors(c.validateVPBX(nil)); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadAuth reads only the token signing settings, for minting operator tokens.
func LoadAuth() (AuthConfig, error) {
	LoadEnvFiles()

	c := Config{}
	if err := joinErrors(loadAuth(&c, nil)); err != nil {
		return AuthConfig{}, err
	}
	c.ApplyDefaults()
	if c.Auth.JWTSecret == "" {
		return AuthConfig{}, errors.New("JWT_SECRET is required")
	}
	return c.Auth, nil
}

func loadApp(c *Config, errs []error) []error {
	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	n, err := mustInt("APP_PORT")
	n, errs = appendParseErr(errs, n, err)
	c.App.Port = n
	return errs
}

func loadVPBX(c *Config, errs []error) []error {
	c.VPBX.APIKey = strings.TrimSpace(os.Getenv("VPBX_API_KEY"))
	c.VPBX.Salt = os.Getenv("VPBX_API_SALT")
	c.VPBX.BaseURL = strings.TrimSpace(os.Getenv("VPBX_BASE_URL"))

	d, err := optionalDuration("VPBX_HTTP_TIMEOUT")
	d, errs = appendParseErr(errs, d, err)
	c.VPBX.HTTPTimeout = d

	n, err := optionalInt("VPBX_STATS_POLL_ATTEMPTS")
	n, errs = appendParseErr(errs, n, err)
	c.VPBX.StatsPollAttempts = n

	d, err = optionalDuration("VPBX_STATS_POLL_INTERVAL")
	d, errs = appendParseErr(errs, d, err)
	c.VPBX.StatsPollInterval = d
	return errs
}

func loadAuth(c *Config, errs []error) []error {
	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	d, err := optionalDuration("JWT_ACCESS_TTL")
	d, errs = appendParseErr(errs, d, err)
	c.Auth.AccessTokenTTL = d
	return errs
}

// ApplyDefaults fills optional settings. Production must set DB_SSLMODE itself.
func (c *Config) ApplyDefaults() {
	if c.VPBX.BaseURL == "" {
		c.VPBX.BaseURL = vpbx.DefaultBaseURL
	}
	if c.VPBX.HTTPTimeout <= 0 {
		c.VPBX.HTTPTimeout = 30 * time.Second
	}
	if c.VPBX.StatsPollAttempts <= 0 {
		c.VPBX.StatsPollAttempts = 1
	}
	if c.VPBX.StatsPollInterval <= 0 {
		c.VPBX.StatsPollInterval = 2 * time.Second
	}
	if c.DB.SSLMode == "" && !c.IsProduction() {
		c.DB.SSLMode = "disable"
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Webhook.DedupTTL <= 0 {
		c.Webhook.DedupTTL = 10 * time.Minute
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	errs = c.validateVPBX(errs)

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		}
	} else if !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	return joinErrors(errs)
}

func (c Config) validateVPBX(errs []error) []error {
	if c.VPBX.APIKey == "" {
		errs = append(errs, errors.New("VPBX_API_KEY is required"))
	}
	if c.VPBX.Salt == "" {
		errs = append(errs, errors.New("VPBX_API_SALT is required"))
	}
	if c.VPBX.BaseURL != "" && !strings.HasPrefix(c.VPBX.BaseURL, "http://") && !strings.HasPrefix(c.VPBX.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("VPBX_BASE_URL must be an http(s) URL, got %q", c.VPBX.BaseURL))
	}
	if c.IsProduction() && strings.HasPrefix(c.VPBX.BaseURL, "http://") {
		errs = append(errs, errors.New("VPBX_BASE_URL must use https in production"))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

func appendParseErr[T any](errs []error, v T, err error) (T, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
