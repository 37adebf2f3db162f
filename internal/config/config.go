// Package config loads service configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/digitaladdress/locator/internal/database"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Nominatim NominatimConfig `yaml:"nominatim"`
	Overpass  OverpassConfig  `yaml:"overpass"`
	OSRM      OSRMConfig      `yaml:"osrm"`
	ORS       ORSConfig       `yaml:"openrouteservice"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Buildings BuildingsConfig `yaml:"buildings"`
	Auth      AuthConfig      `yaml:"auth"`
	PubSub    PubSubConfig    `yaml:"pubsub"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	Environment     string        `yaml:"environment"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequireTLS      bool          `yaml:"require_tls"`
}

// DatabaseConfig configures the Postgres building registry. An empty host selects the
// in-memory registry.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnectRetries  uint64        `yaml:"connect_retries"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// NominatimConfig configures the geocoder.
type NominatimConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	CountryCodes string        `yaml:"country_codes"`
	Email        string        `yaml:"email"`
}

// OverpassConfig configures the building geometry source.
type OverpassConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// OSRMConfig configures the primary route service.
type OSRMConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ORSConfig configures the secondary route service. It is used only when an API key is set.
type ORSConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ResolverConfig configures query resolution.
type ResolverConfig struct {
	LocalityBias string   `yaml:"locality_bias"`
	CodePrefixes []string `yaml:"code_prefixes"`
}

// BuildingsConfig configures building identification.
type BuildingsConfig struct {
	CodePrefix      string        `yaml:"code_prefix"`
	SearchRadius    float64       `yaml:"search_radius"`
	MaxSnapDistance float64       `yaml:"max_snap_distance"`
	GeometryTTL     time.Duration `yaml:"geometry_ttl"`
}

// AuthConfig configures operator tokens.
type AuthConfig struct {
	SigningKey string        `yaml:"signing_key"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

// PubSubConfig configures background jobs.
type PubSubConfig struct {
	ProjectID    string `yaml:"project_id"`
	Topic        string `yaml:"topic"`
	Subscription string `yaml:"subscription"`
}

// DevSigningKey is the signing key used when none is configured outside production.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// Default returns a Config with defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Environment:     "development",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Port:            5432,
			User:            "locator",
			Name:            "locator",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectRetries:  5,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			SampleRatio:  1,
		},
		Nominatim: NominatimConfig{
			BaseURL:      "https://nominatim.openstreetmap.org",
			Timeout:      10 * time.Second,
			CountryCodes: "in",
		},
		Overpass: OverpassConfig{
			BaseURL: "https://overpass-api.de",
			Timeout: 30 * time.Second,
		},
		OSRM: OSRMConfig{
			BaseURL:  "https://router.project-osrm.org",
			Timeout:  10 * time.Second,
			CacheTTL: 2 * time.Minute,
		},
		ORS: ORSConfig{
			BaseURL: "https://api.openrouteservice.org",
			Timeout: 10 * time.Second,
		},
		Resolver: ResolverConfig{
			LocalityBias: "Thrissur",
			CodePrefixes: []string{"DAL", "VAST"},
		},
		Buildings: BuildingsConfig{
			CodePrefix:      "DAL-THR",
			SearchRadius:    200,
			MaxSnapDistance: 25,
			GeometryTTL:     24 * time.Hour,
		},
		Auth: AuthConfig{
			Issuer:   "locator",
			Audience: "locator-ops",
			TokenTTL: time.Hour,
		},
		PubSub: PubSubConfig{
			Topic:        "locator-jobs",
			Subscription: "locator-jobs-worker",
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by CONFIG_FILE (if
// set) and environment overrides, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads a YAML file on top of the defaults without consulting the environment.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Server.Port = getEnvOrDefault("APP_PORT", c.Server.Port)
	c.Server.Environment = getEnvOrDefault("APP_ENV", c.Server.Environment)
	if v := os.Getenv("REQUIRE_TLS"); v != "" {
		c.Server.RequireTLS = v == "true"
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", c.Database.Host)
	c.Database.Port = getIntEnv("DB_PORT", c.Database.Port, &errs)
	c.Database.User = getEnvOrDefault("DB_USER", c.Database.User)
	c.Database.Password = getEnvOrDefault("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnvOrDefault("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnvOrDefault("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getIntEnv("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns, &errs)
	c.Database.MaxIdleConns = getIntEnv("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns, &errs)
	c.Database.ConnMaxLifetime = getDurationEnv("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime, &errs)

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true"
	}
	c.Telemetry.OTLPEndpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
	c.Telemetry.SampleRatio = getFloatEnv("OTEL_TRACES_SAMPLER_ARG", c.Telemetry.SampleRatio, &errs)

	c.Nominatim.BaseURL = getEnvOrDefault("NOMINATIM_BASE_URL", c.Nominatim.BaseURL)
	c.Nominatim.Timeout = getDurationEnv("NOMINATIM_TIMEOUT", c.Nominatim.Timeout, &errs)
	c.Nominatim.CountryCodes = getEnvOrDefault("NOMINATIM_COUNTRY_CODES", c.Nominatim.CountryCodes)
	c.Nominatim.Email = getEnvOrDefault("NOMINATIM_EMAIL", c.Nominatim.Email)

	c.Overpass.BaseURL = getEnvOrDefault("OVERPASS_BASE_URL", c.Overpass.BaseURL)
	c.Overpass.Timeout = getDurationEnv("OVERPASS_TIMEOUT", c.Overpass.Timeout, &errs)

	c.OSRM.BaseURL = getEnvOrDefault("OSRM_BASE_URL", c.OSRM.BaseURL)
	c.OSRM.Timeout = getDurationEnv("OSRM_TIMEOUT", c.OSRM.Timeout, &errs)
	c.OSRM.CacheTTL = getDurationEnv("ROUTE_CACHE_TTL", c.OSRM.CacheTTL, &errs)

	c.ORS.APIKey = getEnvOrDefault("ORS_API_KEY", c.ORS.APIKey)
	c.ORS.BaseURL = getEnvOrDefault("ORS_BASE_URL", c.ORS.BaseURL)
	c.ORS.Timeout = getDurationEnv("ORS_TIMEOUT", c.ORS.Timeout, &errs)

	c.Resolver.LocalityBias = getEnvOrDefault("RESOLVER_LOCALITY_BIAS", c.Resolver.LocalityBias)
	if v := os.Getenv("RESOLVER_CODE_PREFIXES"); v != "" {
		c.Resolver.CodePrefixes = splitList(v)
	}

	c.Buildings.CodePrefix = getEnvOrDefault("BUILDING_CODE_PREFIX", c.Buildings.CodePrefix)

	c.Auth.SigningKey = getEnvOrDefault("JWT_SIGNING_KEY", c.Auth.SigningKey)
	c.Auth.Issuer = getEnvOrDefault("JWT_ISSUER", c.Auth.Issuer)
	c.Auth.Audience = getEnvOrDefault("JWT_AUDIENCE", c.Auth.Audience)

	c.PubSub.ProjectID = getEnvOrDefault("PUBSUB_PROJECT_ID", c.PubSub.ProjectID)
	c.PubSub.Topic = getEnvOrDefault("PUBSUB_TOPIC", c.PubSub.Topic)
	c.PubSub.Subscription = getEnvOrDefault("PUBSUB_SUBSCRIPTION", c.PubSub.Subscription)

	return errors.Join(errs...)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Nominatim.BaseURL == "" {
		return fmt.Errorf("nominatim.base_url is required")
	}
	if c.Overpass.BaseURL == "" {
		return fmt.Errorf("overpass.base_url is required")
	}
	if c.OSRM.BaseURL == "" {
		return fmt.Errorf("osrm.base_url is required")
	}
	if len(c.Resolver.CodePrefixes) == 0 {
		return fmt.Errorf("resolver.code_prefixes must not be empty")
	}
	if c.Buildings.MaxSnapDistance <= 0 || c.Buildings.SearchRadius < c.Buildings.MaxSnapDistance {
		return fmt.Errorf("buildings.search_radius must be at least buildings.max_snap_distance (> 0)")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be between 0 and 1")
	}
	if c.Database.Host != "" && (c.Database.MaxOpenConns <= 0 || c.Database.MaxIdleConns < 0) {
		return fmt.Errorf("database connection limits must be positive")
	}
	if c.IsProduction() && c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// SigningKey returns the configured signing key, or the development key outside production.
func (c *Config) SigningKey() string {
	if c.Auth.SigningKey == "" {
		return DevSigningKey
	}
	return c.Auth.SigningKey
}

// DatabaseConfig converts the database section for database.Connect.
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Database:        c.Database.Name,
		SSLMode:         c.Database.SSLMode,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnectRetries:  c.Database.ConnectRetries,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getFloatEnv(key string, defaultValue float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return f
}

func getDurationEnv(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
