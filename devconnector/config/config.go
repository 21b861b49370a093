package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Junni007/Devconnector/devconnector"
	constant "github.com/Junni007/Devconnector/devconnector/constants"
)

// Config is the process configuration read from the environment.
type Config struct {
	NodeEnv   string `env:"NODE_ENV"`
	Port      int    `env:"PORT"`
	LogLevel  string `env:"LOG_LEVEL"`
	ConfigDir string `env:"NODE_CONFIG_DIR"`
	StaticDir string `env:"STATIC_DIR"`
	Version   string `env:"VERSION"`

	MongoDatabase               string        `env:"MONGO_DATABASE"`
	MongoServerSelectionTimeout time.Duration `env:"MONGO_SERVER_SELECTION_TIMEOUT"`
	MongoSocketTimeout          time.Duration `env:"MONGO_SOCKET_TIMEOUT"`
	MongoConnectTimeout         time.Duration `env:"MONGO_CONNECT_TIMEOUT"`

	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT"`

	OTelEnabled          bool   `env:"OTEL_ENABLED"`
	OTelExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelServiceName      string `env:"OTEL_SERVICE_NAME"`
}

// Load reads Config from the environment, applies defaults and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := devconnector.SetConfigFromEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.NodeEnv = strings.ToLower(strings.TrimSpace(c.NodeEnv))

	if c.Port == 0 {
		c.Port = constant.DefaultPort
	}

	if c.ConfigDir == "" {
		c.ConfigDir = constant.DefaultConfigDir
	}

	if c.StaticDir == "" {
		c.StaticDir = constant.DefaultStaticDir
	}

	if c.Version == "" {
		c.Version = constant.DefaultVersion
	}

	if c.MongoServerSelectionTimeout == 0 {
		c.MongoServerSelectionTimeout = constant.DefaultServerSelectionTimeout
	}

	if c.MongoSocketTimeout == 0 {
		c.MongoSocketTimeout = constant.DefaultSocketTimeout
	}

	if c.MongoConnectTimeout == 0 {
		c.MongoConnectTimeout = constant.DefaultConnectTimeout
	}

	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = constant.DefaultShutdownTimeout
	}

	if c.OTelServiceName == "" {
		c.OTelServiceName = constant.DefaultServiceName
	}

	if c.CORSAllowedOrigins == "" && !c.IsProduction() {
		c.CORSAllowedOrigins = constant.DefaultDevCORSOrigin
	}
}

// Validate checks ranges. NODE_ENV is free-form: any value other than
// development or production runs with the plain profile.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, c.Port)
	}

	if c.MongoServerSelectionTimeout < 0 || c.MongoSocketTimeout < 0 || c.MongoConnectTimeout < 0 {
		return fmt.Errorf("%w: mongo timeouts must be positive", ErrInvalidConfig)
	}

	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}

	if c.OTelEnabled && strings.TrimSpace(c.OTelExporterEndpoint) == "" {
		return fmt.Errorf("%w: %s is required when telemetry is enabled", ErrInvalidConfig, constant.EnvOTelExporterEndpoint)
	}

	return nil
}

// IsProduction reports NODE_ENV=production.
func (c *Config) IsProduction() bool {
	return c.NodeEnv == "production"
}

// IsDevelopment reports NODE_ENV=development. Verbose driver logging keys off this.
func (c *Config) IsDevelopment() bool {
	return c.NodeEnv == "development"
}

// FileEnvironment names the configuration file overlaid on default.*. An
// unset NODE_ENV selects the development overlay.
func (c *Config) FileEnvironment() string {
	if c.NodeEnv == "" {
		return constant.DefaultConfigEnv
	}

	return c.NodeEnv
}

// Address is the listen address for the HTTP server.
func (c *Config) Address() string {
	return ":" + strconv.Itoa(c.Port)
}

// AllowedOrigins splits CORSAllowedOrigins on commas, dropping blanks.
func (c *Config) AllowedOrigins() []string {
	var origins []string

	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return origins
}
