package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default locations and values.
const (
	// DefaultConfigFile is searched when no --config flag is given.
	DefaultConfigFile = "ztadmin.yaml"

	// DefaultDataRoot is the stock controller data directory.
	DefaultDataRoot = "/var/lib/zerotier-one"

	// DefaultControllerURL is the local controller API endpoint.
	DefaultControllerURL = "http://127.0.0.1:9993"

	// DefaultGenerator is the world generator binary name.
	DefaultGenerator = "ztmkworld"

	// DefaultStorePath is the SQLite database file.
	DefaultStorePath = "ztadmin.db"

	// authTokenFile is the controller API token inside the data root.
	authTokenFile = "authtoken.secret"
)

// Config is the ztadmin configuration tree.
type Config struct {
	// Controller configures the controller API client.
	Controller ControllerConfig `yaml:"controller"`

	// DataRoot is the controller data directory holding the planet file,
	// identity, and staging/backup directories.
	DataRoot string `yaml:"data_root" validate:"required"`

	// Generator is the world generator binary, a bare name resolved via
	// PATH or an explicit path.
	Generator string `yaml:"generator" validate:"required"`

	// Store configures the persistence backend.
	Store StoreConfig `yaml:"store"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry export.
	Tracing TracingConfig `yaml:"tracing"`
}

// ControllerConfig configures the connection to the controller daemon.
type ControllerConfig struct {
	// URL is the controller API base URL.
	URL string `yaml:"url" validate:"required,url"`

	// Token authenticates against the controller API. When empty it is
	// read from <data_root>/authtoken.secret.
	Token string `yaml:"token"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout" validate:"min=0"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	// Backend selects the store implementation.
	Backend string `yaml:"backend" validate:"required,oneof=sqlite memory"`

	// Path is the SQLite database file; ignored by the memory backend.
	Path string `yaml:"path"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is the minimum log level.
	Level string `yaml:"level" validate:"required,oneof=trace debug info warn error fatal"`

	// Format selects console or json output.
	Format string `yaml:"format" validate:"required,oneof=console json"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics are served.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the metrics HTTP listen address.
	ListenAddress string `yaml:"listen_address" validate:"required_if=Enabled true"`
}

// TracingConfig configures trace export.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool `yaml:"enabled"`

	// Exporter selects the trace exporter (otlp, stdout, none).
	Exporter string `yaml:"exporter" validate:"omitempty,oneof=otlp stdout none"`

	// Endpoint is the OTLP gRPC endpoint.
	Endpoint string `yaml:"endpoint"`

	// SamplingRate is the trace sampling rate.
	SamplingRate float64 `yaml:"sampling_rate" validate:"gte=0,lte=1"`
}

// Default returns the configuration with every field at its default.
func Default() *Config {
	return &Config{
		Controller: ControllerConfig{
			URL:     DefaultControllerURL,
			Timeout: 10 * time.Second,
		},
		DataRoot:  DefaultDataRoot,
		Generator: DefaultGenerator,
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    DefaultStorePath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9594",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "stdout",
			SamplingRate: 1.0,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file (optional
// unless explicitly named), then environment overrides, then validation.
// The controller token falls back to the authtoken.secret file inside the
// data root when neither the file nor the environment provides one.
func Load(path string) (*Config, error) {
	cfg := Default()

	// A .env file is optional; variables already set win.
	_ = godotenv.Load()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults and environment only.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Controller.Token == "" {
		cfg.Controller.Token = readAuthToken(cfg.DataRoot)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid config: field %s fails %q", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv overlays ZTADMIN_* environment variables onto the config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ZTADMIN_CONTROLLER_URL"); v != "" {
		cfg.Controller.URL = v
	}
	if v := os.Getenv("ZTADMIN_CONTROLLER_TOKEN"); v != "" {
		cfg.Controller.Token = v
	}
	if v := os.Getenv("ZTADMIN_CONTROLLER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Controller.Timeout = d
		}
	}
	if v := os.Getenv("ZTADMIN_DATA_ROOT"); v != "" {
		cfg.DataRoot = v
	}
	if v := os.Getenv("ZTADMIN_GENERATOR"); v != "" {
		cfg.Generator = v
	}
	if v := os.Getenv("ZTADMIN_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("ZTADMIN_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("ZTADMIN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ZTADMIN_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ZTADMIN_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("ZTADMIN_METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddress = v
	}
	if v := os.Getenv("ZTADMIN_TRACING_ENDPOINT"); v != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = "otlp"
		cfg.Tracing.Endpoint = v
	}
}

// readAuthToken loads the controller API token from the data root. A
// missing or unreadable file yields an empty token; callers hit a 401
// later, which is a clearer failure than aborting startup.
func readAuthToken(dataRoot string) string {
	data, err := os.ReadFile(filepath.Join(dataRoot, authTokenFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
