package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "PYKEMEN"

// Config represents the complete library configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Warehouse WarehouseConfig `yaml:"warehouse" envconfig:"WAREHOUSE"`
	Mail      MailConfig      `yaml:"mail" envconfig:"MAIL"`
	Auth      AuthConfig      `yaml:"auth" envconfig:"AUTH"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/pykemen.log"`
}

// CacheConfig contains the on-disk report cache configuration
type CacheConfig struct {
	Dir        string `yaml:"dir" envconfig:"DIR" default:"cache"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS" default:"180"`
}

// AnalyticsConfig contains reporting service configuration
type AnalyticsConfig struct {
	MaxResults         int           `yaml:"max_results" envconfig:"MAX_RESULTS" default:"1000"`
	RequestInterval    time.Duration `yaml:"request_interval" envconfig:"REQUEST_INTERVAL" default:"100ms"`
	UploadPollInterval time.Duration `yaml:"upload_poll_interval" envconfig:"UPLOAD_POLL_INTERVAL" default:"60s"`
}

// WarehouseConfig contains query warehouse configuration
type WarehouseConfig struct {
	ProjectID    string        `yaml:"project_id" envconfig:"PROJECT_ID"`
	Location     string        `yaml:"location" envconfig:"LOCATION" default:"US"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL" default:"2s"`
}

// MailConfig contains mail sending configuration
type MailConfig struct {
	From string `yaml:"from" envconfig:"FROM" default:"me"`
}

// AuthConfig points at stored OAuth client secrets and the cached user token.
// When either is empty, application default credentials are used.
type AuthConfig struct {
	SecretsFile     string `yaml:"secrets_file" envconfig:"SECRETS_FILE"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration from environment variables and the given YAML file.
// An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileConfig, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileConfig, cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. Values explicitly set in the
// environment win; anything else comes from the file when the file sets it.
func mergeConfigs(fileConfig, envConfig Config) Config {
	def := Default()

	pickString := func(env, file, fallback string) string {
		if env != fallback || file == "" {
			return env
		}
		return file
	}
	pickInt := func(env, file, fallback int) int {
		if env != fallback || file == 0 {
			return env
		}
		return file
	}
	pickDuration := func(env, file, fallback time.Duration) time.Duration {
		if env != fallback || file == 0 {
			return env
		}
		return file
	}

	envConfig.Logging.Level = pickString(envConfig.Logging.Level, fileConfig.Logging.Level, def.Logging.Level)
	envConfig.Logging.Output = pickString(envConfig.Logging.Output, fileConfig.Logging.Output, def.Logging.Output)
	envConfig.Logging.FilePath = pickString(envConfig.Logging.FilePath, fileConfig.Logging.FilePath, def.Logging.FilePath)

	envConfig.Cache.Dir = pickString(envConfig.Cache.Dir, fileConfig.Cache.Dir, def.Cache.Dir)
	envConfig.Cache.MaxAgeDays = pickInt(envConfig.Cache.MaxAgeDays, fileConfig.Cache.MaxAgeDays, def.Cache.MaxAgeDays)

	envConfig.Analytics.MaxResults = pickInt(envConfig.Analytics.MaxResults, fileConfig.Analytics.MaxResults, def.Analytics.MaxResults)
	envConfig.Analytics.RequestInterval = pickDuration(envConfig.Analytics.RequestInterval, fileConfig.Analytics.RequestInterval, def.Analytics.RequestInterval)
	envConfig.Analytics.UploadPollInterval = pickDuration(envConfig.Analytics.UploadPollInterval, fileConfig.Analytics.UploadPollInterval, def.Analytics.UploadPollInterval)

	envConfig.Warehouse.ProjectID = pickString(envConfig.Warehouse.ProjectID, fileConfig.Warehouse.ProjectID, def.Warehouse.ProjectID)
	envConfig.Warehouse.Location = pickString(envConfig.Warehouse.Location, fileConfig.Warehouse.Location, def.Warehouse.Location)
	envConfig.Warehouse.PollInterval = pickDuration(envConfig.Warehouse.PollInterval, fileConfig.Warehouse.PollInterval, def.Warehouse.PollInterval)

	envConfig.Mail.From = pickString(envConfig.Mail.From, fileConfig.Mail.From, def.Mail.From)

	envConfig.Auth.SecretsFile = pickString(envConfig.Auth.SecretsFile, fileConfig.Auth.SecretsFile, def.Auth.SecretsFile)
	envConfig.Auth.CredentialsFile = pickString(envConfig.Auth.CredentialsFile, fileConfig.Auth.CredentialsFile, def.Auth.CredentialsFile)

	if fileConfig.Telemetry.Enabled {
		envConfig.Telemetry.Enabled = true
	}
	envConfig.Telemetry.TraceExporter = pickString(envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, def.Telemetry.TraceExporter)
	envConfig.Telemetry.MetricExporter = pickString(envConfig.Telemetry.MetricExporter, fileConfig.Telemetry.MetricExporter, def.Telemetry.MetricExporter)

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache dir must not be empty")
	}

	if c.Cache.MaxAgeDays < 0 {
		return fmt.Errorf("cache max age must not be negative: %d", c.Cache.MaxAgeDays)
	}

	if c.Analytics.MaxResults <= 0 || c.Analytics.MaxResults > 10000 {
		return fmt.Errorf("invalid analytics max results: %d", c.Analytics.MaxResults)
	}

	if c.Analytics.RequestInterval < 0 {
		return fmt.Errorf("analytics request interval must not be negative")
	}

	if c.Analytics.UploadPollInterval <= 0 {
		return fmt.Errorf("analytics upload poll interval must be positive")
	}

	if c.Warehouse.PollInterval <= 0 {
		return fmt.Errorf("warehouse poll interval must be positive")
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0, 1]: %v", c.Telemetry.SampleRatio)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/pykemen.log",
		},
		Cache: CacheConfig{
			Dir:        "cache",
			MaxAgeDays: 180,
		},
		Analytics: AnalyticsConfig{
			MaxResults:         1000,
			RequestInterval:    100 * time.Millisecond,
			UploadPollInterval: 60 * time.Second,
		},
		Warehouse: WarehouseConfig{
			Location:     "US",
			PollInterval: 2 * time.Second,
		},
		Mail: MailConfig{
			From: "me",
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
