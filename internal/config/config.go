package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/drillops/survey-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Defaults DefaultsConfig `yaml:"defaults" mapstructure:"defaults"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// APIConfig holds survey server connection settings.
type APIConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	Token        string  `yaml:"token" mapstructure:"token"`
	RefreshToken string  `yaml:"refresh_token" mapstructure:"refresh_token"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// StoreConfig configures the local calculation history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DefaultsConfig holds default extrapolation parameters for new calculations.
type DefaultsConfig struct {
	Length     float64 `yaml:"length" mapstructure:"length"`
	Step       float64 `yaml:"step" mapstructure:"step"`
	InterpStep float64 `yaml:"interp_step" mapstructure:"interp_step"`
	Method     string  `yaml:"method" mapstructure:"method"`
}

// ExportConfig configures export output.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// BatchConfig configures bulk export behavior.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxRetries    int `yaml:"max_retries" mapstructure:"max_retries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SURVEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a meaningful default still need an entry:
	// AutomaticEnv only surfaces env values for keys viper already knows.
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.token", "")
	v.SetDefault("api.refresh_token", "")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "survey-cli.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("defaults.length", 200.0)
	v.SetDefault("defaults.step", 10.0)
	v.SetDefault("defaults.interp_step", 10.0)
	v.SetDefault("defaults.method", "Constant")
	v.SetDefault("export.dir", ".")
	v.SetDefault("batch.max_concurrent", 4)
	v.SetDefault("batch.max_retries", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that configuration required for the given mode is present.
// Mode is the command family: "api" for commands that talk to the server,
// "store" for commands that touch local history, "batch" for bulk export.
func (c *Config) Validate(mode string) error {
	var missing []string

	check := func(cond bool, msg string) {
		if cond {
			missing = append(missing, msg)
		}
	}

	switch mode {
	case "api":
		check(c.API.BaseURL == "", "api.base_url is required")
		check(c.API.TimeoutSecs <= 0, "api.timeout_secs must be > 0")
	case "store":
		check(c.Store.Driver != "sqlite" && c.Store.Driver != "postgres",
			"store.driver must be sqlite or postgres")
		check(c.Store.Driver == "sqlite" && c.Store.Path == "", "store.path is required")
		check(c.Store.Driver == "postgres" && c.Store.DatabaseURL == "", "store.database_url is required")
	case "batch":
		check(c.API.BaseURL == "", "api.base_url is required")
		check(c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 32,
			"batch.max_concurrent must be between 1 and 32")
		check(c.Batch.MaxRetries < 0, "batch.max_retries must be >= 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// Params builds model defaults from the configured values. Invalid configured
// values fall back to the built-in defaults so a bad config cannot wedge the
// calculate command.
func (c *Config) Params() model.Params {
	p := model.DefaultParams()
	if c.Defaults.Length > 0 {
		p.Length = c.Defaults.Length
	}
	if c.Defaults.Step > 0 {
		p.Step = c.Defaults.Step
	}
	if c.Defaults.InterpStep > 0 {
		p.InterpStep = c.Defaults.InterpStep
	}
	if m, err := model.ParseMethod(c.Defaults.Method); err == nil {
		p.Method = m
	}
	return p
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
