package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SKILL_ID or
// SKILL_SERVER_ADDR.
const EnvPrefix = "SKILL"

const maxTimestampTolerance = time.Hour

type Config struct {
	// ID is the expected skill ID. Empty together with IDParam disables the
	// skill ID check.
	ID            string              `mapstructure:"id"`
	IDParam       string              `mapstructure:"id_param"`
	ListAPI       ListAPIConfig       `mapstructure:"list_api"`
	Verify        VerifyConfig        `mapstructure:"verify"`
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ListAPIConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type VerifyConfig struct {
	TimestampTolerance time.Duration `mapstructure:"timestamp_tolerance"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Path            string        `mapstructure:"path"`
	RateLimit       int           `mapstructure:"rate_limit"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("id", "")
	v.SetDefault("id_param", "")

	v.SetDefault("list_api.timeout", 10*time.Second)
	v.SetDefault("verify.timestamp_tolerance", 150*time.Second)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.path", "/alexa")
	v.SetDefault("server.rate_limit", 600)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")
	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.service_name", "custom-list-skill")
	v.SetDefault("observability.service_version", "dev")
}

// BindServeFlags binds cobra flags to viper for the serve command.
func BindServeFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()
	f.String("config", "", "config file path")
	f.String("addr", "", "HTTP listen address")
	f.String("skill-id", "", "expected skill ID")
	f.Int("rate-limit", 0, "requests per minute per client IP (0 disables)")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (json, text)")

	_ = v.BindPFlag("server.addr", f.Lookup("addr"))
	_ = v.BindPFlag("id", f.Lookup("skill-id"))
	_ = v.BindPFlag("server.rate_limit", f.Lookup("rate-limit"))
	_ = v.BindPFlag("observability.log_level", f.Lookup("log-level"))
	_ = v.BindPFlag("observability.log_format", f.Lookup("log-format"))
}

// Load reads config from defaults, an optional config file, env and any
// flags already bound to v, in increasing priority.
func Load(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.IDParam = strings.TrimSpace(cfg.IDParam)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListAPI.Timeout <= 0 {
		return errors.New("config: list_api.timeout must be positive")
	}
	if c.Verify.TimestampTolerance <= 0 || c.Verify.TimestampTolerance > maxTimestampTolerance {
		return fmt.Errorf("config: verify.timestamp_tolerance must be in (0, %s]", maxTimestampTolerance)
	}
	if c.Server.RateLimit < 0 {
		return errors.New("config: server.rate_limit must not be negative")
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return errors.New("config: server.path must start with /")
	}
	return nil
}
