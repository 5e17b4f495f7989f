// Package config loads process settings for the ltv binaries and builds their
// logger.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: LTV_HTTP_ADDR, LTV_LOG_LEVEL, ...
const EnvPrefix = "LTV"

// Config holds all configuration values.
type Config struct {
	// Listeners; an empty address disables that surface.
	HTTPAddr string `mapstructure:"http_addr"`
	GRPCAddr string `mapstructure:"grpc_addr"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	// Decision policy: files under PolicyDir, overlaid by PolicyProfile.
	PolicyDir     string `mapstructure:"policy_dir"`
	PolicyProfile string `mapstructure:"policy_profile"`
	// ReloadInterval is the policy file poll period; 0 disables reloading.
	ReloadInterval time.Duration `mapstructure:"reload_interval"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		GRPCAddr:        ":9090",
		LogLevel:        "info",
		ReloadInterval:  2 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("http_addr", d.HTTPAddr)
	v.SetDefault("grpc_addr", d.GRPCAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("policy_dir", d.PolicyDir)
	v.SetDefault("policy_profile", d.PolicyProfile)
	v.SetDefault("reload_interval", d.ReloadInterval)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
}

// Load reads settings from defaults, then the config file, then LTV_*
// environment variables. With an empty path, ./ltv.{yaml,toml,json} is used
// when present; an explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ltv")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the semantic constraints of cfg.
func (c Config) Validate() error {
	var errs []string
	if _, ok := lookupLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Sprintf("log_level must be one of: debug, info, warn, error (got %q)", c.LogLevel))
	}
	if c.ReloadInterval < 0 {
		errs = append(errs, "reload_interval must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout must be > 0")
	}
	if c.PolicyProfile != "" && c.PolicyDir == "" {
		errs = append(errs, "policy_profile requires policy_dir")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
