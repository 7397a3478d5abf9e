// Package config defines the agent configuration.
//
// The agent normally runs with built-in defaults only: the metadata base URL,
// the registry bucket and the retry constants are fixed facts of the UDF
// environment, not operator knobs. Everything is still overridable through an
// optional config file or UDF_AGENT_* environment variables so tests and lab
// operators can point the agent elsewhere.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Profile selects which observed pipeline variant the agent runs.
type Profile string

const (
	// ProfileDirect reads the queue URL straight from the deployment tags
	// and probes for the fastest region.
	ProfileDirect Profile = "direct"
	// ProfileRunner resolves the queue through the lab descriptor and runs
	// the heartbeat loop with a teardown kill message.
	ProfileRunner Profile = "runner"
	// ProfileSite performs the one-shot CE site registration.
	ProfileSite Profile = "site"
)

type Configuration struct {
	Profile   Profile  `mapstructure:"profile" default:"runner"`
	LogLevel  string   `mapstructure:"log_level" default:"info"`
	LogFormat string   `mapstructure:"log_format" default:"json"`
	Metadata  Metadata `mapstructure:"metadata"`
	Lab       Lab      `mapstructure:"lab"`
	Delivery  Delivery `mapstructure:"delivery"`
	Regions   Regions  `mapstructure:"regions"`
}

// Metadata configures reads from the local metadata service.
type Metadata struct {
	BaseURL     string        `mapstructure:"base_url" default:"http://metadata.udf"`
	MaxAttempts uint          `mapstructure:"max_attempts" default:"5"`
	BaseDelay   time.Duration `mapstructure:"base_delay" default:"1s"`
}

// Lab configures the lab registry lookup.
type Lab struct {
	Bucket string `mapstructure:"bucket" default:"orijen-udf-lab-registry"`
	Region string `mapstructure:"region" default:"us-east-1"`
}

// Delivery configures the heartbeat loop and teardown send.
type Delivery struct {
	SuccessInterval time.Duration `mapstructure:"success_interval" default:"60s"`
	FailureInterval time.Duration `mapstructure:"failure_interval" default:"10s"`
	FailureCeiling  int           `mapstructure:"failure_ceiling" default:"6"`
	TeardownTimeout time.Duration `mapstructure:"teardown_timeout" default:"5s"`
}

// Regions configures the latency-probing region strategy.
type Regions struct {
	Default string `mapstructure:"default" default:"us-west-2"`
}

// Load builds the configuration from defaults, an optional config file and
// UDF_AGENT_* environment variables, in increasing precedence.
func Load(path string) (*Configuration, error) {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	v := viper.New()
	seedKeys(v, cfg)
	v.SetEnvPrefix("UDF_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(cfg, weaklyTyped); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	switch cfg.Profile {
	case ProfileDirect, ProfileRunner, ProfileSite:
	default:
		return nil, fmt.Errorf("unknown profile %q", cfg.Profile)
	}
	return cfg, nil
}

// seedKeys registers every configuration key with viper. AutomaticEnv only
// consults the environment for keys viper already knows about, so without
// this the UDF_AGENT_* overrides never reach Unmarshal.
func seedKeys(v *viper.Viper, cfg *Configuration) {
	v.SetDefault("profile", string(cfg.Profile))
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("metadata.base_url", cfg.Metadata.BaseURL)
	v.SetDefault("metadata.max_attempts", cfg.Metadata.MaxAttempts)
	v.SetDefault("metadata.base_delay", cfg.Metadata.BaseDelay)
	v.SetDefault("lab.bucket", cfg.Lab.Bucket)
	v.SetDefault("lab.region", cfg.Lab.Region)
	v.SetDefault("delivery.success_interval", cfg.Delivery.SuccessInterval)
	v.SetDefault("delivery.failure_interval", cfg.Delivery.FailureInterval)
	v.SetDefault("delivery.failure_ceiling", cfg.Delivery.FailureCeiling)
	v.SetDefault("delivery.teardown_timeout", cfg.Delivery.TeardownTimeout)
	v.SetDefault("regions.default", cfg.Regions.Default)
}

// weaklyTyped lets numeric keys arrive as environment strings.
func weaklyTyped(dc *mapstructure.DecoderConfig) {
	dc.WeaklyTypedInput = true
}
