package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/section-sniper/internal/coursetask"
	"github.com/example/section-sniper/internal/ucam"
)

const EnvPrefix = "SNIPER"

type Config struct {
	API struct {
		Origin       string        `mapstructure:"origin"`
		SiteOrigin   string        `mapstructure:"site_origin"`
		Timeout      time.Duration `mapstructure:"timeout"`
		RateLimitRPS float64       `mapstructure:"rate_limit_rps"`
	} `mapstructure:"api"`

	Poll struct {
		RetryInterval time.Duration `mapstructure:"retry_interval"`
		WaitInterval  time.Duration `mapstructure:"wait_interval"`
		MaxAttempts   int           `mapstructure:"max_attempts"`
		Deadline      time.Duration `mapstructure:"deadline"`
	} `mapstructure:"poll"`

	Orchestrator struct {
		MaxRestarts  int           `mapstructure:"max_restarts"`
		RestartDelay time.Duration `mapstructure:"restart_delay"`
	} `mapstructure:"orchestrator"`

	Preferences string `mapstructure:"preferences"`
	DatabaseURL string `mapstructure:"database_url"`

	MQTT struct {
		URL      string `mapstructure:"url"`
		Topic    string `mapstructure:"topic"`
		ClientID string `mapstructure:"client_id"`
	} `mapstructure:"mqtt"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.origin", ucam.DefaultOrigin)
	v.SetDefault("api.site_origin", ucam.DefaultSiteOrigin)
	v.SetDefault("api.timeout", 20*time.Second)
	v.SetDefault("api.rate_limit_rps", 0)

	v.SetDefault("poll.retry_interval", time.Second)
	v.SetDefault("poll.wait_interval", 10*time.Second)
	v.SetDefault("poll.max_attempts", 0)
	v.SetDefault("poll.deadline", 0)

	v.SetDefault("orchestrator.max_restarts", 0)
	v.SetDefault("orchestrator.restart_delay", 5*time.Second)

	v.SetDefault("preferences", "preferences.yaml")
	v.SetDefault("database_url", "")

	v.SetDefault("mqtt.url", "")
	v.SetDefault("mqtt.topic", "sectionsniper/results")
	v.SetDefault("mqtt.client_id", "sectionsniper")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads settings from the optional YAML file at path, then SNIPER_* environment
// variables (SNIPER_POLL_WAIT_INTERVAL overrides poll.wait_interval). An empty path
// looks for sectionsniper.yaml in the working directory and tolerates its absence.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sectionsniper")
		v.SetConfigType("yaml")
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

func (c Config) Validate() error {
	if c.API.Origin == "" {
		return fmt.Errorf("api.origin is required")
	}
	if c.API.RateLimitRPS < 0 {
		return fmt.Errorf("api.rate_limit_rps must be >= 0")
	}
	if c.Poll.RetryInterval <= 0 || c.Poll.WaitInterval <= 0 {
		return fmt.Errorf("poll intervals must be > 0")
	}
	if c.Orchestrator.RestartDelay <= 0 {
		return fmt.Errorf("orchestrator.restart_delay must be > 0")
	}
	if c.Poll.MaxAttempts < 0 {
		return fmt.Errorf("poll.max_attempts must be >= 0")
	}
	if c.MQTT.URL != "" && c.MQTT.Topic == "" {
		return fmt.Errorf("mqtt.topic is required when mqtt.url is set")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func (c Config) TaskOptions() coursetask.Options {
	return coursetask.Options{
		RetryInterval: c.Poll.RetryInterval,
		WaitInterval:  c.Poll.WaitInterval,
		MaxAttempts:   c.Poll.MaxAttempts,
		Deadline:      c.Poll.Deadline,
	}
}

func (c Config) ClientOptions() ucam.Options {
	return ucam.Options{
		Origin:       c.API.Origin,
		SiteOrigin:   c.API.SiteOrigin,
		Timeout:      c.API.Timeout,
		RateLimitRPS: c.API.RateLimitRPS,
	}
}
