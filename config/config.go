package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ProviderFinBERT = "finbert"
	ProviderLexicon = "lexicon"

	envPrefix = "ECALLS"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Service struct {
	URL string `mapstructure:"url" yaml:"url"`
}
type Services struct {
	Sentiment Service `mapstructure:"sentiment" yaml:"sentiment"`
}
type Sentiment struct {
	Provider       string `mapstructure:"provider" yaml:"provider"`
	ModelName      string `mapstructure:"model_name" yaml:"model_name"`
	MaxTokens      int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	Stride         int    `mapstructure:"stride" yaml:"stride"`
	BatchSize      int    `mapstructure:"batch_size" yaml:"batch_size"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Workers        int    `mapstructure:"workers" yaml:"workers"`
}
type Paths struct {
	Raw       string `mapstructure:"raw" yaml:"raw"`
	Interim   string `mapstructure:"interim" yaml:"interim"`
	Processed string `mapstructure:"processed" yaml:"processed"`
	Database  string `mapstructure:"database" yaml:"database"`
}
type API struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}
type Root struct {
	Pipeline struct {
		Name      string `mapstructure:"name" yaml:"name"`
		Version   string `mapstructure:"version" yaml:"version"`
		LogLvl    string `mapstructure:"log_level" yaml:"log_level"`
		LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	} `mapstructure:"pipeline" yaml:"pipeline"`
	Services  Services  `mapstructure:"services" yaml:"services"`
	Sentiment Sentiment `mapstructure:"sentiment" yaml:"sentiment"`
	Paths     Paths     `mapstructure:"paths" yaml:"paths"`
	API       API       `mapstructure:"api" yaml:"api"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-" yaml:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "ecalls-qa-sentiment")
	v.SetDefault("pipeline.version", "0.1.0")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")
	v.SetDefault("services.sentiment.url", "")
	v.SetDefault("sentiment.provider", "")
	v.SetDefault("sentiment.model_name", "ProsusAI/finbert")
	v.SetDefault("sentiment.max_tokens", 256)
	v.SetDefault("sentiment.stride", 64)
	v.SetDefault("sentiment.batch_size", 16)
	v.SetDefault("sentiment.timeout_seconds", 60)
	v.SetDefault("sentiment.workers", 4)
	v.SetDefault("paths.raw", filepath.Join("data", "raw"))
	v.SetDefault("paths.interim", filepath.Join("data", "interim"))
	v.SetDefault("paths.processed", filepath.Join("data", "processed"))
	v.SetDefault("paths.database", "")
	v.SetDefault("api.addr", "127.0.0.1:8090")
}

func candidates() []string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return []string{
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("configs", "config.yaml"),
	}
}

// Load reads path, or the first existing default location when path is
// empty, and applies ECALLS_* environment overrides (ECALLS_SENTIMENT_WORKERS,
// ECALLS_SERVICES_SENTIMENT_URL, ...). With no file at all the defaults are used.
func Load(path string) (*Root, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		for _, p := range candidates() {
			if _, err := os.Stat(p); err == nil {
				file = p
				break
			}
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = file
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Root) normalize() {
	c.Sentiment.Provider = strings.ToLower(strings.TrimSpace(c.Sentiment.Provider))
	if c.Sentiment.Provider == "" {
		if c.Services.Sentiment.URL != "" {
			c.Sentiment.Provider = ProviderFinBERT
		} else {
			c.Sentiment.Provider = ProviderLexicon
		}
	}
	c.Pipeline.LogFormat = strings.ToLower(strings.TrimSpace(c.Pipeline.LogFormat))
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Root) Validate() error {
	s := c.Sentiment
	switch s.Provider {
	case ProviderFinBERT:
		if c.Services.Sentiment.URL == "" {
			return fmt.Errorf("%w: sentiment.provider %q needs services.sentiment.url", ErrInvalid, s.Provider)
		}
	case ProviderLexicon:
	default:
		return fmt.Errorf("%w: unknown sentiment.provider %q", ErrInvalid, s.Provider)
	}
	if s.MaxTokens <= 0 || s.BatchSize <= 0 || s.Stride < 0 {
		return fmt.Errorf("%w: sentiment max_tokens, batch_size must be positive and stride non-negative", ErrInvalid)
	}
	if s.Stride >= s.MaxTokens {
		return fmt.Errorf("%w: sentiment.stride %d must be below max_tokens %d", ErrInvalid, s.Stride, s.MaxTokens)
	}
	if s.Workers < 1 {
		return fmt.Errorf("%w: sentiment.workers must be at least 1", ErrInvalid)
	}
	switch c.Pipeline.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: pipeline.log_format %q (want text or json)", ErrInvalid, c.Pipeline.LogFormat)
	}
	return nil
}

// YAML renders the resolved configuration.
func (c *Root) YAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
