package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/clients"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/config"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/orchestrator"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/sentiment"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Root
	configErr  error

	log *logrus.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, log: logrus.New()}
}

func (c *commandContext) ensureConfig() (*config.Root, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// setupLogger applies the configured level and format, writing to out.
func (c *commandContext) setupLogger(cfg *config.Root, out io.Writer) error {
	lvl, err := logrus.ParseLevel(cfg.Pipeline.LogLvl)
	if err != nil {
		return fmt.Errorf("pipeline.log_level: %w", err)
	}
	c.log.SetLevel(lvl)
	c.log.SetOutput(out)
	if cfg.Pipeline.LogFormat == "json" {
		c.log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		c.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func newScorer(cfg *config.Root) sentiment.Scorer {
	if cfg.Sentiment.Provider == config.ProviderFinBERT {
		h := clients.NewHTTP(config.DurSeconds(cfg.Sentiment.TimeoutSeconds))
		return clients.NewFinBERT(h, cfg.Services.Sentiment.URL, clients.FinBERTOptions{
			Model:     cfg.Sentiment.ModelName,
			MaxTokens: cfg.Sentiment.MaxTokens,
			Stride:    cfg.Sentiment.Stride,
			BatchSize: cfg.Sentiment.BatchSize,
		})
	}
	return sentiment.NewLexicon()
}

// openStore returns nil when no database path is configured.
func (c *commandContext) openStore(cfg *config.Root) (*store.Store, error) {
	if cfg.Paths.Database == "" {
		return nil, nil
	}
	return store.Open(cfg.Paths.Database, c.log)
}

func (c *commandContext) pipeline(cfg *config.Root, opts ...orchestrator.Option) *orchestrator.Pipeline {
	return orchestrator.NewPipeline(cfg, newScorer(cfg), c.log, opts...)
}
