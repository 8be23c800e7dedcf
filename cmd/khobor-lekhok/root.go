package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/khobor-lekhok/internal/app"
	"github.com/Adda-Baaj/khobor-lekhok/internal/config"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
)

// cli carries the state shared by every subcommand.
type cli struct {
	cfgFile string
	envFile string

	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "khobor-lekhok",
		Short: "Generate news articles with Gemini and publish them",
		Long: `khobor-lekhok picks current news topics, writes articles through an ordered list of
Gemini models, formats and categorises them, attaches a featured image and stores
the result, announcing every article to the configured publishers.

Settings come from khobor-lekhok.yaml, a .env file and NEWSGEN_* variables,
e.g. NEWSGEN_GEMINI_API_KEY.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./khobor-lekhok.yaml)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		c.newGenerateCmd(),
		c.newTestConnectionCmd(),
		c.newModelsCmd(),
		c.newStatsCmd(),
		c.newScheduleCmd(),
		c.newTopicsCmd(),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load(config.Options{File: c.cfgFile, EnvFile: c.envFile})
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = log
	return nil
}

func (c *cli) build(cmd *cobra.Command) (*app.App, error) {
	a, err := app.Build(cmd.Context(), c.cfg, c.log)
	if err != nil {
		return nil, fmt.Errorf("initialise: %w", err)
	}
	return a, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
