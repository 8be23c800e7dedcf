package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/khobor-lekhok/internal/app"
	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/writer"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/gemini"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
)

const shortCallTimeout = 30 * time.Second

func (c *cli) newGenerateCmd() *cobra.Command {
	var (
		count      int
		categories []string
		status     string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and publish a batch of articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("count") {
				count = c.cfg.Content.PostsPerGeneration
			}
			if !cmd.Flags().Changed("categories") {
				categories = c.cfg.Content.Categories
			}

			result, err := a.Orchestrator.Run(cmd.Context(), count, categories, status)
			if err != nil {
				return err
			}
			out := struct {
				Success bool `json:"success"`
				domain.BatchResult
			}{Success: result.Success(), BatchResult: result}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !result.Success() {
				return errors.New("no articles were generated")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of articles (1-10, default from content.posts_per_generation)")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "topic categories to draw news from")
	cmd.Flags().StringVar(&status, "status", "", "post status: publish or draft (default from content.post_status)")
	return cmd
}

func (c *cli) geminiClient() *gemini.Client {
	return gemini.New(httpclient.NewRestyClient(shortCallTimeout), c.cfg.Gemini.APIKey,
		gemini.WithBaseURL(c.cfg.Gemini.BaseURL),
		gemini.WithLogger(c.log),
	)
}

func (c *cli) newTestConnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Send a short prompt through the model list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(c.cfg.Gemini.APIKey) == "" {
				return &domain.ConfigurationError{Field: "gemini.api_key", Reason: "API key not configured"}
			}
			w := writer.New(c.geminiClient(), writer.Config{Models: c.cfg.Gemini.Models}, c.log)
			model, err := w.TestConnection(cmd.Context())
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connection successful using %s\n", model)
			return nil
		},
	}
}

func (c *cli) newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models visible to the configured API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			models, err := c.geminiClient().ListModels(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range models {
				fmt.Fprintf(out, "%s\t%s\n", strings.TrimPrefix(m.Name, "models/"), m.DisplayName)
			}
			return nil
		},
	}
}

func (c *cli) newStatsCmd() *cobra.Command {
	var auditLimit int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime counters and the latest generation log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Sink.Stats(cmd.Context())
			if err != nil {
				return err
			}
			audit, err := a.Store.AuditLog(cmd.Context(), auditLimit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"stats":      stats,
				"recent_log": audit,
			})
		},
	}
	cmd.Flags().IntVar(&auditLimit, "log", 10, "number of recent generation log entries")
	return cmd
}

func (c *cli) newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run batches on the configured frequency until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Scheduler().Run(ctx)
		},
	}
}

func (c *cli) newTopicsCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Fetch current news topics without generating anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := app.NewSource(c.cfg, c.log).FetchTopics(cmd.Context(), category)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&category, "category", "general", "news category")
	return cmd
}
