package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/client"
	"github.com/amishk599/jobboard/internal/config"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/notifier"
	"github.com/amishk599/jobboard/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "jobboard",
	Short:        "Job board applications API and notification client",
	Long:         "jobboard serves the application lifecycle API and watches it for status changes and new applicants.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBBOARD_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads .env, resolves the config path and parses it.
// Priority: explicit path arg > JOBBOARD_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	if path == "" {
		if env := os.Getenv("JOBBOARD_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// setupClient builds an API client for the configured token and reports the
// token's identity.
func setupClient(cfg *config.Config) (*client.Client, string, model.Role, error) {
	if err := cfg.RequireClient(); err != nil {
		return nil, "", "", err
	}
	c := client.New(cfg.Client.BaseURL, cfg.Client.Token, &http.Client{Timeout: 30 * time.Second})
	userID, role, err := c.Identity()
	if err != nil {
		return nil, "", "", fmt.Errorf("client.token: %w", err)
	}
	return c, userID, role, nil
}

func newRetrier(logger *slog.Logger) *retry.Retrier {
	return retry.NewRetrier(2, 2*time.Second, logger)
}
