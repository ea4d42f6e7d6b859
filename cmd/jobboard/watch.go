package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/scheduler"
	"github.com/amishk599/jobboard/internal/tui"
)

var (
	watchHeadless bool
	watchAck      bool
	watchJobID    string
	watchFilter   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for status changes or new applicants",
	Long: `Watch the configured token's notifications.

Interactive by default. With --headless, toasts are sent to the configured
notifier (log or slack) instead and dismissed after the toast duration.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchHeadless, "headless", false, "run without a terminal UI and forward toasts to the notifier")
	watchCmd.Flags().BoolVar(&watchAck, "ack", false, "headless: mark each toast seen instead of dismissing it")
	watchCmd.Flags().StringVar(&watchJobID, "job", "", "employer: job whose applicants are shown on start")
	watchCmd.Flags().StringVar(&watchFilter, "filter", "all", "applicant: initial list filter (all, pending, accepted, rejected)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	statusFilter, err := filter.ParseStatusFilter(watchFilter)
	if err != nil {
		return err
	}

	c, userID, role, err := setupClient(cfg)
	if err != nil {
		logger.Error("invalid client config", "error", err)
		return err
	}

	if !watchHeadless {
		// The alt-screen owns the terminal; nothing is logged while it runs.
		return tui.Run(c, tui.Options{
			Role:          role,
			JobID:         watchJobID,
			Filter:        statusFilter,
			PollInterval:  cfg.Client.PollInterval,
			ToastDuration: cfg.Client.ToastDuration,
		})
	}

	logger.Info("watching",
		"user_id", userID,
		"role", string(role),
		"interval", cfg.Client.PollInterval.String(),
		"ack", watchAck,
	)

	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(c, role, n, cfg.Client.PollInterval, cfg.Client.ToastDuration, watchAck, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
