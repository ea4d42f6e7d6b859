package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/api"
	"github.com/amishk599/jobboard/internal/auth"
	"github.com/amishk599/jobboard/internal/events"
	"github.com/amishk599/jobboard/internal/feed"
	"github.com/amishk599/jobboard/internal/lifecycle"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/ratelimit"
	"github.com/amishk599/jobboard/internal/retry"
	"github.com/amishk599/jobboard/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the applications API",
	Long:  "Serve the applications API over HTTP; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	if err := cfg.RequireServer(); err != nil {
		logger.Error("invalid config", "error", err)
		return err
	}

	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"driver", cfg.Database.Driver,
		"events", cfg.Events.RedisURL != "",
		"apply_min_delay", cfg.RateLimit.ApplyMinDelay.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retrier := newRetrier(logger)

	db, err := retry.Value(ctx, retrier, "open store", func(ctx context.Context) (*store.Store, error) {
		return store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	})
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer db.Close()

	var publisher model.EventPublisher = events.NewNopPublisher()
	if cfg.Events.RedisURL != "" {
		rp, err := retry.Value(ctx, retrier, "connect redis", func(ctx context.Context) (*events.RedisPublisher, error) {
			return events.NewRedisPublisher(ctx, cfg.Events.RedisURL, cfg.Events.Channel)
		})
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			return err
		}
		defer rp.Close()
		publisher = rp
		logger.Info("publishing lifecycle events to redis")
	}

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		return err
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := lifecycle.NewEngine(db, db, publisher, logger)
	feeds := feed.NewService(db, db, cfg.Server.FeedLimit, logger)
	limiter := ratelimit.NewLimiter(cfg.RateLimit.ApplyMinDelay)
	server := api.NewServer(engine, feeds, tokens, limiter, db, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:       cfg.Server.RequestTimeout,
		WriteTimeout:      cfg.Server.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
