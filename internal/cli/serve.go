package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/netbar/billing-system/docs"
	"github.com/netbar/billing-system/internal/api"
	"github.com/netbar/billing-system/internal/infrastructure/http/handlers"
	"github.com/netbar/billing-system/internal/infrastructure/queue"
	"github.com/netbar/billing-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the billing sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := connect(ctx, cfg, log)
			if err != nil {
				log.Error().Err(err).Msg("startup failed")
				return err
			}
			defer a.close(context.Background())

			// --- Billing ---
			billingLog := logger.Component(log, "billing")
			dispatcher := queue.NewDispatcher(cfg.Billing.Workers, a.sessions, billingLog)
			dispatcher.Start(ctx)
			sweeper := queue.NewSweeper(a.sessions, dispatcher, cfg.Billing.Interval, billingLog)
			go sweeper.Run(ctx)

			// --- HTTP ---
			e := api.NewRouter(api.RouterConfig{
				JWTSecret:      cfg.Auth.JWTSecret,
				AllowedOrigins: cfg.AllowedOrigins(),
				Revoker:        a.revoker,
				Checks: []handlers.DependencyCheck{
					handlers.MongoCheck(a.db),
					handlers.RedisCheck(a.rdb),
					handlers.PingCheck("broker", a.events.Ping),
				},
			}, a.services, logger.Component(log, "http"))

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				log.Error().Err(err).Msg("http server failed")
				stop()
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("http shutdown")
			}
			dispatcher.Wait()
			return nil
		},
	}
}
