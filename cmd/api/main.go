// Command api serves the AttackForge HTTP API: chat-completion proxying for
// red-teaming runs and session storage.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/attackforge/internal/ai"
	"github.com/suPer8Hu/attackforge/internal/app"
	"github.com/suPer8Hu/attackforge/internal/config"
	"github.com/suPer8Hu/attackforge/internal/httpapi"
	"github.com/suPer8Hu/attackforge/internal/httpapi/handlers"
	"github.com/suPer8Hu/attackforge/internal/logging"
	"github.com/suPer8Hu/attackforge/internal/metrics"
	"github.com/suPer8Hu/attackforge/internal/session"
	"github.com/suPer8Hu/attackforge/internal/store/rabbitmq"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:          "attackforge-api",
	Short:        "Run the AttackForge HTTP API",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer logCloser.Close()
	slog.SetDefault(log)

	gin.SetMode(cfg.GinMode)

	store, closeStore, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Error("open session store failed", "driver", cfg.StoreDriver, "err", err)
		return err
	}
	defer closeStore()

	// session.Publisher stays a nil interface when events are disabled
	var events session.Publisher
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Error("rabbitmq connect failed", "err", err)
			return err
		}
		defer pub.Close()
		events = pub
		log.Info("session events enabled", "queue", cfg.RabbitQueue)
	}

	client := ai.NewClient(cfg.UpstreamTimeout)
	defer client.Close()

	h := handlers.NewHandler(client, session.NewService(store, events, log), metrics.New(), log)
	r := httpapi.NewRouter(cfg, h)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
