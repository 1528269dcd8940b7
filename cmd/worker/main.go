// Command worker consumes session change events from RabbitMQ and keeps a
// Markdown archive of every session in ARCHIVE_DIR.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/attackforge/internal/app"
	"github.com/suPer8Hu/attackforge/internal/archive"
	"github.com/suPer8Hu/attackforge/internal/config"
	"github.com/suPer8Hu/attackforge/internal/logging"
	"github.com/suPer8Hu/attackforge/internal/session"
	"github.com/suPer8Hu/attackforge/internal/store/rabbitmq"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:          "attackforge-worker",
	Short:        "Archive sessions from RabbitMQ change events",
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
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
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

	if cfg.RabbitURL == "" {
		err := errors.New("RABBIT_URL is required")
		log.Error("worker config", "err", err)
		return err
	}

	store, closeStore, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Error("open session store failed", "driver", cfg.StoreDriver, "err", err)
		return err
	}
	defer closeStore()

	arch := archive.New(store, cfg.ArchiveDir)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Error("rabbit dial", "err", err)
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Error("rabbit channel", "err", err)
		return err
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		log.Error("queue declare", "err", err)
		return err
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Error("qos", "err", err)
		return err
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Error("consume", "err", err)
		return err
	}

	log.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency, "archive_dir", cfg.ArchiveDir)

	// worker pool; in-flight deliveries drain with a context that outlives ctx
	jobs := make(chan amqp.Delivery, concurrency*2)
	jobCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				handleDelivery(jobCtx, log.With("worker", workerID), arch, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return nil

		case d, ok := <-msgs:
			if !ok {
				log.Error("delivery channel closed")
				close(jobs)
				wg.Wait()
				return errors.New("delivery channel closed")
			}
			jobs <- d
		}
	}
}

// handleDelivery acks on success. Malformed messages and failed archives are
// nacked without requeue so they land in the dead-letter queue; context
// failures are requeued.
func handleDelivery(ctx context.Context, log *slog.Logger, arch *archive.Archiver, d amqp.Delivery) {
	var ev session.Event
	if err := json.Unmarshal(d.Body, &ev); err != nil || ev.SessionID == "" {
		log.Warn("bad message", "err", err)
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	if err := arch.Handle(ctx, ev); err != nil {
		log.Error("archive failed", "type", ev.Type, "session_id", ev.SessionID, "cost", time.Since(start), "err", err)
		requeue := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		_ = d.Nack(false, requeue)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Warn("ack failed", "session_id", ev.SessionID, "err", err)
		return
	}
	log.Debug("archived", "type", ev.Type, "session_id", ev.SessionID, "cost", time.Since(start))
}
