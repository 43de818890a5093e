package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"scalemap.app/engine/common/id"
	"scalemap.app/engine/common/logger"
	"scalemap.app/engine/common/otel"
	"scalemap.app/engine/core/config"
	"scalemap.app/engine/internal/notify"
	"scalemap.app/engine/internal/queue"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "engine worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Notify.RedisGroup,
		"consumer_name", cfg.Notify.RedisConsumer)

	// Different node ID than the server so snowflakes never collide
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.Notify.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Notify.RedisStream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Notify.RedisStream,
		Group:        cfg.Notify.RedisGroup,
		Consumer:     cfg.Notify.RedisConsumer,
		DLQStream:    cfg.Notify.RedisDLQ,
		BatchSize:    10,
		Block:        5 * time.Second,
		MaxAttempts:  3,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	var sender notify.Sender = notify.LogSender{Logger: slog.Default()}
	if cfg.Notify.WebhookURL != "" {
		sender = notify.NewWebhookSender(cfg.Notify.WebhookURL, cfg.Notify.FromAddress, slog.Default())
	} else {
		slog.WarnContext(ctx, "no webhook endpoint configured, notices are logged only")
	}

	w := notify.NewWorker(consumer, sender, notify.WorkerConfig{MaxAttempts: 3})

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
███████╗ ██████╗ █████╗ ██╗     ███████╗███╗   ███╗ █████╗ ██████╗
██╔════╝██╔════╝██╔══██╗██║     ██╔════╝████╗ ████║██╔══██╗██╔══██╗
███████╗██║     ███████║██║     █████╗  ██╔████╔██║███████║██████╔╝
╚════██║██║     ██╔══██║██║     ██╔══╝  ██║╚██╔╝██║██╔══██║██╔═══╝
███████║╚██████╗██║  ██║███████╗███████╗██║ ╚═╝ ██║██║  ██║██║
╚══════╝ ╚═════╝╚═╝  ╚═╝╚══════╝╚══════╝╚═╝     ╚═╝╚═╝  ╚═╝╚═╝
`
