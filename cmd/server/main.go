package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/LMSJTK/training-delivery/internal/alert"
	"github.com/LMSJTK/training-delivery/internal/api"
	"github.com/LMSJTK/training-delivery/internal/config"
	"github.com/LMSJTK/training-delivery/internal/content"
	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/outbox"
	"github.com/LMSJTK/training-delivery/internal/pkg/distlock"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
	"github.com/LMSJTK/training-delivery/internal/render"
	"github.com/LMSJTK/training-delivery/internal/repository/postgres"
	"github.com/LMSJTK/training-delivery/internal/service/scoring"
	"github.com/LMSJTK/training-delivery/internal/service/session"
	"github.com/LMSJTK/training-delivery/internal/service/tracking"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// checkPortAvailable verifies the target port is not already in use, so a
// stale process fails the boot loudly instead of shadowing the real server.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %w", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		logger.Error("pre-flight check failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database.
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}
	pingCancel()
	logger.Info("database connected")

	// Redis: session cache + sweeper leader lock. Optional; everything
	// falls back when it is absent.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to direct DB reads and PG advisory locks",
				"addr", cfg.Redis.Addr, "error", err)
			redisClient.Close()
			redisClient = nil
		} else {
			logger.Info("redis connected", "addr", cfg.Redis.Addr)
		}
		pingCancel()
	}

	// AWS clients: S3 for remote content bodies, SQS for the downstream
	// topic, SES for operator alerts.
	var (
		s3Client  *s3.Client
		sqsClient *sqs.Client
		sesClient *sesv2.Client
	)
	awsCfg, err := loadAWSConfig(ctx, cfg.Storage)
	if err != nil {
		logger.Warn("AWS config unavailable, remote content and publication disabled", "error", err)
	} else {
		if cfg.Storage.S3Bucket != "" {
			s3Client = s3.NewFromConfig(awsCfg)
		}
		if cfg.Events.QueueURL != "" {
			sqsClient = sqs.NewFromConfig(awsCfg)
		}
		if cfg.Alerts.Enabled {
			// Alerts may run out of a different region than storage.
			sesClient = sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
				if cfg.Alerts.AWSRegion != "" {
					o.Region = cfg.Alerts.AWSRegion
				}
			})
		}
	}

	// Repositories.
	sessionRepo := postgres.NewSessionRepo(db)
	trackingRepo := postgres.NewTrackingStateRepo(db)
	scoreRepo := postgres.NewScoreRepo(db)
	contentRepo := postgres.NewContentRepo(db)
	outboxRepo := postgres.NewOutboxRepo(db)

	// Services.
	sessions := session.NewService(sessionRepo, redisClient, cfg.Redis.SessionTTL())
	tracker := tracking.NewService(trackingRepo)
	loader := content.NewLoader(contentRepo, s3Client, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix, cfg.Storage.PackageDir)
	engine := render.NewEngine("/assets/tracker.js", cfg.Tracker.PublicBaseURL, cfg.Tracker.DefaultLogoURL)

	var transport outbox.Transport
	if sqsClient != nil {
		transport = outbox.NewSQSTransport(sqsClient, cfg.Events.QueueURL)
	}
	publisher := outbox.NewPublisher(outboxRepo, tracker, transport)
	scorer := scoring.NewService(scoreRepo, sessionRepo, tracker, publisher, domain.ContentRole(cfg.Events.DefaultRole))

	// Outbox sweeper: single leader across processes.
	var notifier outbox.Notifier
	if sesClient != nil && cfg.Alerts.FromEmail != "" && cfg.Alerts.ToEmail != "" {
		notifier = alert.NewNotifier(sesClient, cfg.Alerts.FromEmail, []string{cfg.Alerts.ToEmail})
	}
	if transport != nil {
		lock := distlock.NewLock(redisClient, db, "outbox-sweep", 2*cfg.Events.SweepInterval())
		sweeper := outbox.NewSweeper(outboxRepo, transport, notifier, lock, outbox.SweeperConfig{
			Interval:           cfg.Events.SweepInterval(),
			BaseBackoff:        cfg.Events.BaseBackoff(),
			MaxBackoff:         cfg.Events.MaxBackoff(),
			DeadLetterAttempts: cfg.Events.DeadLetterAttempts,
		})
		sweeper.Start(ctx)
		defer sweeper.Stop()
	} else {
		logger.Warn("events queue not configured, completion events stay in the outbox")
	}

	handlers := api.NewHandlers(sessions, tracker, scorer, loader, engine, cfg.Tracker.PublicBaseURL, cfg.Debug)
	server := api.NewServer(handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	db.Close()
	if redisClient != nil {
		redisClient.Close()
	}
	logger.Info("server stopped")
}

func loadAWSConfig(ctx context.Context, sc config.StorageConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if sc.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(sc.AWSRegion))
	}
	if profile := sc.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); key != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(key, secret, os.Getenv("AWS_SESSION_TOKEN"))))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}
