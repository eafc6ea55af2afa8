// cmd/intake-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"submission-intake/internal/app"
	"submission-intake/internal/cms"
	"submission-intake/internal/common/aws"
	"submission-intake/internal/common/camunda"
	"submission-intake/internal/common/config"
	"submission-intake/internal/common/database"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/common/observability"
	"submission-intake/internal/common/zoho"
	"submission-intake/internal/followup"
	"submission-intake/internal/journal"
	"submission-intake/internal/pipeline/botfilter"
	"submission-intake/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting intake server...", zap.String("environment", cfg.App.Environment))

	ctx := context.Background()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(ctx)

	tracing, err := observability.NewTracing(cfg.App.Name, observability.TracingConfig{
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	defer tracing.Shutdown(ctx)

	checks := map[string]server.CheckFunc{}

	// --- Redis (shared rate limit store) ---
	var redisClient *database.RedisClient
	if cfg.RateLimit.Backend == "redis" {
		redisClient = database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		checks["redis"] = redisClient.Ping
		zapLog.Info("Redis connected successfully")
	}

	// --- Journal: PostgreSQL and Elasticsearch ---
	var recorders journal.Multi

	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgRecorder := journal.NewPostgresRecorder(pg.DB)
		if err := pgRecorder.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("journal schema setup failed", zap.Error(err))
		}
		recorders = append(recorders, pgRecorder)
		checks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		recorders = append(recorders, journal.NewElasticsearchRecorder(esClient.Client, esClient.Index))
		checks["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Follow-up side effects ---
	fuCfg := followup.DefaultConfig()
	fuCfg.MessageName = cfg.Camunda.MessageName
	fuCfg.LeadSource = cfg.Integrations.Zoho.LeadSource
	opts := []followup.Option{}
	if len(recorders) > 0 {
		opts = append(opts, followup.WithRecorder(recorders))
	}

	awsCfg := cfg.Integrations.AWS
	if awsCfg.SES.Enabled {
		mailer, err := aws.NewSESClient(ctx, awsCfg.Region, awsCfg.SES.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		fuCfg.NotifyTo = []string{awsCfg.SES.ToEmail}
		opts = append(opts, followup.WithMailer(mailer))
	}
	if awsCfg.SNS.Enabled {
		alerter, err := aws.NewSNSClient(ctx, awsCfg.Region, awsCfg.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		opts = append(opts, followup.WithAlerter(alerter))
	}
	if cfg.Integrations.Zoho.Enabled {
		crm := zoho.NewCRMClient(cfg.Integrations.Zoho.BaseURL, cfg.Integrations.Zoho.AuthToken, 10*time.Second)
		opts = append(opts, followup.WithLeadCreator(crm))
	}

	if cfg.Camunda.Enabled {
		var zeebe *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer func() {
			if err := zeebe.Close(); err != nil {
				zapLog.Error("Error closing Zeebe client", zap.Error(err))
			}
		}()
		opts = append(opts, followup.WithPublisher(zeebe))
		checks["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")
	}

	dispatcher := followup.NewDispatcher(fuCfg, log, opts...)

	// --- Endpoints ---
	cmsClient := cms.NewClient(&cms.Config{
		BaseURL:  cfg.CMS.URL,
		APIToken: cfg.CMS.APIToken,
		Timeout:  config.GetDuration(cfg.CMS.Timeout),
	}, log)

	verifierCfg := &botfilter.Config{
		SecretKey: cfg.Security.Recaptcha.SecretKey,
		VerifyURL: cfg.Security.Recaptcha.VerifyURL,
		MinScore:  cfg.Security.Recaptcha.MinScore,
		Timeout:   config.GetDuration(cfg.Security.Recaptcha.Timeout),
	}
	if err := verifierCfg.Validate(); err != nil {
		zapLog.Fatal("invalid recaptcha configuration", zap.Error(err))
	}
	verifier := botfilter.NewVerifier(verifierCfg, log)
	if !verifier.Enabled() {
		zapLog.Warn("reCAPTCHA secret not configured, score verification is disabled")
	}

	deps := app.Dependencies{
		Logger:   log,
		CMS:      cmsClient,
		Verifier: verifier,
		Observer: dispatcher,
	}
	if redisClient != nil {
		deps.Redis = redisClient.Client
	}

	handlers, err := app.NewHandlers(cfg, deps)
	if err != nil {
		zapLog.Fatal("endpoint setup failed", zap.Error(err))
	}

	cors := server.DefaultCORSConfig()
	cors.Origins = cfg.Server.AllowedOrigins

	router := server.NewRouter(handlers, server.Dependencies{
		Logger:        log,
		Observability: obs,
		HealthChecks:  checks,
		CORS:          cors,
	})

	srv := server.New(&server.Config{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.GetDuration(cfg.Server.WriteTimeout),
		ShutdownTimeout: config.GetDuration(cfg.Server.ShutdownTimeout),
	}, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, draining requests...")
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	dispatcher.Wait()

	zapLog.Info("Intake server stopped gracefully")
}
