// cmd/automation-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"econest-automation/internal/api"
	"econest-automation/internal/common/aws"
	"econest-automation/internal/common/camunda"
	"econest-automation/internal/common/config"
	"econest-automation/internal/common/database"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/observability"
	"econest-automation/internal/common/validation"
	"econest-automation/internal/common/zoho"
	"econest-automation/internal/leads"
	"econest-automation/internal/notify"
	"econest-automation/pkg/registry"

	llm "econest-automation/internal/workers/ai/llm-proxy"
	lw "econest-automation/internal/workers/leads/lead-workflow"
	cb "econest-automation/internal/workers/leads/n8n-callback"
	di "econest-automation/internal/workers/spade/detect-intent"
	ep "econest-automation/internal/workers/spade/evaluate-policy"
)

// retryWithBackoff dials a startup dependency with exponential backoff.
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

// jobHandlers maps each task type to the handler serving it.
func jobHandlers(leadHandler *lw.Handler, callbackHandler *cb.Handler, llmHandler *llm.Handler,
	policyHandler *ep.Handler, intentHandler *di.Handler) map[string]worker.JobHandler {
	return map[string]worker.JobHandler{
		lw.TaskType:      leadHandler.Handle,
		cb.TaskType:      callbackHandler.Handle,
		llm.TaskTypeChat: llmHandler.HandleChat,
		llm.TaskTypeSOP:  llmHandler.HandleSOP,
		ep.TaskType:      policyHandler.Handle,
		di.TaskType:      intentHandler.Handle,
	}
}

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting automation server",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	obs := observability.New(cfg.App.Name, zapLog)
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			zapLog.Warn("observability shutdown failed", zap.Error(err))
		}
	}()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(rootCtx)
	}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()
	store := leads.NewPostgresStore(pg.DB)

	// --- Redis (callback replay guard) ---
	var replayGuard *database.RedisClient
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			replayGuard, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return replayGuard.Ping(rootCtx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis unavailable", zap.Error(err))
		}
		defer replayGuard.Close()
	}

	// --- Elasticsearch (lead search projection) ---
	var indexer leads.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch client failed", zap.Error(err))
		}
		if err := esClient.Ping(rootCtx); err != nil {
			zapLog.Warn("elasticsearch unreachable, indexing will log failures", zap.Error(err))
		}
		indexer = leads.NewESIndexer(esClient.Client, esClient.Index)
	}

	// --- Notifications ---
	chatops := notify.NewChatOps(
		cfg.Notifications.ChatOps.WebhookURL,
		config.GetDuration(cfg.Notifications.ChatOps.Timeout),
		log,
	)

	var emailSender notify.EmailSender
	var smsSender notify.SMSSender
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := aws.NewSESClient(rootCtx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		emailSender = sesClient
	}
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(rootCtx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		smsSender = snsClient
	}
	alerts := notify.NewUrgentAlerts(emailSender, smsSender,
		cfg.Notifications.Alerts.SalesEmail, cfg.Notifications.Alerts.SalesPhone, log)

	var crm cb.CRMPusher
	if cfg.Integrations.Zoho.Enabled {
		crm = zoho.NewCRMClient(cfg.Integrations.Zoho.BaseURL, cfg.Integrations.Zoho.AuthToken,
			10*time.Second)
	}

	// --- Handlers ---
	validator, err := validation.NewValidator()
	if err != nil {
		zapLog.Fatal("schema compile failed", zap.Error(err))
	}

	leadCfg := lw.LoadConfig()
	leadCfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, lw.TaskType).Timeout)
	leadHandler := lw.NewHandler(lw.HandlerOptions{
		Config:    leadCfg,
		Store:     store,
		Indexer:   indexer,
		ChatOps:   chatops,
		Alerts:    alerts,
		Validator: validator,
		Logger:    log,
	})

	cbCfg := cb.LoadConfig()
	cbCfg.Secret = cfg.Callback.Secret
	cbCfg.AllowUnsigned = cfg.Callback.AllowUnsigned
	cbCfg.ReplayTTL = time.Duration(cfg.Callback.ReplayTTL) * time.Second
	cbCfg.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, cb.TaskType).Timeout)
	if cbCfg.Secret == "" && cbCfg.AllowUnsigned {
		zapLog.Warn("callback signature verification disabled by callback.allow_unsigned")
	}
	cbOpts := cb.HandlerOptions{
		Config:    cbCfg,
		Store:     store,
		ChatOps:   chatops,
		CRM:       crm,
		Validator: validator,
		Logger:    log,
	}
	if replayGuard != nil {
		cbOpts.Redis = replayGuard.Client
	}
	callbackHandler := cb.NewHandler(cbOpts)

	llmCfg := llm.LoadConfig()
	llmCfg.GenAIBaseURL = cfg.APIs.GenAI.BaseURL
	llmCfg.APIKey = cfg.APIs.GenAI.APIKey
	llmCfg.Model = cfg.APIs.GenAI.Model
	llmCfg.Timeout = config.GetDuration(cfg.APIs.GenAI.Timeout)
	llmHandler := llm.NewHandler(llmCfg, log)

	policyHandler := ep.NewHandler(config.GetDuration(config.GetWorkerConfig(cfg, ep.TaskType).Timeout), validator, log)
	intentHandler := di.NewHandler(config.GetDuration(config.GetWorkerConfig(cfg, di.TaskType).Timeout), log)

	// --- Zeebe workers ---
	var workers []worker.JobWorker
	if cfg.Camunda.Enabled {
		var zc *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zc, err = camunda.NewClient(rootCtx, cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		defer zc.Close()
		camunda.SetJobRecorder(obs)

		handlers := jobHandlers(leadHandler, callbackHandler, llmHandler, policyHandler, intentHandler)
		for _, activity := range registry.Default().Activities {
			handler, ok := handlers[activity.TaskType]
			if !ok {
				zapLog.Fatal("no handler for registered activity", zap.String("taskType", activity.TaskType))
			}
			jw := camunda.StartWorker(zc.GetClient(), activity.TaskType, config.GetWorkerConfig(cfg, activity.TaskType), handler, zapLog)
			if jw != nil {
				workers = append(workers, jw)
			}
		}
		zapLog.Info("zeebe workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP ---
	router := api.NewRouter(api.Handlers{
		Leads:     leadHandler,
		Callbacks: callbackHandler,
		LLM:       llmHandler,
		Policy:    policyHandler,
		Intent:    intentHandler,
		Store:     store,
		Logger:    log,
	}, obs)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:      config.GetDuration(cfg.Server.WriteTimeout),
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		zapLog.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-rootCtx.Done()
	zapLog.Info("shutdown signal received, stopping workers...")

	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}

	zapLog.Info("shutdown complete")
}
