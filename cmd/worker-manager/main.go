// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kye-workers/internal/common/aws"
	"kye-workers/internal/common/caf"
	"kye-workers/internal/common/camunda"
	"kye-workers/internal/common/config"
	"kye-workers/internal/common/database"
	"kye-workers/internal/common/genai"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/common/observability"
	"kye-workers/internal/common/predictus"
	"kye-workers/internal/history"
	"kye-workers/internal/risk"

	assessrisk "kye-workers/internal/workers/screening/assess-risk"
	bulksearch "kye-workers/internal/workers/screening/bulk-search"
	identitycheck "kye-workers/internal/workers/screening/identity-check"
	notifycompliance "kye-workers/internal/workers/screening/notify-compliance"
	recordresult "kye-workers/internal/workers/screening/record-result"
	searchprocesses "kye-workers/internal/workers/screening/search-processes"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer func() { _ = zapLog.Sync() }()

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Re-create the loggers with the configured level and format; the
	// bootstrap logger above only covers config loading itself.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	if collectorURL := os.Getenv("JAEGER_ENDPOINT"); collectorURL != "" {
		tracing, err := observability.NewTracing("worker-manager", collectorURL)
		if err != nil {
			zapLog.Warn("tracing disabled", zap.Error(err))
		} else {
			defer tracing.Shutdown()
		}
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("Zeebe client initialization failed", zap.Error(err))
	}
	defer camundaClient.Close()
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Connected to Zeebe broker", zap.String("address", cfg.Camunda.BrokerAddress))

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL initialization")
	if err != nil {
		zapLog.Fatal("PostgreSQL initialization failed", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("Connected to PostgreSQL", zap.String("host", cfg.Database.Postgres.Host))

	// --- Init Elasticsearch with retry ---
	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch initialization")
	if err != nil {
		zapLog.Fatal("Elasticsearch initialization failed", zap.Error(err))
	}
	zapLog.Info("Connected to Elasticsearch")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis initialization")
	if err != nil {
		zapLog.Fatal("Redis initialization failed", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Connected to Redis", zap.String("address", cfg.Database.Redis.Address))

	// --- External API clients ---
	predictusClient := predictus.NewClient(predictus.Config{
		BaseURL:  cfg.APIs.Predictus.BaseURL,
		Username: cfg.APIs.Predictus.Username,
		Password: cfg.APIs.Predictus.Password,
		Timeout:  time.Duration(cfg.APIs.Predictus.Timeout) * time.Millisecond,
	}, log)

	cafClient := caf.NewClient(caf.Config{
		BaseURL:      cfg.APIs.TrustCheck.BaseURL,
		BearerToken:  cfg.APIs.TrustCheck.BearerToken,
		TemplateID:   cfg.APIs.TrustCheck.TemplateID,
		PollInterval: time.Duration(cfg.APIs.TrustCheck.PollInterval) * time.Millisecond,
		MaxAttempts:  cfg.APIs.TrustCheck.MaxAttempts,
	}, log)

	geminiClient := genai.NewClient(genai.Config{
		BaseURL: cfg.APIs.Gemini.BaseURL,
		APIKey:  cfg.APIs.Gemini.APIKey,
		Model:   cfg.APIs.Gemini.Model,
		Timeout: time.Duration(cfg.APIs.Gemini.Timeout) * time.Millisecond,
	})
	if !geminiClient.Available() {
		zapLog.Warn("Gemini API key not configured, narratives will fall back to manual review")
	}

	assessor := risk.NewAssessor(risk.NewAnalyzer(geminiClient, log), log)
	historyStore := history.NewStore(cfg.History, log)

	// Notification channels are optional. A missing AWS credential chain
	// disables the channel instead of blocking worker startup.
	notifyCfg := notifycompliance.LoadConfig()
	notifyCfg.EmailEnabled = cfg.Notifications.Email.Enabled
	notifyCfg.FromEmail = cfg.Notifications.Email.FromEmail
	notifyCfg.ToEmails = cfg.Notifications.Email.ToEmails
	notifyCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
	notifyCfg.PhoneNumbers = cfg.Notifications.SMS.PhoneNumbers
	if cfg.Notifications.RiskThreshold != "" {
		notifyCfg.RiskThreshold = cfg.Notifications.RiskThreshold
	}

	var emailSender notifycompliance.EmailSender
	var smsSender notifycompliance.SMSSender
	if notifyCfg.EmailEnabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("SES client initialization failed, email notifications disabled", zap.Error(err))
			notifyCfg.EmailEnabled = false
		} else {
			emailSender = sesClient
		}
	}
	if notifyCfg.SMSEnabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("SNS client initialization failed, SMS notifications disabled", zap.Error(err))
			notifyCfg.SMSEnabled = false
		} else {
			smsSender = snsClient
		}
	}

	// --- Register workers ---
	var workers []*camunda.CamundaWorker

	startWorker := func(taskType string, handler camunda.JobHandler) {
		wcfg, ok := cfg.Workers[taskType]
		if !ok || !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		maxJobs := wcfg.MaxJobsActive
		if maxJobs <= 0 {
			maxJobs = cfg.Camunda.MaxJobsActive
		}
		timeout := time.Duration(wcfg.Timeout) * time.Millisecond
		if timeout <= 0 {
			timeout = time.Duration(cfg.Camunda.Timeout) * time.Millisecond
		}
		workers = append(workers, camunda.NewWorker(zeebeClient, taskType, maxJobs, timeout, handler, log))
	}

	searchCfg := searchprocesses.LoadConfig()
	if cfg.Workers[searchprocesses.TaskType].Timeout > 0 {
		searchCfg.Timeout = time.Duration(cfg.Workers[searchprocesses.TaskType].Timeout) * time.Millisecond
	}
	startWorker(searchprocesses.TaskType,
		searchprocesses.NewHandler(searchCfg, predictusClient, redisClient.GetClient(), log))

	startWorker(assessrisk.TaskType,
		assessrisk.NewHandler(assessrisk.LoadConfig(), assessor, log))

	startWorker(identitycheck.TaskType,
		identitycheck.NewHandler(identitycheck.LoadConfig(), cafClient, log))

	recordCfg := recordresult.LoadConfig()
	if cfg.Database.Elasticsearch.Index != "" {
		recordCfg.Index = cfg.Database.Elasticsearch.Index
	}
	startWorker(recordresult.TaskType,
		recordresult.NewHandler(recordCfg, pg.GetDB(), es, historyStore, log))

	startWorker(notifycompliance.TaskType,
		notifycompliance.NewHandler(notifyCfg, emailSender, smsSender, log))

	startWorker(bulksearch.TaskType,
		bulksearch.NewHandler(bulksearch.LoadConfig(), predictusClient, assessor, log))

	if len(workers) == 0 {
		zapLog.Fatal("no workers enabled, check the workers section of the configuration")
	}
	zapLog.Info("All workers started", zap.Int("count", len(workers)))

	// --- Health and metrics endpoints ---
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"workers": len(workers),
			"app":     cfg.App.Name,
			"version": cfg.App.Version,
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := camundaClient.HealthCheck(checkCtx); err != nil {
			http.Error(w, "zeebe unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := pg.Ping(checkCtx); err != nil {
			http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	httpServer := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}
