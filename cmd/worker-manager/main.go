// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"study-assistant-workers/internal/common/camunda"
	"study-assistant-workers/internal/common/config"
	"study-assistant-workers/internal/common/database"
	"study-assistant-workers/internal/common/errors"
	"study-assistant-workers/internal/common/logger"
	"study-assistant-workers/internal/common/observability"
	"study-assistant-workers/pkg/registry"

	ftr "study-assistant-workers/internal/workers/study-tools/fetch-tool-response"
	fpu "study-assistant-workers/internal/workers/study-tools/format-progress-update"
	ism "study-assistant-workers/internal/workers/study-tools/index-study-material"
	nr "study-assistant-workers/internal/workers/study-tools/normalize-response"
	rp "study-assistant-workers/internal/workers/study-tools/record-progress"
)

const registryPath = "configs/activity-registry.json"

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
	bootLog := logger.New("info", "console", "stdout")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithRotation(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, logger.Rotation{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   true,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()

	if cfg.Observability.TracingEnabled {
		if err := obs.EnableTracing(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint); err != nil {
			zapLog.Warn("tracing disabled", zap.Error(err))
		}
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
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

	progressStore, err := pg.ProgressStore(ctx)
	if err != nil {
		zapLog.Fatal("progress schema failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// a typed nil would slip past the handler's nil check
	var artifactCache nr.ArtifactCache
	if c := redis.ArtifactCache(cfg.Cache); c != nil {
		artifactCache = c
	}

	// --- Activity registry: input schemas per task type ---
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		zapLog.Warn("activity registry not loaded, job inputs go unchecked",
			zap.String("path", registryPath), zap.Error(err))
		reg = &registry.ActivityRegistry{}
	}
	errHandler := errors.NewErrorHandler(log)

	// --- Register study-tools workers ---
	var workers []*camunda.CamundaWorker
	register := func(taskType string, handler camunda.JobHandler) {
		if activity, ok := reg.Find(taskType); ok {
			handler = camunda.RejectInvalidInput(taskType, activity.ValidateInput, camunda.FailWith(taskType, errHandler), log, handler)
		} else {
			zapLog.Warn("worker missing from activity registry", zap.String("taskType", taskType))
		}
		if w := camunda.StartWorker(zeebe.GetClient(), taskType, cfg.Workers[taskType], handler, log); w != nil {
			workers = append(workers, w)
		}
	}

	backend := cfg.APIs.Backend
	fetchCfg := ftr.LoadConfig()
	fetchCfg.BackendURL = backend.BaseURL
	fetchCfg.APIKey = backend.APIKey
	fetchCfg.Timeout = config.GetDuration(backend.Timeout)
	fetchCfg.MaxRetries = backend.MaxRetries
	fetchCfg.RateLimit = backend.RateLimit
	fetchCfg.Burst = backend.Burst
	register(ftr.TaskType, ftr.NewHandler(fetchCfg, log).Handle)

	normalizeCfg := nr.LoadConfig()
	normalizeCfg.Timeout = workerTimeout(cfg, nr.TaskType, normalizeCfg.Timeout)
	normalizeCfg.CacheEnabled = cfg.Cache.Enabled
	register(nr.TaskType, nr.NewHandler(normalizeCfg, artifactCache, obs, log).Handle)

	progressCfg := rp.LoadConfig()
	progressCfg.Timeout = workerTimeout(cfg, rp.TaskType, progressCfg.Timeout)
	register(rp.TaskType, rp.NewHandler(progressCfg, progressStore, log).Handle)

	indexCfg := ism.LoadConfig()
	indexCfg.IndexName = cfg.Database.Elasticsearch.Index
	indexCfg.Timeout = workerTimeout(cfg, ism.TaskType, indexCfg.Timeout)
	register(ism.TaskType, ism.NewHandler(indexCfg, esClient, log).Handle)

	formatCfg := fpu.LoadConfig()
	formatCfg.Timeout = workerTimeout(cfg, fpu.TaskType, formatCfg.Timeout)
	register(fpu.TaskType, fpu.NewHandler(formatCfg, log).Handle)

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- HTTP: health, readiness, metrics ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"version": cfg.App.Version,
			"workers": len(workers),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		rctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		_, err := zeebe.ExecuteWithRetry(rctx, func(ctx context.Context) (interface{}, error) {
			return nil, zeebe.HealthCheck(ctx)
		}, "topology")
		if err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "ready"})
	})
	mux.Handle(cfg.Observability.MetricsPath, promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("HTTP server shutdown", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if ms := cfg.Workers[taskType].Timeout; ms > 0 {
		return config.GetDuration(ms)
	}
	return fallback
}

func writeStatus(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
