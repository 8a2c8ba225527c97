package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/contracts-parser/internal/app"
	"github.com/joseph-ayodele/contracts-parser/internal/async"
	"github.com/joseph-ayodele/contracts-parser/internal/blob"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/contracts"
	"github.com/joseph-ayodele/contracts-parser/internal/export"
	"github.com/joseph-ayodele/contracts-parser/internal/ingest"
	"github.com/joseph-ayodele/contracts-parser/internal/ratelimit"
	"github.com/joseph-ayodele/contracts-parser/internal/server"
)

func main() {
	app.LoadDotEnv()
	cfg := common.LoadConfig()
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(2)
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("config.llm.no_api_key", "hint", "set GROQ_API_KEY; uploads will fail until it is configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store.open.failed", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("store.ready", "backend", cfg.Storage.Backend)

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		logger.Error("upload_dir.create.failed", "dir", cfg.Storage.UploadDir, "error", err)
		os.Exit(1)
	}
	blobs := blob.LocalFS{Root: cfg.Storage.UploadDir}

	proc, err := app.NewProcessor(store.Repo, blobs,
		app.NewTextExtractor(cfg.OCR, logger),
		app.NewFieldExtractor(cfg.LLM, logger),
		logger)
	if err != nil {
		logger.Error("pipeline.init.failed", "error", err)
		os.Exit(1)
	}
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.JobTimeout),
	)

	svc := contracts.NewService(store.Repo, blobs, queue, logger)
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
	}
	if cfg.RateLimit.Capacity > 0 {
		rdb, err := app.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			logger.Error("ratelimit.redis.failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		opts = append(opts, server.WithLimiter(ratelimit.NewTokenBucket(rdb, cfg.Redis.KeyPrefix,
			cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond, cfg.RateLimit.TTL)))
		logger.Info("ratelimit.enabled", "capacity", cfg.RateLimit.Capacity, "refill_per_sec", cfg.RateLimit.RefillPerSecond)
	}
	api := server.New(svc, export.NewService(svc, logger), opts...)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	go func() {
		logger.Info("http.listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http.serve.failed", "error", err)
			stop()
		}
	}()

	if cfg.Ingest.InboxDir != "" {
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{cfg.Ingest.InboxDir},
			InitialScan: cfg.Ingest.InitialScan,
			Debounce:    cfg.Ingest.Debounce,
		}, logger)
		if err != nil {
			logger.Error("ingest.watch.failed", "dir", cfg.Ingest.InboxDir, "error", err)
			os.Exit(1)
		}
		go ingest.NewIngestor(svc, logger).Run(ctx, events, errs)
	}

	var grpcServer *grpc.Server
	if cfg.Server.GRPCHealthAddr != "" {
		grpcServer = startHealthServer(ctx, cfg.Server.GRPCHealthAddr, store, logger)
	}

	<-ctx.Done()
	logger.Info("shutdown.begin")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http.shutdown.failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("shutdown.done")
}

// startHealthServer serves grpc.health.v1; the status follows the store ping.
func startHealthServer(ctx context.Context, addr string, store *app.Store, logger *slog.Logger) *grpc.Server {
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	status := healthpb.HealthCheckResponse_SERVING
	if store.Health != nil {
		if err := store.Health.Ping(ctx); err != nil {
			logger.Warn("health.store.ping_failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	hs.SetServingStatus("", status)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("grpc.listen.failed", "addr", addr, "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("grpc.health.listening", "addr", addr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc.serve.failed", "error", err)
		}
	}()
	return grpcServer
}
