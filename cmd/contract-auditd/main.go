// Command contract-auditd serves the audit HTTP API and a gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/extract"
	"github.com/joseph-ayodele/contract-auditor/internal/llm/openrouter"
	"github.com/joseph-ayodele/contract-auditor/internal/pipeline"
	"github.com/joseph-ayodele/contract-auditor/internal/repository"
	"github.com/joseph-ayodele/contract-auditor/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	// Logger
	logger := newZap(cfg.Log)
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()
	slogger := common.NewLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := openrouter.NewClient(openrouter.ConfigFromApp(cfg.LLM), slogger)
	if err != nil {
		log.Fatalf("llm client: %v", err)
	}
	opts := []pipeline.Option{
		pipeline.WithExtractor(extract.NewExtractor(extract.Config{}, slogger)),
		pipeline.WithAnalyzer(client),
	}

	// History is optional
	var (
		db     *repository.DB
		audits repository.AuditRepository
	)
	if cfg.HistoryEnabled() {
		db, err = repository.Open(ctx, cfg.Database, slogger)
		if err != nil {
			log.Fatalf("open history database: %v", err)
		}
		defer db.Close(slogger)
		if err := db.HealthCheck(ctx, 3*time.Second); err != nil {
			log.Fatalf("DB health failed: %v", err)
		}
		log.Infow("DB health OK", "dialect", db.Dialect)

		audits = repository.NewAuditRepository(db, slogger)
		opts = append(opts, pipeline.WithHistory(audits))

		retention, err := repository.StartRetention(audits, cfg.Database.Retention, slogger)
		if err != nil {
			log.Fatalf("retention job: %v", err)
		}
		if retention != nil {
			defer func() { <-retention.Stop().Done() }()
			log.Infow("retention job scheduled", "retention", cfg.Database.Retention.String())
		}
	}

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(server.Config{
		Pipeline:         pipeline.New(slogger, opts...),
		DB:               db,
		Audits:           audits,
		Logger:           logger,
		AnonymizeDefault: cfg.Redact.Default,
		MaxUploadBytes:   cfg.Server.MaxUploadBytes,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("HTTP serving on %s", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// gRPC health
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	go func() {
		log.Infof("gRPC health serving on %s", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	hs.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	log.Info("stopped.")
}

func newZap(cfg common.LogConfig) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "text" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(cfg.Level); err == nil {
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
