package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/study-planner/internal/app"
	"github.com/joseph-ayodele/study-planner/internal/async"
	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/export"
	"github.com/joseph-ayodele/study-planner/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		common.NewLogger(os.Stderr, "text", "info").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log.Format, cfg.Log.Level)
	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	logger.Info("studyplannerd.config",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"pdf", a.Reader.HasPDF(),
		"workers", cfg.Server.Workers,
	)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()

	queue := async.NewRunQueue(logger,
		async.WithWorkers(cfg.Server.Workers),
		async.WithQueueSize(cfg.Server.QueueSize),
		async.WithRunTimeout(cfg.Server.RunTimeout),
	)

	store := server.NewSessionStore(logger, a.Orchestrator, cfg.Server.SessionTTL)
	stopSweeper, err := store.StartSweeper(cfg.Server.SweepSchedule)
	if err != nil {
		logger.Error("failed to start session sweeper", "error", err)
		os.Exit(1)
	}

	plannerService := server.NewPlannerService(store, queue, export.NewService(logger), logger)
	server.RegisterPlannerServer(grpcServer, plannerService)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("studyplannerd listening", "addr", addr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stopSweeper(shutdownCtx)
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	logger.Info("studyplannerd stopped")
}
