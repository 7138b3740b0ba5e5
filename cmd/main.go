package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/space-service/config"
	"github.com/cwrk-planet/space-service/internal/postgres"
	"github.com/cwrk-planet/space-service/internal/scheduler"
	"github.com/cwrk-planet/space-service/internal/service"
	"github.com/cwrk-planet/space-service/internal/storage"
	"github.com/cwrk-planet/space-service/internal/storage/file"
	"github.com/cwrk-planet/space-service/internal/storage/memory"
	"github.com/cwrk-planet/space-service/internal/storage/remote"
	"github.com/cwrk-planet/space-service/internal/storage/sqlite"
	grpcx "github.com/cwrk-planet/space-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/space-service/internal/transport/http"
	"github.com/cwrk-planet/space-service/internal/transport/ws"
	"github.com/cwrk-planet/space-service/pkg/logger"
	"github.com/cwrk-planet/space-service/pkg/tracing"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting space-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- tracing ---
	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Service:     cfg.Logging.Service,
		Version:     cfg.Logging.Version,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}
	defer func() {
		ctxFlush, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctxFlush); err != nil {
			slog.Warn("tracing shutdown", slog.Any("err", err))
		}
	}()

	// --- storage ---
	gw, closeGW, err := openGateway(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeGW()

	// --- services ---
	hub := ws.NewHub()
	store := service.NewStore(gw)
	spaceSvc := service.NewSpaceService(store,
		service.WithPublisher(hub),
		service.WithEnforcedCapacity(cfg.Membership.EnforceCapacity),
	)
	userSvc := service.NewUserService(store)
	docSvc := service.NewDocumentService(store, hub)

	go scheduler.New(spaceSvc, cfg.Scheduler.Interval).Run(ctx)

	// --- HTTP + WS ---
	wsServer := ws.NewServer(hub, spaceSvc, cfg.WS.PingEvery)
	handler := httpx.NewHandler(spaceSvc, userSvc, docSvc)
	router := httpx.NewRouter(handler, wsServer, httpx.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Timeout:        cfg.HTTP.Timeout,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// --- gRPC ---
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor()),
	)
	grpcx.Register(grpcServer, grpcx.NewServer(spaceSvc, userSvc))

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	stop()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}

// openGateway builds the snapshot gateway selected by cfg.Driver. The returned
// func releases whatever the gateway holds open.
func openGateway(ctx context.Context, cfg config.Storage) (storage.Gateway, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), noop, nil

	case config.DriverFile:
		gw, err := file.Open(cfg.File.Path)
		if err != nil {
			return nil, nil, err
		}
		if cfg.File.Watch {
			if err := gw.Watch(ctx); err != nil {
				slog.Warn("file watch disabled", slog.Any("err", err))
			}
		}
		return gw, func() { _ = gw.Close() }, nil

	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSnapshotRepository(db.Pool), db.Close, nil

	case config.DriverRemote:
		gw, err := remote.New(cfg.Remote.BaseURL, cfg.Remote.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return gw, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
