package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	grpchandler "github.com/ogurasousui/personnel-ledger/internal/adapters/grpc/handler"
	httphandler "github.com/ogurasousui/personnel-ledger/internal/adapters/http/handler"
	"github.com/ogurasousui/personnel-ledger/internal/core/directory"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/relocation"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
	"github.com/ogurasousui/personnel-ledger/internal/platform/config"
	"github.com/ogurasousui/personnel-ledger/internal/platform/httpserver"
	"github.com/ogurasousui/personnel-ledger/internal/platform/logger"
	"github.com/ogurasousui/personnel-ledger/internal/platform/metrics"
	"github.com/ogurasousui/personnel-ledger/internal/platform/server"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "personnel-ledger",
		Short:        "Serve the personnel ledger over HTTP and gRPC",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, config.Path(configPath))
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or "+config.DefaultPath+")")

	return cmd
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	st, err := openStorage(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to initialize storage", "driver", cfg.Database.Driver, "error", err)
		return err
	}
	defer st.close()
	log.Info("storage ready", "driver", cfg.Database.Driver)

	employeeSvc := employee.NewService(st.employees, nil, st.tx)
	transferSvc := transfer.NewService(st.transfers, st.tx)
	directorySvc := directory.NewService(st.employees, st.transfers, st.tx)
	coordinator := relocation.New(st.employees, st.transfers, st.tx,
		relocation.WithLogger(log),
		relocation.WithMetrics(m),
	)

	router := httphandler.NewRouter(httphandler.Dependencies{
		Employees:  employeeSvc,
		Transfers:  transferSvc,
		Directory:  directorySvc,
		Relocation: coordinator,
		Logger:     log,
		Observer:   m,
		Metrics:    m.Handler(),
		Ready:      st.ping,
	})
	httpSrv := httpserver.New(cfg.Server.HTTPListenAddr, router)

	grpcSrv := server.New(cfg.Server.ListenAddr,
		grpchandler.NewPersonnelGrpcHandler(employeeSvc, transferSvc, directorySvc, coordinator, log),
		log,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTPListenAddr)
		return httpserver.Run(gctx, httpSrv, cfg.Server.ShutdownTimeout)
	})
	g.Go(func() error {
		log.Info("gRPC server listening", "addr", cfg.Server.ListenAddr)
		return grpcSrv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
