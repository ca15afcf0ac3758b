package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/nativesvc/component"
	"github.com/kbukum/nativesvc/logger"
	"github.com/kbukum/nativesvc/observability"
	"github.com/kbukum/nativesvc/server"
	"github.com/kbukum/nativesvc/version"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr, configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the echo server",
		Example: `  nativesvc serve
  nativesvc serve --addr 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr, configPath)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address host:port (overrides server.host and server.port)")
	cmd.Flags().StringVar(&configPath, "config", "", "config file path")
	return cmd
}

func runServe(cmd *cobra.Command, addr, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		if err := applyAddr(&cfg.Server, addr); err != nil {
			return err
		}
	}
	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.GetVersion())
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	components := component.NewRegistry()
	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(cfg.Name, components.HealthAll)
	if err := components.Register(server.NewComponent(srv)); err != nil {
		return err
	}
	if err := components.StartAll(ctx); err != nil {
		return err
	}
	printSummary(cmd.ErrOrStderr(), components, srv.Addr())

	<-ctx.Done()
	log.Info("Shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return components.StopAll(stopCtx)
}

// applyAddr overrides the server listen address.
func applyAddr(cfg *server.Config, addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("serve: invalid --addr %q: %w", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("serve: invalid port in --addr %q", addr)
	}
	cfg.Host = host
	cfg.Port = p
	return nil
}

func printSummary(w io.Writer, components *component.Registry, addr string) {
	fmt.Fprintf(w, "%s %s listening on %s\n", serviceName, version.GetShortVersion(), addr)
	for _, d := range components.Describe() {
		fmt.Fprintf(w, "  %-14s %s\n", d.Name, d.Details)
	}
	for _, route := range components.Routes() {
		fmt.Fprintf(w, "  %-7s %-24s %s\n", route.Method, route.Path, route.Handler)
	}
}
