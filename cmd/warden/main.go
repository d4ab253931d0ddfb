package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tessera-data/warden/pkg/api"
	"github.com/tessera-data/warden/pkg/audit"
	"github.com/tessera-data/warden/pkg/authz"
	"github.com/tessera-data/warden/pkg/authz/store"
	"github.com/tessera-data/warden/pkg/config"
	"github.com/tessera-data/warden/pkg/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("warden: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	fileStore, err := store.NewFileStore(cfg.Roles.FilePath, log)
	if err != nil {
		log.WithError(err).Fatal("loading roles file")
	}

	roleCache := store.NewRoleCache(fileStore, log, metrics)
	fileStore.OnChange(func(names []string) {
		roleCache.Invalidate(names...)
	})

	service := authz.NewService(roleCache, log, metrics)
	service.SetAuditTrail(audit.NewLogTrail(log))
	server := api.NewServer(service, roleCache, fileStore, log, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Roles.WatchFile {
		go func() {
			if err := fileStore.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("roles file watcher stopped")
			}
		}()
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithField("addr", httpServer.Addr).Info("starting authorization server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
