package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "AlphaRefinery/internal/domain/repository"
	"AlphaRefinery/internal/usecase"
	pkgch "AlphaRefinery/pkg/clickhouse"
	"AlphaRefinery/pkg/config"
	xhttp "AlphaRefinery/pkg/http"
	applogger "AlphaRefinery/pkg/logger"
)

// App encapsulates the application lifecycle: an optional batch refine of
// every configured market at startup, then the HTTP query surface.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	refiner    *usecase.RefinerUseCase
	handler    xhttp.Handler
	chClient   *pkgch.Client
	publisher  domrepo.Publisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	refiner *usecase.RefinerUseCase,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	publisher domrepo.Publisher,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		refiner:   refiner,
		handler:   handler,
		chClient:  chClient,
		publisher: publisher,
	}
}

// Run starts the application. With the server enabled it blocks until
// interrupted; otherwise it exits after the batch refine.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.cfg.Refinery.RefineOnStart {
		a.refineAll(ctx)
	}

	if !a.cfg.Server.Enabled {
		a.l.Info("server disabled, batch run complete")
		return a.shutdown(ctx)
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsLogging(a.l, a.cfg.Server.WriteTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// refineAll runs every configured market in order, one full history each,
// and logs a final report. A failed market never blocks the remaining ones.
func (a *App) refineAll(ctx context.Context) {
	ok, failed, empty := 0, 0, 0
	for _, mcfg := range a.cfg.Refinery.Markets {
		a.l.Info("refining market", applogger.String("market", mcfg.ID))
		summary, err := a.refiner.RefineMarket(ctx, mcfg)
		switch {
		case err != nil:
			failed++
			a.l.Error("market refine failed",
				applogger.String("market", mcfg.ID),
				applogger.Error(err),
			)
		case summary.Status == "empty":
			empty++
		default:
			ok++
		}
	}
	a.l.Info("batch refine report",
		applogger.Int("markets", len(a.cfg.Refinery.Markets)),
		applogger.Int("ok", ok),
		applogger.Int("empty", empty),
		applogger.Int("failed", failed),
	)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
