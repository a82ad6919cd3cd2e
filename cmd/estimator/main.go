package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/packlane/epr-estimator/internal/config"
	"github.com/packlane/epr-estimator/internal/estimator"
	"github.com/packlane/epr-estimator/internal/history"
	"github.com/packlane/epr-estimator/internal/pdfexport"
	"github.com/packlane/epr-estimator/internal/remote"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("config load failed", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing := setupTracing(ctx, cfg.OTLPEndpoint, log)
	defer shutdownTracing()

	store, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		log.Fatalw("history store open failed", "path", cfg.HistoryDBPath, "err", err)
	}
	defer func() { _ = store.Close() }()

	client := remote.NewClient(cfg.RemoteBaseURL)
	renderer := pdfexport.NewChromiumRenderer(cfg.WebDir)

	_, handler := estimator.NewServer(estimator.Options{
		Client:              client,
		History:             store,
		Renderer:            renderer,
		Log:                 log,
		WebDir:              cfg.WebDir,
		ExportPrefix:        cfg.ExportPrefix,
		DefaultJurisdiction: cfg.DefaultJurisdiction,
		DefaultPhase:        cfg.DefaultPhase,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infow("estimator listening",
		"addr", cfg.ListenAddr,
		"remote", cfg.RemoteBaseURL,
		"default_jurisdiction", cfg.DefaultJurisdiction,
		"default_phase", cfg.DefaultPhase)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalw("server failed", "err", err)
	}
}

// setupTracing installs an OTLP trace exporter when an endpoint is
// configured; otherwise tracing stays a no-op.
func setupTracing(ctx context.Context, endpoint string, log *zap.SugaredLogger) func() {
	if endpoint == "" {
		return func() {}
	}
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		log.Warnw("trace exporter init failed", "endpoint", endpoint, "err", err)
		return func() {}
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() {
		_ = tp.Shutdown(context.Background())
	}
}
