package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/antonvels/edu-rag-chat/internal/adapters/http"
	"github.com/antonvels/edu-rag-chat/internal/bootstrap"
	"github.com/antonvels/edu-rag-chat/internal/config"
	"github.com/antonvels/edu-rag-chat/internal/observability/logging"
	"github.com/antonvels/edu-rag-chat/internal/observability/metrics"
)

type metricsObserver struct {
	m *metrics.HTTPServerMetrics
}

func (o metricsObserver) MemoryReset() { o.m.RecordMemoryReset("api") }
func (o metricsObserver) RelatedHit()  { o.m.RecordRelatedHit("api") }

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics("api")
	app.ChatUC.WithObserver(metricsObserver{m: m})

	router := httpadapter.NewRouter(cfg, app.ChatUC, app.IngestUC, app.Repo, m).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.APIRequestTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
