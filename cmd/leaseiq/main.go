package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	fsmadapter "github.com/neomorfeo/leaseiq/internal/adapter/fsm"
	handler "github.com/neomorfeo/leaseiq/internal/adapter/http"
	otelx "github.com/neomorfeo/leaseiq/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/leaseiq/internal/adapter/river"
	"github.com/neomorfeo/leaseiq/internal/adapter/sqlite"
	"github.com/neomorfeo/leaseiq/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "leaseiq.db")

	ctx := context.Background()

	// --- Observability ---
	providers, err := otelx.Setup(ctx, otelx.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otelx.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return err
	}

	// The sweep closure is bound after the service exists; jobs only run
	// once the client starts, below.
	var svc *app.LeaseService
	client, err := riveradapter.Setup(ctx, db, func(ctx context.Context) (int, error) {
		return svc.ExpireDue(ctx, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	publisher := otelx.NewTracingPublisher(riveradapter.NewPublisher(client))

	// --- Application ---
	svc = app.NewLeaseService(otelx.NewTracingRepository(repo), publisher, fsmadapter.New())

	if err := client.Start(ctx); err != nil {
		return err
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(otelchi.Middleware("leaseiq", otelchi.WithChiRoutes(router)))
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	api := humachi.New(router, huma.DefaultConfig("leaseiq", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("leaseiq listening on :%s", port)
		log.Printf("API docs: http://localhost:%s/docs", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := client.Stop(shutdownCtx); err != nil {
		log.Printf("river stop: %v", err)
	}

	log.Println("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
