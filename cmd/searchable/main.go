package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/backend/bleve"
	"github.com/kailas-cloud/searchable/internal/backend/elastic"
	"github.com/kailas-cloud/searchable/internal/config"
	dbRedis "github.com/kailas-cloud/searchable/internal/db/redis"
	"github.com/kailas-cloud/searchable/internal/domain/binding"
	"github.com/kailas-cloud/searchable/internal/domain/document"
	logpkg "github.com/kailas-cloud/searchable/internal/logger"
	"github.com/kailas-cloud/searchable/internal/metrics"
	"github.com/kailas-cloud/searchable/internal/registry"
	"github.com/kailas-cloud/searchable/internal/repository/redissource"
	chiTransport "github.com/kailas-cloud/searchable/internal/transport/chi"
	bulkuc "github.com/kailas-cloud/searchable/internal/usecase/bulk"
	healthuc "github.com/kailas-cloud/searchable/internal/usecase/health"
	"github.com/kailas-cloud/searchable/internal/usecase/rebuild"
	recordsuc "github.com/kailas-cloud/searchable/internal/usecase/records"
	"github.com/kailas-cloud/searchable/internal/usecase/resolve"
	searchuc "github.com/kailas-cloud/searchable/internal/usecase/search"
	"github.com/kailas-cloud/searchable/internal/version"
)

// searchBackend is what the server needs from a concrete backend.
type searchBackend interface {
	searchuc.Backend
	bulkuc.Queue
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchable API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend", cfg.Backend.Driver),
		zap.Int("types", len(cfg.Types)),
	)

	metrics.Register()

	backend, err := newBackend(&cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create search backend", zap.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close search backend", zap.Error(err))
		}
	}()

	reg, err := newRegistry(&cfg)
	if err != nil {
		logger.Fatal("Failed to build type registry", zap.Error(err))
	}

	// The persistence store is optional; without it only instance-level indexing works.
	sources := make(bulkuc.SourceMap)
	stores := make(recordsuc.StoreMap)
	var storePinger healthuc.Pinger
	if len(cfg.Database.Addrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

		for _, b := range reg.All() {
			if !b.Root() {
				continue
			}
			src := redissource.New(store, cfg.Database.KeyPrefix, b.Type(), document.RawFactory(b.Type()))
			sources[b.Type()] = src
			stores[b.Type()] = src
		}
		storePinger = store
	}

	resolver := resolve.New(reg, logger)
	builder := searchuc.NewBuilder(resolver, cfg.Search.GeoField).WithDefaultSize(cfg.Search.DefaultSize)
	assembler := searchuc.NewAssembler(rebuild.New(reg), logger)
	searchSvc := searchuc.New(builder, backend, assembler, logger)
	bulkSvc := bulkuc.New(reg, sources, backend, logger)
	healthSvc := healthuc.New(backend, storePinger)

	server := chiTransport.NewServer(searchSvc, bulkSvc, reg, healthSvc, logger)
	if len(stores) > 0 {
		server.WithRecords(recordsuc.New(stores, bulkSvc, logger))
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newBackend(cfg *config.Config, logger *zap.Logger) (searchBackend, error) {
	switch cfg.Backend.Driver {
	case config.DriverElastic:
		e := cfg.Backend.Elastic
		b, err := elastic.New(elastic.Config{
			Addresses:     e.Addresses,
			Username:      e.Username,
			Password:      e.Password,
			APIKey:        e.APIKey,
			CloudID:       e.CloudID,
			GeoField:      cfg.Search.GeoField,
			Refresh:       e.Refresh,
			BulkWorkers:   e.BulkWorkers,
			FlushBytes:    e.FlushBytes,
			FlushInterval: time.Duration(e.FlushInterval) * time.Second,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("elastic: %w", err)
		}
		return b, nil
	case config.DriverBleve:
		s, err := bleve.New(bleve.Config{Path: cfg.Backend.Bleve.Path, GeoField: cfg.Search.GeoField}, logger)
		if err != nil {
			return nil, fmt.Errorf("bleve: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
}

// newRegistry binds every configured type. Config types have no Go struct, so
// hits are rebuilt as raw documents.
func newRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New().WithMaxBulkRequest(cfg.Bulk.MaxBulkRequest)
	for _, t := range cfg.Types {
		docType := t.DocType
		if docType == "" {
			docType = t.Type
		}
		typeID := document.TypeID(t.Type)
		b, err := binding.New(typeID, t.Index, docType, t.IsRoot())
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", t.Type, err)
		}
		if err := reg.Register(b, document.RawFactory(typeID)); err != nil {
			return nil, fmt.Errorf("type %s: %w", t.Type, err)
		}
	}
	return reg, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
