package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carbontrace/apiserver/config"
	"github.com/carbontrace/apiserver/internal/db"
	"github.com/carbontrace/apiserver/internal/events"
	"github.com/carbontrace/apiserver/internal/handlers"
	"github.com/carbontrace/apiserver/internal/scoring"
	"github.com/carbontrace/apiserver/internal/services"
	"github.com/carbontrace/apiserver/internal/storage"
	"github.com/carbontrace/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	archive, err := newArchive(ctx, cfg.Storage)
	if err != nil {
		_ = publisher.Close()
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	companyRepo := store.NewCompanyRepository(dbConn)
	supplierRepo := store.NewSupplierRepository(dbConn)
	materialRepo := store.NewMaterialRepository(dbConn)
	supplyChainRepo := store.NewSupplyChainRepository(dbConn)
	emissionRepo := store.NewEmissionRepository(dbConn)
	predictionRepo := store.NewPredictionRepository(dbConn)

	userService := services.NewUserService(userRepo)
	companyService := services.NewCompanyService(companyRepo)
	supplierService := services.NewSupplierService(supplierRepo)
	materialService := services.NewMaterialService(materialRepo)
	supplyChainService := services.NewSupplyChainService(supplyChainRepo)
	emissionService := services.NewEmissionService(emissionRepo, publisher)
	analyticsService := services.NewAnalyticsService(emissionRepo)
	reportService := services.NewReportService(analyticsService, archive)
	predictionService := services.NewPredictionService(predictionRepo, scoring.NewClient(cfg.Scoring), publisher)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/companies", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.CompanyRouter(r, companyService)
	})
	router.Route("/suppliers", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.SupplierRouter(r, supplierService)
	})
	router.Route("/materials", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.MaterialRouter(r, materialService)
	})
	router.Route("/supply-chains", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.SupplyChainRouter(r, supplyChainService, userService)
	})
	router.Route("/emissions", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.EmissionRouter(r, emissionService, analyticsService, userService)
	})
	router.Route("/predictions", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.PredictionRouter(r, predictionService, userService)
	})
	router.Route("/reports", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.ReportRouter(r, reportService, userService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

// newPublisher selects the event broker per config. An empty backend
// disables eventing; Emit then becomes a no-op.
func newPublisher(ctx context.Context, cfg config.EventsConfig) (*events.Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return events.NewPublisher(nil), nil
	case "rabbitmq":
		backend, err := events.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend), nil
	case "pubsub":
		backend, err := events.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// newArchive selects the report archive backend per config. An empty
// backend disables report export.
func newArchive(ctx context.Context, cfg config.StorageConfig) (*storage.Archive, error) {
	var backend storage.ObjectStorage

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "minio":
		minioBackend, err := storage.NewMinioBackend(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = minioBackend
	case "gcs":
		gcsBackend, err := storage.NewGCSBackend(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = gcsBackend
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	archive := storage.NewArchive(backend)
	if err := archive.EnsureBucket(ctx); err != nil {
		slog.Warn("report archive bucket check failed", "error", err)
	}
	return archive, nil
}
