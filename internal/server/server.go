package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vendormart/internal/cache"
	"vendormart/internal/config"
	"vendormart/internal/database"
	custommiddleware "vendormart/internal/middleware"
	"vendormart/internal/repository"
	"vendormart/internal/service"
	"vendormart/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	rdb    *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, rdb *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.RateLimitMiddleware(rdb, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 300,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"database": database.Health(db),
		})
	})

	// Initialize cache invalidator
	invalidator := cache.NewRedisInvalidator(rdb, logger)

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	saleRepo := repository.NewClearanceSaleRepository(db)

	// Initialize services
	slugs := service.NewSlugGenerator(productRepo)
	productService := service.NewProductService(productRepo, categoryRepo, slugs, invalidator)
	saleService := service.NewClearanceSaleService(saleRepo, productRepo, invalidator)
	pricing := service.NewPricingOverlay(saleRepo)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, pricing, logger)
	clearanceHandler := transport.NewClearanceHandler(saleService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	requireVendor := custommiddleware.RequireVendor(logger)
	requireAdmin := custommiddleware.RequireAdmin(logger)

	// Register routes
	productHandler.RegisterRoutes(router, authMiddleware, requireVendor, requireAdmin)
	clearanceHandler.RegisterRoutes(router, authMiddleware, requireVendor, requireAdmin)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		rdb:    rdb,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
