package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/auth"
	"github.com/vizly-bi/vizly-engine/pkg/config"
	"github.com/vizly-bi/vizly-engine/pkg/crypto"
	"github.com/vizly-bi/vizly-engine/pkg/database"
	"github.com/vizly-bi/vizly-engine/pkg/handlers"
	"github.com/vizly-bi/vizly-engine/pkg/logging"
	"github.com/vizly-bi/vizly-engine/pkg/middleware"
	"github.com/vizly-bi/vizly-engine/pkg/repositories"
	"github.com/vizly-bi/vizly-engine/pkg/services"

	// Datasource adapters register themselves on import.
	_ "github.com/vizly-bi/vizly-engine/pkg/adapters/datasource/mysql"
	_ "github.com/vizly-bi/vizly-engine/pkg/adapters/datasource/postgres"
	_ "github.com/vizly-bi/vizly-engine/pkg/adapters/datasource/sqlite"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("bind_addr", cfg.BindAddr),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Database.Database),
		zap.Int("execute_max_rows", cfg.Execute.MaxRows),
	)

	ctx := context.Background()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.Open(ctx, cfg.Database.ConnectionString(), cfg.Database.MaxConnections)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	secrets, err := crypto.NewSecretBox(cfg.ConnectionSecretsKey, cfg.ConnectionSecretsRetiredKey)
	if err != nil {
		logger.Fatal("Failed to initialize connection secrets", zap.Error(err))
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	authMiddleware := auth.NewMiddleware(tokens, logger)

	userRepo := repositories.NewUserRepository(db.Pool)
	connectionRepo := repositories.NewConnectionRepository(db.Pool)
	queryRepo := repositories.NewQueryRepository(db.Pool)
	queryRunRepo := repositories.NewQueryRunRepository(db.Pool)
	visualizationRepo := repositories.NewVisualizationRepository(db.Pool)
	dashboardRepo := repositories.NewDashboardRepository(db.Pool)

	adapterFactory := datasource.NewAdapterFactory()

	authService := services.NewAuthService(userRepo, tokens, logger)
	userService := services.NewUserService(userRepo, logger)
	connectionService := services.NewConnectionService(connectionRepo, secrets, adapterFactory, cfg.Execute.Timeout(), logger)
	queryService := services.NewQueryService(queryRepo, connectionRepo, queryRunRepo, secrets, adapterFactory, cfg.Execute.MaxRows, cfg.Execute.Timeout(), logger)
	visualizationService := services.NewVisualizationService(visualizationRepo, logger)
	dashboardService := services.NewDashboardService(dashboardRepo, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg.Version, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(authService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewConnectionsHandler(connectionService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewQueriesHandler(queryService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewVisualizationsHandler(visualizationService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewDashboardsHandler(dashboardService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.CORS(cfg.CORSOrigin)(middleware.RequestLogger(logger)(mux))

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting vizly-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
