package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/podhive/access-engine/internal/application/dispatcher"
	"github.com/podhive/access-engine/internal/application/service"
	"github.com/podhive/access-engine/internal/application/workflow"
	"github.com/podhive/access-engine/internal/config"
	"github.com/podhive/access-engine/internal/infrastructure/external/push"
	"github.com/podhive/access-engine/internal/infrastructure/persistence/repository"
	"github.com/podhive/access-engine/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/podhive/access-engine/internal/interfaces/http"
	"github.com/podhive/access-engine/pkg/database"
	"github.com/podhive/access-engine/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// Local development secrets live in .env; absence is fine in production
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting access workflow engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	proposalRepo := repository.NewProposalRepository(db.DB, logger)
	podRepo := repository.NewPodRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	permSetRepo := repository.NewPermissionSetRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)

	txManager := sqlite.NewDB(db.DB, logger)

	appLogger := &zapAdapter{logger: logger}

	// Event dispatcher with bounded async queue
	eventDispatcher := dispatcher.NewDispatcher(
		dispatcher.WithLogger(appLogger),
		dispatcher.WithQueueSize(cfg.Dispatcher.QueueSize),
		dispatcher.WithWorkers(cfg.Dispatcher.Workers),
	)
	defer eventDispatcher.Close()

	// Notification fan-out
	pushClient := push.NewClient(cfg.Push.Endpoint, cfg.Push.APIKey, cfg.Push.Timeout, logger)
	notificationService := service.NewNotificationService(notificationRepo, pushClient, appLogger)
	notificationService.RegisterHandlers(eventDispatcher)

	// Workflow engine
	engine := workflow.NewEngine(
		proposalRepo,
		podRepo,
		userRepo,
		permSetRepo,
		txManager,
		workflow.WithDispatcher(eventDispatcher),
		workflow.WithLogger(appLogger),
	)

	tokens, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("Failed to initialize token manager", zap.Error(err))
	}

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, engine, notificationService, tokens, appLogger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

// zapAdapter adapts zap.Logger to the keysAndValues logger interfaces used by
// the application layer
type zapAdapter struct {
	logger *zap.Logger
}

func (a *zapAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, toZapFields(keysAndValues...)...)
}

func (a *zapAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, toZapFields(keysAndValues...)...)
}

func toZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
