package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/shipgate/engine/internal/api"
	"github.com/shipgate/engine/internal/api/handlers"
	"github.com/shipgate/engine/internal/queue/tasks"
	"github.com/shipgate/engine/internal/repository"
	"github.com/shipgate/engine/internal/services"
	"github.com/shipgate/engine/pkg/config"
	"github.com/shipgate/engine/pkg/database"
	"github.com/shipgate/engine/pkg/logger"
)

// @title           Shipgate API
// @version         1.0
// @description     Release pipeline tracker: releases, stage gates, blockers and pipeline diagrams

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting Shipgate Engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	envRepo := repository.NewEnvironmentRepository(db)
	releaseRepo := repository.NewReleaseRepository(db)
	stageRepo := repository.NewStageRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	blockerRepo := repository.NewBlockerRepository(db)
	diagramRepo := repository.NewDiagramRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		log.Warn("JWT_SECRET not set, using default (INSECURE for production)")
		jwtSecret = []byte("change-me-in-production-please")
	}

	// Notification enqueue path; enqueue failures are logged, never fatal to
	// the mutations that trigger them.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer asynqClient.Close()
	notifier := tasks.NewQueueNotifier(asynqClient)

	// Services
	guard := services.NewGuard(teamRepo, releaseRepo, stageRepo, workspaceRepo)
	activitySvc := services.NewActivityService(guard, activityRepo)
	stageSvc := services.NewStageService(db, guard, envRepo, stageRepo, taskRepo, blockerRepo, activitySvc, notifier,
		services.StageServiceOptions{ReblockDone: cfg.ReblockDoneStages})
	releaseSvc := services.NewReleaseService(guard, releaseRepo, envRepo, stageRepo, taskRepo, blockerRepo, stageSvc, activitySvc)
	diagramSvc := services.NewDiagramService(guard, diagramRepo, taskRepo, activitySvc)
	teamSvc := services.NewTeamService(db, guard, teamRepo, envRepo, workspaceRepo, activitySvc)
	workspaceSvc := services.NewWorkspaceService(workspaceRepo, activitySvc, notifier, cfg.InviteBaseURL)
	authSvc := services.NewAuthService(userRepo, workspaceSvc, jwtSecret)

	// Router
	router := api.NewRouter(api.Dependencies{
		HMACSecret:        jwtSecret,
		AuthHandler:       handlers.NewAuthHandler(authSvc),
		TeamsHandler:      handlers.NewTeamsHandler(teamSvc),
		ReleasesHandler:   handlers.NewReleasesHandler(releaseSvc),
		StagesHandler:     handlers.NewStagesHandler(stageSvc),
		TasksHandler:      handlers.NewTasksHandler(stageSvc),
		BlockersHandler:   handlers.NewBlockersHandler(stageSvc),
		DiagramsHandler:   handlers.NewDiagramsHandler(diagramSvc),
		ActivityHandler:   handlers.NewActivityHandler(activitySvc),
		WorkspacesHandler: handlers.NewWorkspacesHandler(workspaceSvc),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
