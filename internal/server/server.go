package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jeeforces/configs"
	"jeeforces/internal/dbs"
	"jeeforces/internal/logger"
	"jeeforces/internal/repositories"
	"jeeforces/internal/services"
	"jeeforces/internal/workerpool"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Run wires the stores, services and rating workers, then serves HTTP until SIGINT or SIGTERM.
func Run() error {
	config, err := configs.LoadConfig()
	if err != nil {
		return err
	}

	logger.InitLogger(config.IsProduction())
	defer logger.SyncLogger()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, db, err := dbs.InitMongo(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	defer dbs.CloseMongo(context.Background(), mongoClient)

	if err := dbs.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	rdb, err := dbs.InitRedis(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer dbs.CloseRedis(rdb)

	userRepo := repositories.NewUserRepository(db)
	problemRepo := repositories.NewProblemRepository(db)
	submissionRepo := repositories.NewSubmissionRepository(db)
	contestRepo := repositories.NewContestRepository(db)
	discussionRepo := repositories.NewDiscussionRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	tokens := services.NewTokenService(config.JWTSecret, config.SessionTTL)
	mailer := services.NewMailer(services.SMTPConfig{
		Server:   config.SMTPServer,
		User:     config.SMTPUser,
		Password: config.SMTPPassword,
	})
	windows := services.NewRedisWindowStore(rdb)
	userService := services.NewUserService(userRepo, services.NewRedisCache(rdb, "jeeforces"))
	ratingService := services.NewRatingService(contestRepo, userRepo,
		services.NewRedisStreamQueue(rdb, config.RatingStream), userService)

	pool := workerpool.NewWorkerPool(config.NumberOfWorkers,
		workerpool.NewRedisStream(rdb, config.RatingStream, config.RatingGroup),
		workerpool.NewRatingHandler(ratingService),
		config.RatingRetryAfter)
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	router := NewRouter(Deps{
		Config:         config,
		Sessions:       services.NewSessionResolver(tokens),
		Auth:           services.NewAuthService(userRepo, tokens, mailer, config.VerifyTokenTTL, config.BaseURL),
		Users:          userService,
		Problems:       services.NewProblemService(problemRepo, submissionRepo, contestRepo),
		Contests:       services.NewContestService(contestRepo, problemRepo, submissionRepo, userRepo),
		Discussions:    services.NewDiscussionService(discussionRepo, userRepo),
		Reports:        services.NewReportService(reportRepo, userRepo),
		Ratings:        ratingService,
		GeneralLimiter: services.NewGeneralLimiter(windows),
		AgentLimiter:   services.NewAgentLimiter(windows),
	})

	srv := &http.Server{
		Addr:         ":" + config.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		pool.Stop()
		return fmt.Errorf("server stopped: %w", err)
	case sig := <-stop:
		logger.Log.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server shutdown failed", zap.Error(err))
	}
	cancel()
	pool.Stop()

	logger.Log.Info("Server and rating workers stopped gracefully")
	return nil
}
