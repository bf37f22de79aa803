package main

import (
	"codecollab/internal/api"
	"codecollab/internal/app/grader"
	"codecollab/internal/app/realtime"
	"codecollab/internal/app/service"
	"codecollab/internal/app/worker"
	"codecollab/internal/common/security"
	"codecollab/internal/domain/repository"
	"codecollab/internal/domain/scoring"
	"codecollab/internal/platform/broker"
	"codecollab/internal/platform/config"
	"codecollab/internal/platform/database"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	if config.AppConfig.DBAutoMigrate {
		if err := database.Migrate(context.Background()); err != nil {
			log.Fatalf("Could not migrate database: %v", err)
		}
	}
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	broker.ConnectRedis()
	defer broker.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	badgeRepo := repository.NewPgBadgeRepository(database.DB)
	projectRepo := repository.NewPgProjectRepository(database.DB)
	sessionRepo := repository.NewPgCodingSessionRepository(database.DB)
	challengeRepo := repository.NewPgChallengeRepository(database.DB)
	txr := database.NewTransactor(database.DB)

	// 6. Initialize Services
	g, err := grader.FromConfig(config.AppConfig)
	if err != nil {
		log.Fatalf("Invalid grader configuration: %v", err)
	}
	policy, err := scoring.PolicyFromName(config.AppConfig.AwardPolicy)
	if err != nil {
		log.Fatalf("Invalid award policy: %v", err)
	}
	log.Printf("INFO: Grading with %s grader, %s award policy.", config.AppConfig.GraderMode, policy.Name())

	hub := realtime.NewHub()
	defer hub.Close()
	broadcaster := realtime.NewRedisBroadcaster(broker.RDB, config.AppConfig.SessionEventsChannel)
	revoker := security.NewRedisTokenRevoker(broker.RDB)
	leaderboardCache := service.NewRedisLeaderboardCache(broker.RDB, config.AppConfig.LeaderboardCacheTTL)

	leaderboardService := service.NewLeaderboardService(challengeRepo, leaderboardCache)
	authService := service.NewAuthService(userRepo, badgeRepo, revoker, leaderboardService)
	projectService := service.NewProjectService(projectRepo, sessionRepo)
	sessionService := service.NewCodingSessionService(txr, sessionRepo, projectRepo, broadcaster)
	challengeService := service.NewChallengeService(challengeRepo, userRepo)
	submissionService := service.NewSubmissionService(txr, challengeRepo, userRepo, g, policy, leaderboardService)

	// 7. Initialize Content Relay Worker
	relayWorker := worker.NewContentRelayWorker(broker.RDB, config.AppConfig.SessionEventsChannel, hub)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(api.Services{
		Auth:          authService,
		Projects:      projectService,
		Sessions:      sessionService,
		Challenges:    challengeService,
		Submissions:   submissionService,
		Leaderboards:  leaderboardService,
		SessionStream: hub,
		TokenRevoker:  revoker,
	}, config.AppConfig.RequestTimeout)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: config.AppConfig.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Run until interrupted, then shut down gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not listen on %s: %w", config.AppConfig.APIPort, err)
		}
		return nil
	})
	grp.Go(func() error {
		return relayWorker.Start(grpCtx)
	})
	grp.Go(func() error {
		<-grpCtx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})
	log.Println("Server started successfully.")

	if err := grp.Wait(); err != nil {
		log.Printf("ERROR: %v", err)
		return
	}
	log.Println("Server and worker stopped gracefully.")
}
