package api

import (
	"codecollab/internal/api/handler"
	"codecollab/internal/api/middleware"
	"codecollab/internal/common/security"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Auth          handler.AuthService
	Projects      handler.ProjectService
	Sessions      handler.CodingSessionService
	Challenges    handler.ChallengeService
	Submissions   handler.SubmissionService
	Leaderboards  handler.LeaderboardService
	SessionStream handler.SessionStream
	TokenRevoker  security.TokenRevoker
}

func NewRouter(svc Services, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(chiMiddleware.Timeout(requestTimeout))

	// Tokens come from "Authorization: Bearer T" or, for browser websockets, "?jwt=T".
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authHandler := handler.NewAuthHandler(svc.Auth)
	projectHandler := handler.NewProjectHandler(svc.Projects)
	sessionHandler := handler.NewCodingSessionHandler(svc.Sessions, svc.SessionStream)
	challengeHandler := handler.NewChallengeHandler(svc.Challenges, svc.Submissions, svc.Leaderboards)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Group(authHandler.RegisterPublicRoutes)

		v1.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticator(svc.TokenRevoker))

			authHandler.RegisterRoutes(protected)
			protected.Route("/projects", func(pr chi.Router) {
				projectHandler.RegisterRoutes(pr)
				pr.Route("/{projectID}/coding-sessions", sessionHandler.RegisterProjectRoutes)
			})
			protected.Route("/coding-sessions", sessionHandler.RegisterRoutes)
			protected.Route("/challenges", challengeHandler.RegisterRoutes)
		})
	})

	return r
}
