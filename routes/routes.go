package routes

import (
	"net/http"

	_ "github.com/Dosada05/judo-tournament/docs"
	"github.com/Dosada05/judo-tournament/handlers"
	"github.com/Dosada05/judo-tournament/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	WebSocket  *handlers.WebSocketHandler
}

// SetupRoutes mounts the API under /api/v1. Reads are public; changing a
// bracket requires a token with an allowed role.
func SetupRoutes(router chi.Router, h Handlers, jwtSecret string, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListHandler)
			r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
			r.Get("/{tournamentID}/matches", h.Tournament.ListMatchesHandler)
			r.Get("/{tournamentID}/leaderboard", h.Tournament.LeaderboardHandler)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin))

				r.Post("/", h.Tournament.CreateHandler)
				r.Patch("/{tournamentID}/tatami", h.Tournament.ReserveTatamiHandler)
				r.Delete("/{tournamentID}", h.Tournament.DeleteHandler)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/{matchID}", h.Match.GetByIDHandler)

			r.With(
				authenticate,
				middleware.Authorize(middleware.RoleReferee, middleware.RoleOrganizer, middleware.RoleAdmin),
			).Patch("/{matchID}", h.Match.UpdateHandler)
		})
	})
}
