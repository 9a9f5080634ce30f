package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Glebradost/ctfhub/handlers"
	"github.com/Glebradost/ctfhub/middleware"
)

// SetupRoutes mounts the full HTTP surface on the router. Everything
// except registration, login and swagger sits behind JWT auth.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	eventHandler *handlers.EventHandler,
	challengeHandler *handlers.ChallengeHandler,
	attemptHandler *handlers.AttemptHandler,
	noteHandler *handlers.NoteHandler,
	uploadHandler *handlers.UploadHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/swagger/*", httpSwagger.Handler())

	authenticate := middleware.Authenticate(jwtSecret)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Get("/{userID}", userHandler.GetUser)
			r.Patch("/me", userHandler.UpdateCurrentUser)
			r.Post("/me/avatar", userHandler.UploadAvatar)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.CreateTeam)
			r.Post("/join", teamHandler.JoinTeam)
			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", teamHandler.GetTeam)
				r.Patch("/", teamHandler.UpdateTeam)
				r.Get("/members", teamHandler.ListMembers)
				r.Delete("/members/{userID}", teamHandler.RemoveMember)
				r.Post("/invite/rotate", teamHandler.RotateInviteCode)
				r.Get("/events", eventHandler.ListTeamEvents)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", eventHandler.CreateEvent)
			r.Get("/", eventHandler.ListEvents)
			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", eventHandler.GetEvent)
				r.Patch("/", eventHandler.UpdateEvent)
				r.Post("/teams", eventHandler.RegisterTeam)
				r.Get("/teams", eventHandler.ListEventTeams)
				r.Get("/stats", eventHandler.GetEventStats)

				r.Route("/challenges", func(r chi.Router) {
					r.Post("/", challengeHandler.CreateChallenge)
					r.Get("/", challengeHandler.ListChallenges)
					r.Route("/{challengeID}", func(r chi.Router) {
						r.Get("/", challengeHandler.GetChallenge)
						r.Patch("/", challengeHandler.UpdateChallenge)
						r.Post("/solve", challengeHandler.Solve)

						r.Route("/flagAttempts", func(r chi.Router) {
							r.Get("/", attemptHandler.ListAttempts)
							r.Get("/{attemptID}", attemptHandler.GetAttempt)
							r.Post("/{attemptID}/comment", attemptHandler.AnnotateAttempt)
						})

						r.Route("/assignments", func(r chi.Router) {
							r.Post("/", challengeHandler.AssignUser)
							r.Get("/", challengeHandler.ListAssignees)
						})

						r.Route("/notes", func(r chi.Router) {
							r.Post("/", noteHandler.CreateNote)
							r.Get("/", noteHandler.ListNotes)
							r.Patch("/{noteID}", noteHandler.UpdateNote)
							r.Delete("/{noteID}", noteHandler.DeleteNote)
						})

						r.Route("/uploads", func(r chi.Router) {
							r.Post("/", uploadHandler.UploadFile)
							r.Get("/", uploadHandler.ListUploads)
							r.Delete("/{uploadID}", uploadHandler.DeleteUpload)
						})
					})
				})
			})
		})

		r.Get("/ws/events/{eventID}", webSocketHandler.ServeWs)
	})
}
