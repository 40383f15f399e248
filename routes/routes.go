package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackingtorch/hackingtorch/auth"
	"github.com/hackingtorch/hackingtorch/handlers"
	"github.com/hackingtorch/hackingtorch/middleware"
	"github.com/hackingtorch/hackingtorch/models"
)

// Handlers собирает все HTTP-обработчики для маршрутизатора.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Event       *handlers.EventHandler
	Team        *handlers.TeamHandler
	Submission  *handlers.SubmissionHandler
	Evaluation  *handlers.EvaluationHandler
	Certificate *handlers.CertificateHandler
	Admin       *handlers.AdminHandler
	Wallet      *handlers.WalletHandler
	Health      *handlers.HealthHandler
	WebSocket   *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, sessions *auth.SessionManager, guard *middleware.RouteGuard, corsOrigins []string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.Timeout(30 * time.Second))

	if len(corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Страничные пути проходят через guard, /api он не трогает.
	router.Use(guard.Handler)

	router.Get("/metrics", promhttp.Handler().ServeHTTP)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.Check)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/reset-password", h.Auth.ResetPassword)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.Event.List)
			r.Get("/{eventID}", h.Event.GetByID)
			r.Get("/{eventID}/teams", h.Team.ListByEvent)
			r.Get("/{eventID}/submissions", h.Submission.ListByEvent)
			r.Get("/{eventID}/evaluations/stats", h.Evaluation.StatsByEvent)
			r.Get("/{eventID}/ws", h.WebSocket.ServeEventRoom)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(sessions))
				r.Use(middleware.RequireRole(models.UserTypeOrganizer, models.UserTypeAdmin))

				r.Post("/", h.Event.Create)
				r.Put("/{eventID}", h.Event.Update)
				r.Post("/{eventID}/publish", h.Event.Publish)
				r.Post("/{eventID}/cancel", h.Event.Cancel)
				r.Post("/{eventID}/cover", h.Event.UploadCover)
				r.Post("/{eventID}/certificates", h.Certificate.Issue)
			})
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/{teamID}", h.Team.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(sessions))

				r.Post("/", h.Team.Create)
				r.Put("/{teamID}", h.Team.Update)
				r.Post("/{teamID}/join", h.Team.Join)
				r.Post("/{teamID}/leave", h.Team.Leave)
				r.Delete("/{teamID}", h.Team.Delete)
				r.Delete("/{teamID}/members/{profileID}", h.Team.RemoveMember)
			})
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Get("/{submissionID}", h.Submission.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(sessions))

				r.Post("/", h.Submission.Create)
				r.Put("/{submissionID}", h.Submission.Update)
				r.Post("/{submissionID}/submit", h.Submission.Submit)
				r.Post("/{submissionID}/files", h.Submission.AttachFile)
				r.Delete("/{submissionID}", h.Submission.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(sessions))
				r.Use(middleware.RequireRole(models.UserTypeOrganizer, models.UserTypeAdmin))

				r.Get("/{submissionID}/evaluations", h.Evaluation.ListBySubmission)
			})
		})

		r.Route("/evaluations", func(r chi.Router) {
			r.Use(middleware.Authenticate(sessions))
			r.Use(middleware.RequireRole(models.UserTypeOrganizer, models.UserTypeAdmin))

			r.Post("/", h.Evaluation.Create)
			r.Put("/{evaluationID}", h.Evaluation.Update)
		})

		r.Route("/certificates", func(r chi.Router) {
			r.Get("/verify/{serial}", h.Certificate.Verify)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(sessions))
				r.Get("/mine", h.Certificate.ListMine)
			})
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Use(middleware.Authenticate(sessions))

			r.Post("/test", h.Wallet.CreateTestClass)
			r.Post("/ticket", h.Wallet.CreateTicket)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Authenticate(sessions))
			r.Use(middleware.RequireRole(models.UserTypeAdmin))

			r.Get("/dashboard", h.Admin.Dashboard)
			r.Get("/profiles", h.Admin.ListProfiles)
			r.Patch("/profiles/{profileID}/status", h.Admin.SetProfileStatus)
			r.Patch("/profiles/{profileID}/type", h.Admin.SetUserType)
			r.Delete("/profiles/{profileID}", h.Admin.DeleteProfile)
			r.Get("/events", h.Admin.ListEvents)
			r.Patch("/events/{eventID}/featured", h.Admin.SetEventFeatured)
			r.Delete("/events/{eventID}", h.Admin.DeleteEvent)
		})
	})

	return router
}
