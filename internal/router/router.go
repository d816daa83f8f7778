package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/internshipkaro/platform-api/internal/api/auth"
	"github.com/internshipkaro/platform-api/internal/api/course"
	"github.com/internshipkaro/platform-api/internal/api/user"
)

// Config contains the handlers and middleware needed for the router setup.
type Config struct {
	AuthHandler            auth.Handler
	UserHandler            user.Handler
	CourseHandler          course.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	RequestLogger          func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.RequestLogger != nil {
		r.Use(cfg.RequestLogger)
	}
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	r.Route("/api", func(r chi.Router) {
		// Public auth routes. Rate limited per IP since they hit bcrypt and
		// are the obvious credential-stuffing target.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(20, time.Minute))

			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.Refresh)
		})

		// Public catalog routes.
		r.Get("/courses", cfg.CourseHandler.ListCourses)
		r.Get("/courses/{courseID}", cfg.CourseHandler.GetCourse)

		// Protected routes.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Get("/auth/profile", cfg.UserHandler.GetUserProfile)
			r.Put("/auth/profile", cfg.UserHandler.UpdateUserProfile)

			r.Post("/courses/{courseID}/enroll", cfg.CourseHandler.Enroll)
		})
	})

	return r
}
