package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/payadvice/internal/http/auth"
	"github.com/MrJamesThe3rd/payadvice/internal/http/invoice"
	"github.com/MrJamesThe3rd/payadvice/internal/http/recipient"
	"github.com/MrJamesThe3rd/payadvice/internal/http/respond"
)

type Options struct {
	AllowedOrigins []string
	Authenticator  *auth.Authenticator
}

func New(
	opts Options,
	invoicesV1 *invoice.Handler,
	recipientsV1 *recipient.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, "ok", nil)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(opts.Authenticator.Middleware)
		r.Use(auth.RequireRole(auth.RoleAdmin))

		r.Route("/invoice", invoicesV1.Routes)
		r.Route("/service", recipientsV1.Routes)
	})

	return router
}
