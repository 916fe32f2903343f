package httpserver

import (
	"net/http"
	"time"

	"cepas/internal/config"
	"cepas/internal/domain/access"
	"cepas/internal/transport/httpserver/handler"
	"cepas/internal/transport/httpserver/middleware"
	"cepas/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	Handlers      *handler.Handlers
	Authenticator middleware.Authenticator
	Policy        *access.Policy
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry
}

func NewRouter(cfg config.Config, deps Dependencies, log logger.Logger) http.Handler {
	h := deps.Handlers
	bearer := middleware.NewBearerAuth(deps.Authenticator, log)
	allow := func(resource access.Resource, action access.Action) func(http.Handler) http.Handler {
		return middleware.RequireAccess(deps.Policy, resource, action, log)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.NewCORS(cfg.AllowedOrigins))
	if deps.Registry != nil {
		r.Use(middleware.NewMetrics(deps.Registry).Middleware)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		limiter := middleware.NewRateLimiter(cfg.Auth.LoginRateRPS, cfg.Auth.LoginRateBurst)
		r.With(limiter.Middleware).Post("/login", h.Auth.Login)
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(bearer.Middleware)
			r.Get("/me", h.Auth.Me)
			r.Post("/change-password", h.Auth.ChangePassword)
			r.With(allow(access.ResourceUsers, access.ActionCreate)).Post("/register", h.Auth.Register)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.Common.Ping)
		r.Get("/health", h.Common.Health)

		r.Get("/dados/{table}", h.Records.Fetch)
		r.Get("/familia/{id}", h.Families.GetFamily)
		r.Get("/familias", h.Families.ListFamilies)

		r.Group(func(r chi.Router) {
			r.Use(bearer.Middleware)

			r.With(allow(access.ResourceRecords, access.ActionCreate)).Post("/dados/{table}", h.Records.Insert)
			r.With(allow(access.ResourceRecords, access.ActionUpdate)).Put("/dados/{table}/{id}", h.Records.Update)
			r.With(allow(access.ResourceRecords, access.ActionDelete)).Delete("/dados/{table}/{id}", h.Records.Delete)

			r.With(allow(access.ResourceFamilies, access.ActionCreate)).Post("/familia-completa", h.Families.CreateFamily)
			r.With(allow(access.ResourceFamilies, access.ActionUpdate)).Put("/familia/{id}", h.Families.UpdateFamily)
			r.With(allow(access.ResourceFamilies, access.ActionDelete)).Delete("/familia/{id}", h.Families.DeleteFamily)

			r.With(allow(access.ResourceInterviews, access.ActionRead)).Get("/entrevistas/resumo", h.Interviews.Summary)
			r.With(allow(access.ResourceInterviews, access.ActionRead)).Get("/entrevistas/calendario", h.Interviews.Calendar)
			r.With(allow(access.ResourceInterviews, access.ActionUpdate)).Patch("/entrevistas/{id}/concluir-agendamento", h.Interviews.CompleteNextVisit)
			r.With(allow(access.ResourceInterviews, access.ActionRead)).Get("/familias/{id}/entrevistas", h.Interviews.History)
			r.With(allow(access.ResourceInterviews, access.ActionCreate)).Post("/familias/{id}/entrevistas", h.Interviews.Register)
		})
	})

	return r
}
