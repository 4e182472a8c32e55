package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/mrk-crm/internal/infra/http/middleware"
)

// Router groups everything NewRouter needs to mount the API.
type Router struct {
	Auth             *AuthHandler
	Users            *UserHandler
	Leads            *LeadHandler
	Activities       *ActivityHandler
	Offers           *OfferHandler
	CampaignMappings *CampaignMappingHandler
	Webhooks         *WebhookHandler
	Reference        *ReferenceHandler
	Health           *HealthHandler

	Authenticator  middleware.Authenticator
	WebhookLimiter *middleware.RateLimiter
	CORSOrigins    []string
	Logger         *slog.Logger
}

func NewRouter(rt Router) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", rt.Health.Handle)

	r.Route("/webhooks", func(r chi.Router) {
		if rt.WebhookLimiter != nil {
			r.Use(rt.WebhookLimiter.Limit)
		}
		r.Post("/meta", rt.Webhooks.Meta)
		r.Post("/whatsapp", rt.Webhooks.WhatsApp)
	})

	r.Post("/auth/login", rt.Auth.Login)
	r.Post("/auth/refresh", rt.Auth.Refresh)
	r.Post("/auth/logout", rt.Auth.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(rt.Authenticator, rt.Logger))

		r.Get("/auth/me", rt.Auth.Me)

		r.Get("/project-types", rt.Reference.ListProjectTypes)
		r.Get("/pipeline/transitions", rt.Reference.Transitions)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", rt.Users.List)
			r.Post("/", rt.Users.Create)
			r.Patch("/{id}", rt.Users.Update)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", rt.Leads.List)
			r.Post("/", rt.Leads.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rt.Leads.Get)
				r.Patch("/", rt.Leads.Update)
				r.Post("/transition", rt.Leads.TransitionStatus)
				r.Get("/history", rt.Leads.History)
				r.Post("/assign-closer", rt.Leads.Assign)
				r.Get("/activities", rt.Activities.List)
				r.Post("/activities", rt.Activities.Create)
				r.Get("/offers", rt.Offers.List)
				r.Post("/offers", rt.Offers.Create)
			})
		})

		r.Patch("/offers/{id}", rt.Offers.Update)

		r.Route("/campaign-mappings", func(r chi.Router) {
			r.Get("/", rt.CampaignMappings.List)
			r.Post("/", rt.CampaignMappings.Create)
			r.Patch("/{id}", rt.CampaignMappings.Update)
			r.Delete("/{id}", rt.CampaignMappings.Delete)
		})
	})

	return r
}
