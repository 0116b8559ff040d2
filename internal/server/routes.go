package server

import (
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/bighelpmob/missionhub/internal/adminnav"
	"github.com/bighelpmob/missionhub/internal/email"
	"github.com/bighelpmob/missionhub/internal/missions"
)

func addRoutes(r chi.Router, opts Options) {
	logger, store := opts.Logger, opts.Store
	broker := NewBroker()
	lc := missions.NewLifecycle(store, newNotifier(store, broker, logger), opts.Roles, opts.Translator, logger)
	composer := email.NewComposer(store, opts.Delivery, lc.Roles(), opts.Translator, logger)
	nav := adminnav.New(opts.Translator)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("MissionHub API", "/openapi.json", "/docs"))
	if opts.Health != nil {
		r.Mount("/healthz", opts.Health)
	}

	// Public routes; an admin cookie widens what is visible.
	r.Group(func(r chi.Router) {
		r.Use(viewerMiddleware(store))
		r.Get("/api/missions", handleListMissions(logger, store))
		r.Get("/api/missions/{id}", handleGetMission(logger, store, lc.Roles()))
		r.Get("/api/participations", handleListParticipations(logger, store, lc))
	})

	r.Post("/api/admin/login", handleAdminLogin(logger, store))
	r.Post("/api/admin/logout", handleAdminLogout(logger, store))
	r.Get("/api/admin/me", handleAdminMe(store))

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminAuthMiddleware(store))

		r.Route("/participations", func(r chi.Router) {
			r.Get("/", handleListParticipations(logger, store, lc))
			r.Post("/", handleCreateParticipation(logger, store, lc))
			r.Get("/{id}", handleGetParticipation(logger, store, lc))
			r.Patch("/{id}", handleUpdateParticipation(logger, store, lc))
			r.Put("/{id}/role", handleChangeRole(logger, store, lc))
			r.Get("/{id}/events", handleEventOptions(logger, store, lc))
			r.Post("/{id}/events", handleFireEvent(logger, store, lc))
		})

		r.Get("/emails/scope-types", handleEmailScopeTypes())
		r.Post("/emails/preview", handlePreviewEmail(logger, composer))
		r.Post("/emails", handleSendEmail(logger, composer))

		r.Get("/sidebar", handleSidebar(nav))
		r.Get("/notifications", handleListNotifications(logger, store))
		r.Get("/events", handleEvents(broker))
	})

	if opts.SPADir != "" {
		if info, err := os.Stat(opts.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", opts.SPADir)
			r.NotFound(handleSPA(opts.SPADir))
		}
	}
}
