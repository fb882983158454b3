package server

import (
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, opts Options) {
	logger, eng, hub := opts.Logger, opts.Engine, opts.Hub

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Spyster API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, eng))
	r.Get("/ws", handleWS(logger, eng, hub))

	r.Route("/api/session", func(r chi.Router) {
		r.Post("/join", handleJoin(eng))
		r.Post("/resume", handleResume(eng))
	})

	// Operator surface, disabled without a configured passcode hash.
	if opts.OpsPasscodeHash != "" {
		sessions := newOpsSessions()
		r.Route("/api/ops", func(r chi.Router) {
			r.Post("/login", handleOpsLogin(opts.OpsPasscodeHash, sessions))
			r.Post("/logout", handleOpsLogout(sessions))
			r.Group(func(r chi.Router) {
				r.Use(opsAuthMiddleware(sessions))
				r.Get("/overview", handleOpsOverview(eng))
				r.Post("/reset", handleOpsReset(eng))
			})
		})
	}

	if opts.SPADir != "" {
		if info, err := os.Stat(opts.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", opts.SPADir)
			r.NotFound(handleSPA(opts.SPADir))
		}
	}
}
