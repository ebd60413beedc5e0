package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/api"
	apiMiddleware "github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/api/middleware"
)

// setupRouter configures all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	imageHandler := api.NewImageHandler(app.queueStore, app.packer, app.randomizer, app.logger)
	batchHandler := api.NewBatchHandler(app.scheduler, app.prefs, app.logger)
	editHandler := api.NewEditHandler(app.sessions, app.tagger, app.queueStore, app.logger)
	promptHandler := api.NewPromptHandler(app.gemini, app.prefs, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Queue management
		r.Post("/images", imageHandler.Enqueue)
		r.Get("/images", imageHandler.List)
		r.Delete("/images", imageHandler.Clear)
		r.Get("/images/archive", imageHandler.Archive)
		r.Post("/images/retry-failed", imageHandler.RetryFailed)
		r.Post("/images/promote-all", imageHandler.PromoteAll)
		r.Post("/images/randomize", imageHandler.Randomize)
		r.Post("/images/tag", editHandler.Tag)
		r.Delete("/images/{id}", imageHandler.Delete)
		r.Post("/images/{id}/promote", imageHandler.Promote)
		r.Post("/images/{id}/randomize", imageHandler.RandomizeOne)
		r.Post("/images/{id}/edit", editHandler.Edit)

		// Batch lifecycle
		r.Post("/batch/start", batchHandler.Start)
		r.Post("/batch/cancel", batchHandler.Cancel)
		r.Get("/batch/status", batchHandler.Status)

		// Prompt tooling
		r.Post("/prompts/enhance", promptHandler.Enhance)
		r.Get("/prompts/suggestions", promptHandler.Suggestions)
		r.Get("/prompts/history", promptHandler.History)
		r.Post("/prompts/history", promptHandler.AddToHistory)
		r.Delete("/prompts/history", promptHandler.DeleteFromHistory)
		r.Get("/prompts/pins", promptHandler.Pins)
		r.Post("/prompts/pins", promptHandler.Pin)
		r.Delete("/prompts/pins", promptHandler.Unpin)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
