package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sortlab/sortlab-api/internal/api"
	apimiddleware "github.com/sortlab/sortlab-api/internal/api/middleware"
)

// setupRouter builds the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userService,
		app.jwtService,
		app.passwordVerifier,
		&app.config.Auth,
		app.logger,
	)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	studyHandler := api.NewStudyHandler(app.studyService, app.logger)
	resultHandler := api.NewResultHandler(app.studyService, app.logger)
	analysisHandler := api.NewAnalysisHandler(app.analysisService, app.logger)
	insightHandler := api.NewInsightHandler(app.insightService, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/studies", studyHandler.CreateStudy)
			r.Get("/studies", studyHandler.ListStudies)
			r.Get("/studies/{id}", studyHandler.GetStudy)
			r.Put("/studies/{id}", studyHandler.UpdateStudy)
			r.Put("/studies/{id}/status", studyHandler.UpdateStudyStatus)
			r.Delete("/studies/{id}", studyHandler.DeleteStudy)

			r.Post("/studies/{id}/results", resultHandler.SubmitResult)
			r.Get("/studies/{id}/results", resultHandler.ListResults)

			r.Get("/studies/{id}/analysis", analysisHandler.GetReport)
			r.Get("/studies/{id}/analysis/similarity", analysisHandler.GetSimilarity)
			r.Get("/studies/{id}/analysis/dendrogram", analysisHandler.GetDendrogram)
			r.Get("/studies/{id}/analysis/frequency", analysisHandler.GetFrequency)
			r.Get("/studies/{id}/analysis/agreement", analysisHandler.GetAgreement)
			r.Get("/studies/{id}/analysis/statistics", analysisHandler.GetStatistics)
			r.Get("/studies/{id}/analysis/quality", analysisHandler.GetQuality)

			r.Get("/studies/{id}/insight", insightHandler.GetInsight)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
