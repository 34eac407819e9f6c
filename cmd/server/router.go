package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/account-api/internal/api"
	apiMiddleware "github.com/phrazzld/account-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	transactionHandler := api.NewTransactionHandler(app.transactionService, app.logger)
	accountHandler := api.NewAccountHandler(app.accountService, app.logger)
	api.RegisterRoutes(r, transactionHandler, accountHandler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
