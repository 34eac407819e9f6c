package api

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the API endpoints on r.
func RegisterRoutes(r chi.Router, transactions *TransactionHandler, accounts *AccountHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/use", transactions.UseBalance)
			r.Post("/cancel", transactions.CancelBalance)
			r.Get("/{id}", transactions.GetTransaction)
		})

		r.Post("/users", accounts.RegisterUser)
		r.Get("/users/{id}/accounts", accounts.ListAccounts)

		r.Post("/accounts", accounts.CreateAccount)
		r.Delete("/accounts", accounts.DeleteAccount)
	})
}
