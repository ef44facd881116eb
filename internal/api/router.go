/**
 * @description
 * This file sets up the HTTP router for the transactor service. It defines
 * the API endpoints, associates them with their corresponding handlers, and
 * applies the authentication and standard middleware stack.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for chi.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes creates and returns the router for the transactor service.
func Routes(h *ChargeHandlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require merchant authentication.
	r.Group(func(r chi.Router) {
		r.Use(MerchantAuthMiddleware(jwtSecret))

		r.Post("/v1/charges", h.CreateChargeHandler)
		r.Get("/v1/charges", h.ListChargesHandler)
		r.Get("/v1/charges/{chargeID}", h.GetChargeHandler)

		r.Post("/v1/accounts/tokenize", h.TokenizeAccountHandler)
		r.Get("/v1/accounts/{accountID}", h.GetAccountHandler)
	})

	return r
}
