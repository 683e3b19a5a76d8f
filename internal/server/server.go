//-------------------------------------------------------------------------
//
// Retail BI Backend
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package server exposes the reporting store over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dwhouse/retail-bi/internal/logging"
	"github.com/dwhouse/retail-bi/internal/reporting"
)

// Store is what the handlers need from the reporting layer.
type Store interface {
	Dashboard(ctx context.Context) (*reporting.Dashboard, error)
	Products(ctx context.Context, search string, page int) (*reporting.ProductPage, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
	SaveTransaction(ctx context.Context, t reporting.Transaction) error
}

// NewRouter builds the API router.
func NewRouter(store Store) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger)

	h := &handler{store: store}

	r.Get("/api/health", h.health)
	r.Route("/api/retail", func(r chi.Router) {
		r.Get("/dashboard", h.dashboard)
		r.Get("/products", h.products)
		r.Post("/transaction", h.transaction)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request handled")
	})
}
