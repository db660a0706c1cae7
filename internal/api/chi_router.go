// Folio - Digital Library Backend and Recommendation Engine
// Copyright 2026 M. Verner (mverner)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mverner/folio

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mverner/folio/internal/auth"
	"github.com/mverner/folio/internal/middleware"
	"github.com/mverner/folio/internal/models"
)

// Router wires handlers, authentication, and the Chi middleware stack
// into an http.Handler.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router around the given handler set.
func NewRouter(handler *Handler, authMW *auth.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		middleware:    authMW,
		chiMiddleware: chiMW,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can be used with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// chiPathValue injects Chi URL params into the request so handlers
// using r.PathValue() work under Chi routing.
func chiPathValue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		if rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if i < len(rctx.URLParams.Values) {
					r.SetPathValue(key, rctx.URLParams.Values[i])
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS is
	// global so OPTIONS preflight requests are answered everywhere.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health endpoints. Permissive rate limit so monitoring probes
	// never trip it; no authentication.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Prometheus metrics endpoint.
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Data endpoints. Catalog browsing and discovery are public;
	// personalized recommendations and AI summaries need a caller
	// identity.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiPathValue)
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Group(func(r chi.Router) {
			r.Get("/recommendations/similar/{bookId}", router.handler.SimilarBooks)
			r.Get("/recommendations/trending", router.handler.Trending)
			r.Get("/recommendations/new-releases", router.handler.NewReleases)

			r.Get("/books", router.handler.Books)
			r.Get("/books/{bookId}", router.handler.Book)
		})

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(router.middleware.Authenticate))

			r.Get("/recommendations", router.handler.Recommendations)

			// Summaries ride a strict limit of their own: every miss
			// is a paid upstream call.
			r.With(router.chiMiddleware.RateLimitCustom(RateLimitAI)).
				Get("/books/{bookId}/summary", router.handler.BookSummary)

			// Reading activity writes. These feed the recommendation
			// signal stores.
			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))

				r.Put("/books/{bookId}/progress", router.handler.UpdateProgress)
				r.Post("/books/{bookId}/reviews", router.handler.CreateReview)
				r.Post("/books/{bookId}/wishlist", router.handler.AddWishlist)
				r.Delete("/books/{bookId}/wishlist", router.handler.RemoveWishlist)

				r.Post("/books", router.middleware.RequireRole(models.RoleAdmin, router.handler.CreateBook))
			})
		})
	})

	return r
}
