package gateway

import (
	"net/http"
	"time"

	"github.com/flemzord/tgapi/internal/security"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(g.observe)

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", g.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimitMiddleware(g.limiter, security.BucketRequest, g.audit))
		if g.config.BearerToken != "" {
			r.Use(authMiddleware(g.config.BearerToken, g.limiter, g.audit, g.logger))
		}
		r.Get("/methods", g.handleMethods())
		r.Post("/render", g.handleRender(false))
		r.Post("/validate", g.handleRender(true))
	})

	return r
}

// observe records request latency by route pattern and logs each request.
func (g *Gateway) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		g.metrics.ObserveRequest(route, ww.Status(), elapsed)
		g.logger.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
