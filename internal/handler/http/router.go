package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/review-service/internal/auth"
	"github.com/utafrali/review-service/internal/service"
	"github.com/utafrali/review-service/pkg/health"
	"github.com/utafrali/review-service/pkg/middleware"
)

const serviceName = "review"

// Services groups the application services the router dispatches to.
type Services struct {
	Reviews *service.ReviewService
	Votes   *service.VoteService
	Ratings *service.RatingService
}

// NewRouter creates a chi router with all review service routes registered.
// limiter may be nil to disable rate limiting of mutating routes.
func NewRouter(
	svc Services,
	gate *auth.Gate,
	limiter *middleware.RateLimiter,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	limit := func(next http.Handler) http.Handler { return next }
	if limiter != nil {
		limit = limiter.Handler
	}

	reviewHandler := NewReviewHandler(svc.Reviews, svc.Votes, logger)
	productHandler := NewProductHandler(svc.Reviews, svc.Ratings, logger)

	r.Route("/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/{id}", reviewHandler.GetReview)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Use(gate.User)

			r.Post("/", reviewHandler.CreateReview)
			r.Put("/{id}", reviewHandler.EditReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
			r.Post("/{id}/report", reviewHandler.ReportReview)
			r.Post("/{id}/vote", reviewHandler.VoteReview)
		})
	})

	r.Route("/admin/reviews", func(r chi.Router) {
		r.Use(limit)
		r.Use(gate.Moderator)

		r.Delete("/{id}", reviewHandler.ModeratorDeleteReview)
	})

	r.Route("/products/{pid}", func(r chi.Router) {
		r.Get("/rating", productHandler.GetRating)
		r.Get("/reviews", productHandler.ListReviews)
		r.With(limit).Post("/recalculate-rating", productHandler.RecalculateRating)
	})

	return r
}
