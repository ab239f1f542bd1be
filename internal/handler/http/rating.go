package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/service"
	"github.com/utafrali/review-service/pkg/httputil"
	"github.com/utafrali/review-service/pkg/pagination"
)

// ProductHandler serves the per-product endpoints: rating summary and the
// review listing.
type ProductHandler struct {
	reviews *service.ReviewService
	ratings *service.RatingService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(reviews *service.ReviewService, ratings *service.RatingService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{reviews: reviews, ratings: ratings, logger: logger}
}

// RecomputeResponse is returned by POST /products/{pid}/recalculate-rating.
type RecomputeResponse struct {
	Status string `json:"status"`
	*domain.RatingSummary
}

// RecalculateRating handles POST /products/{pid}/recalculate-rating
func (h *ProductHandler) RecalculateRating(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ratings.Recompute(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: RecomputeResponse{
		Status:        statusRatingUpdated,
		RatingSummary: summary,
	}})
}

// GetRating handles GET /products/{pid}/rating
func (h *ProductHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ratings.GetRating(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// ListReviews handles GET /products/{pid}/reviews
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	reviews, total, err := h.reviews.ListProductReviews(r.Context(), chi.URLParam(r, "pid"), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(reviews, total, page.Page, page.PerPage))
}
