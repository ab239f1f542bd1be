package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/review-service/internal/auth"
	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/service"
	apperrors "github.com/utafrali/review-service/pkg/errors"
	"github.com/utafrali/review-service/pkg/httputil"
)

// Status strings reported by mutating review endpoints.
const (
	statusCreated            = "created"
	statusEdited             = "edited"
	statusDeletedByUser      = "deleted_by_user"
	statusDeletedByModerator = "deleted_by_moderator"
	statusReported           = "marked_as_violation"
	statusVoted              = "voted"
	statusRatingUpdated      = "updated"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	votes   *service.VoteService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, votes *service.VoteService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, votes: votes, logger: logger}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON body for POST /reviews.
type CreateReviewRequest struct {
	ProductID string `json:"product_id" validate:"required,notblank,max=255"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Text      string `json:"text" validate:"required,notblank"`
}

// EditReviewRequest is the JSON body for PUT /reviews/{id}. Omitted fields
// are left unchanged.
type EditReviewRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Text   *string `json:"text" validate:"omitempty,notblank"`
}

// ReportReviewRequest is the JSON body for POST /reviews/{id}/report.
type ReportReviewRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// VoteRequest is the JSON body for POST /reviews/{id}/vote. Value is 1
// (helpful) or -1 (unhelpful).
type VoteRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

// voteValue returns Value as an int. Null, strings and fractional numbers
// are InvalidArgument, like any other value outside 1 and -1.
func (req VoteRequest) voteValue() (int, error) {
	dec := json.NewDecoder(bytes.NewReader(req.Value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, apperrors.InvalidArgument("value must be an integer")
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, apperrors.InvalidArgument(fmt.Sprintf("value must be an integer, got %s", req.Value))
	}
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, apperrors.InvalidArgument(fmt.Sprintf("value must be 1 or -1, got %s", n))
		}
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, apperrors.InvalidArgument(fmt.Sprintf("value must be 1 or -1, got %s", n))
	}
	return int(f), nil
}

// --- Response DTOs ---

// ReviewMutationResponse is returned by create, edit, delete and report.
type ReviewMutationResponse struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Review *domain.Review `json:"review"`
}

// VoteResponse is returned by POST /reviews/{id}/vote.
type VoteResponse struct {
	Status   string `json:"status"`
	ReviewID string `json:"review_id"`
	Value    int    `json:"value"`
}

func mutationResponse(status string, review *domain.Review) httputil.Response {
	return httputil.Response{Data: ReviewMutationResponse{ID: review.ID, Status: status, Review: review}}
}

// --- Handlers ---

// CreateReview handles POST /reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), service.CreateReviewInput{
		ProductID: req.ProductID,
		AuthorID:  userID,
		Rating:    req.Rating,
		Text:      req.Text,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, mutationResponse(statusCreated, review))
}

// GetReview handles GET /reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "review", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.reviews.GetReview(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// EditReview handles PUT /reviews/{id}
func (h *ReviewHandler) EditReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, r, "review", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req EditReviewRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	review, err := h.reviews.EditReview(r.Context(), id.String(), userID, service.EditReviewInput{
		Rating: req.Rating,
		Text:   req.Text,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, mutationResponse(statusEdited, review))
}

// DeleteReview handles DELETE /reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, r, "review", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.reviews.DeleteReviewByAuthor(r.Context(), id.String(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, mutationResponse(statusDeletedByUser, review))
}

// ModeratorDeleteReview handles DELETE /admin/reviews/{id}
func (h *ReviewHandler) ModeratorDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "review", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.reviews.DeleteReviewByModerator(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, mutationResponse(statusDeletedByModerator, review))
}

// ReportReview handles POST /reviews/{id}/report
func (h *ReviewHandler) ReportReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, r, "review", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ReportReviewRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	review, err := h.reviews.ReportReview(r.Context(), id.String(), userID, req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, mutationResponse(statusReported, review))
}

// VoteReview handles POST /reviews/{id}/vote
func (h *ReviewHandler) VoteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, r, "review", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req VoteRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	value, err := req.voteValue()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	vote, err := h.votes.Vote(r.Context(), id.String(), userID, value)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: VoteResponse{
		Status:   statusVoted,
		ReviewID: vote.ReviewID,
		Value:    int(vote.Value),
	}})
}

// caller returns the id stored by auth.Gate.User. Routes mounted without the
// gate get a 401 rather than an anonymous write.
func (h *ReviewHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthenticated(auth.UserIDHeader+" header is required"), h.logger)
		return "", false
	}
	return userID, true
}
