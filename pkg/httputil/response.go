package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/review-service/pkg/errors"
	"github.com/utafrali/review-service/pkg/logger"
	"github.com/utafrali/review-service/pkg/validator"
)

// Response is the JSON envelope for every endpoint.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// sentinelCodes maps bare sentinels (not wrapped in an AppError) to their
// public code and message.
var sentinelCodes = []struct {
	err     error
	code    string
	message string
}{
	{apperrors.ErrNotFound, "NOT_FOUND", "resource not found"},
	{apperrors.ErrConflict, "CONFLICT", "conflicting update"},
	{apperrors.ErrInvalidInput, "INVALID_INPUT", ""},
	{apperrors.ErrInvalidArgument, "INVALID_ARGUMENT", ""},
	{apperrors.ErrUnauthenticated, "UNAUTHENTICATED", "authentication required"},
	{apperrors.ErrForbidden, "FORBIDDEN", "forbidden"},
	{apperrors.ErrServiceUnavail, "SERVICE_UNAVAILABLE", "service unavailable"},
}

// WriteError renders err into the error envelope. AppErrors keep their own
// code and status; bare sentinels are mapped; anything else is a logged 500.
// The request-scoped logger from RequestLogger is preferred over fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logServerError(r, l, err)
		}
		WriteJSON(w, appErr.Status, Response{
			Error: &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			code = s.code
			message = s.message
			if message == "" {
				message = err.Error()
			}
			break
		}
	}

	if status >= http.StatusInternalServerError {
		logServerError(r, l, err)
	}

	WriteJSON(w, status, Response{
		Error: &ErrorResponse{Code: code, Message: message, RequestID: requestID},
	})
}

func logServerError(r *http.Request, l *slog.Logger, err error) {
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// PaginatedResponse is a generic paginated list response envelope.
type PaginatedResponse[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginatedResponse builds a PaginatedResponse and derives TotalPages and
// HasNext from the counts.
func NewPaginatedResponse[T any](data []T, totalCount, page, perPage int) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if perPage > 0 {
		totalPages = (totalCount + perPage - 1) / perPage
	}
	return PaginatedResponse[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// WriteValidationError writes a 422 with per-field messages when err comes
// from the validator package, or a plain INVALID_ARGUMENT otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusUnprocessableEntity, Response{
			Error: &ErrorResponse{
				Code:    "INVALID_ARGUMENT",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusUnprocessableEntity, Response{
		Error: &ErrorResponse{Code: "INVALID_ARGUMENT", Message: err.Error()},
	})
}

// ParseUUID parses param as a UUID. On failure it writes the same 404 an
// unknown id would produce and returns false.
func ParseUUID(w http.ResponseWriter, r *http.Request, resource, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		notFound := apperrors.NotFound(resource, param)
		WriteJSON(w, notFound.Status, Response{
			Error: &ErrorResponse{
				Code:      notFound.Code,
				Message:   notFound.Message,
				RequestID: logger.CorrelationIDFromContext(r.Context()),
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
