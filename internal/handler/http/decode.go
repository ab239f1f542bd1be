package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/review-service/pkg/errors"
	"github.com/utafrali/review-service/pkg/httputil"
	"github.com/utafrali/review-service/pkg/validator"
)

// decodeRequest decodes and validates the JSON body into dst. Malformed JSON
// is a 400 and failed validation a 422. It reports whether the handler should
// continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, err)
		return false
	}
	httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), logger)
	return false
}
