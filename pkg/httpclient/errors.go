package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/review-service/pkg/errors"
)

// downstreamError is the error half of the {"data","error"} envelope used by
// the platform's services.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// returns an AppError carrying the downstream's status semantics. Bodies that
// are not in the envelope format still map by status code.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	code, message := "", string(body)
	var env downstreamError
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		code, message = env.Error.Code, env.Error.Message
	}
	return mapStatus(resp.StatusCode, code, message, service)
}

func mapStatus(status int, code, message, service string) error {
	qualified := fmt.Sprintf("%s: %s", service, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(service, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusUnprocessableEntity:
		return apperrors.InvalidArgument(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthenticated(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	case status >= 500:
		return fmt.Errorf("%s server error (%d %s): %s", service, status, code, message)
	default:
		if code == "" {
			code = http.StatusText(status)
		}
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}
