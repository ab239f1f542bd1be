package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	apperrors "github.com/utafrali/review-service/pkg/errors"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params is a page request. Page is 1-based.
type Params struct {
	Page    int
	PerPage int
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FromRequest reads page and per_page from the query string. Absent values
// take the defaults; malformed or out-of-range values are an InvalidInput
// error rather than being silently replaced.
func FromRequest(r *http.Request) (Params, error) {
	q := r.URL.Query()
	p := Params{Page: 1, PerPage: DefaultPerPage}

	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return Params{}, apperrors.InvalidInput(fmt.Sprintf("page must be a positive integer, got %q", raw))
		}
		p.Page = v
	}

	if raw := q.Get("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxPerPage {
			return Params{}, apperrors.InvalidInput(fmt.Sprintf("per_page must be between 1 and %d, got %q", MaxPerPage, raw))
		}
		p.PerPage = v
	}

	return p, nil
}
