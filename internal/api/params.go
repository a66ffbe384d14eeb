package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/teemow/calsync/internal/domain"
)

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// pageFrom reads the page and size query parameters.
func pageFrom(r *http.Request, op string) (domain.Page, error) {
	q := r.URL.Query()
	var p domain.Page
	var err error
	if v := q.Get("page"); v != "" {
		if p.Number, err = cast.ToIntE(v); err != nil || p.Number < 0 {
			return p, domain.Validationf(op, "invalid page %q", v)
		}
	}
	if v := q.Get("size"); v != "" {
		if p.Size, err = cast.ToIntE(v); err != nil || p.Size < 0 {
			return p, domain.Validationf(op, "invalid size %q", v)
		}
	}
	return p.Normalize(), nil
}

// requiredQuery returns the trimmed value of name or a validation error.
func requiredQuery(r *http.Request, op, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", domain.Validationf(op, "query parameter %q is required", name)
	}
	return v, nil
}

func floatQuery(r *http.Request, op, name string, required bool) (float64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		if required {
			return 0, domain.Validationf(op, "query parameter %q is required", name)
		}
		return 0, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, domain.Validationf(op, "invalid %s %q", name, v)
	}
	return f, nil
}

// timeQuery parses an optional RFC 3339 timestamp.
func timeQuery(r *http.Request, op, name string) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, domain.Validationf(op, "invalid %s %q: expected RFC 3339", name, v)
	}
	return t, nil
}
