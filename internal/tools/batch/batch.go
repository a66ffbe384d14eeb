package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/calsync/internal/domain"
)

// Outcome values of a Result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MaxItems bounds the ids accepted by one call.
const MaxItems = domain.MaxPageSize

// DefaultConcurrency is the number of ids processed at once.
const DefaultConcurrency = 4

// Result is the outcome for one id.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray accepts a single string or an array of strings.
// Duplicates are dropped, keeping the first occurrence.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var raw []string
	switch v := param.(type) {
	case string:
		raw = []string{v}
	case []string:
		raw = v
	case []any:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}

	seen := make(map[string]struct{}, len(raw))
	ids := make([]string, 0, len(raw))
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			if len(raw) == 1 {
				return nil, fmt.Errorf("%s cannot be empty", paramName)
			}
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		ids = append(ids, s)
	}
	if len(ids) > MaxItems {
		return nil, fmt.Errorf("%s accepts at most %d ids, got %d", paramName, MaxItems, len(ids))
	}
	return ids, nil
}

// Process calls fn for every id with at most DefaultConcurrency calls in
// flight. Results keep the order of ids. A cancelled context marks the
// remaining ids as failed.
func Process(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (any, error)) []Result {
	results := make([]Result, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = NewErrorResult(id, err)
				return nil
			}
			v, err := fn(gctx, id)
			if err != nil {
				results[i] = NewErrorResult(id, err)
				return nil
			}
			results[i] = NewSuccessResult(id, v)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Summarize counts the outcomes of results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// FormatResults renders results as indented JSON.
func FormatResults(results []Result) string {
	b, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(b)
}

// NewSuccessResult creates a success result.
func NewSuccessResult(id string, v any) Result {
	return Result{ID: id, Status: StatusSuccess, Result: v}
}

// NewErrorResult creates an error result carrying the error code of err.
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Code:   domain.KindOf(err).String(),
		Error:  domain.Message(err),
	}
}
