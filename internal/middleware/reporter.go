package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ContextKey string

const ReporterIDKey ContextKey = "reporterID"

// ReporterHeader carries the opaque identity of whoever submits a score.
const ReporterHeader = "X-Reporter-ID"

// LoadReporter puts the reporter id from the request header into the context.
// Requests without one are left alone.
func LoadReporter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reporterID := strings.TrimSpace(r.Header.Get(ReporterHeader))
		if reporterID == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), ReporterIDKey, reporterID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetReporterIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(ReporterIDKey)
	if val == nil {
		return "", false
	}

	id, ok := val.(string)
	return id, ok
}
