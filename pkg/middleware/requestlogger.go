package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context carrying
// correlation_id, subject, business_id and trace fields. Mount it after
// RequestLogging, Tracing and JWTAuth; handlers read it with
// logger.FromContext.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if id := r.URL.Query().Get("business_id"); id != "" {
				ctx = logger.WithBusinessID(ctx, id)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
