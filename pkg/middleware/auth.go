package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/logger"
)

// PublicRoute exempts a method and path prefix from authentication.
type PublicRoute struct {
	Method string
	Prefix string
}

// DefaultPublicRoutes leaves probes and metrics open.
var DefaultPublicRoutes = []PublicRoute{
	{Method: http.MethodGet, Prefix: "/health"},
	{Method: http.MethodGet, Prefix: "/metrics"},
}

func isPublicRoute(routes []PublicRoute, method, path string) bool {
	if method == http.MethodOptions {
		return true
	}
	for _, route := range routes {
		if method == route.Method && strings.HasPrefix(path, route.Prefix) {
			return true
		}
	}
	return false
}

// JWTAuth validates HMAC-signed bearer tokens and records the token subject
// in the context (logger.SubjectFromContext). An empty secret disables the
// check.
func JWTAuth(secret string, public []PublicRoute, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(public, r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				l.WarnContext(r.Context(), "invalid JWT token",
					slog.String("path", r.URL.Path),
					slog.String("error", errString(err)),
				)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			ctx := r.Context()
			if sub, _ := claims.GetSubject(); sub != "" {
				ctx = logger.WithSubject(ctx, sub)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func errString(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
