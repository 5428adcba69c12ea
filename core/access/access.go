/*Package access provides bearer-token extraction for request authorization.

The service never validates tokens itself. It extracts the bearer token from
the Authorization header and hands it to the Supabase client; GoTrue validates
it and PostgREST row-level security decides what the token may see.
*/
package access

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"

	"github.com/sisgemec/sisgemec/core/logger"
)

// Token extraction errors, all answered with http.StatusUnauthorized.
var (
	ErrMissingHeader   = errors.New("missing Authorization header")
	ErrMalformedHeader = errors.New("invalid Authorization format, expected 'Bearer <token>'")
	ErrEmptyToken      = errors.New("empty bearer token")
)

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

const contextKeyToken contextKey = "_bearer_token_"

// ParseBearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively; the token is trimmed. Pure parsing,
// no validation beyond shape.
func ParseBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedHeader
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// ContextWithToken returns a new context with the bearer token added to it.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken, token)
}

// TokenFromContext retrieves the bearer token from the context. It returns
// the empty string when the request did not pass the RequireBearer middleware.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(contextKeyToken).(string)
	return token
}

// RequireBearer returns a middleware that extracts the bearer token from the
// Authorization header and stores it in the request context. Requests without
// a well-formed token are answered with 401 and never reach the handler.
//
// When the token happens to be a JWT, its subject and email claims are peeked
// at - without signature verification - to label the request logger with the
// caller's identity. Opaque tokens simply produce unlabelled log entries.
func RequireBearer() mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ParseBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				body, _ := json.Marshal(map[string]string{"detail": err.Error()})
				w.Write(body)
				return
			}
			ctx := ContextWithToken(r.Context(), token)
			if identity := peekIdentity(token); identity != "" {
				ctx, _ = logger.ContextWithLoggerIdentity(ctx, identity)
			}
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// peekIdentity decodes the token claims without verifying the signature.
// Verification is GoTrue's job; this is for log labelling only.
func peekIdentity(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		return email
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}
