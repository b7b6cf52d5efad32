package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gauntlet/internal/auth"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/httputil"
)

// GuestSessionHeader carries a guest's session id in both directions
const GuestSessionHeader = "X-Guest-Session"

// Identity resolves who is calling and stores it in the request context.
//
// A Bearer token must verify, otherwise the request is rejected with 401.
// Without a token the caller is a guest: a well-formed X-Guest-Session is
// reused, anything else gets a fresh id. Guests always receive their id
// back in the response header.
//
// verifier may be nil when authentication is not configured; Bearer
// tokens are then rejected.
func Identity(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Preflight requests carry no credentials
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if token, ok := bearerToken(r); ok {
				if verifier == nil {
					httputil.RespondError(w, http.StatusUnauthorized, "authentication is not configured")
					return
				}
				claims, err := verifier.VerifyToken(token)
				if err != nil {
					logger.Debug("rejected bearer token", "path", r.URL.Path, "error", err)
					httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				identity := models.Identity{ID: claims.GetUserID()}
				next.ServeHTTP(w, httputil.WithIdentity(r, identity))
				return
			}

			sessionID := r.Header.Get(GuestSessionHeader)
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = uuid.NewString()
				logger.Debug("issued guest session", "session", sessionID)
			}
			w.Header().Set(GuestSessionHeader, sessionID)

			identity := models.Identity{ID: sessionID, Guest: true}
			next.ServeHTTP(w, httputil.WithIdentity(r, identity))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
