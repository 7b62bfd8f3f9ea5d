package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"aircnc/internal/adapters/observability"
	"aircnc/internal/domain"
)

type claimKey struct{}

// ClaimFromContext returns the identity stored by RequireBearer.
func ClaimFromContext(ctx context.Context) (domain.Claim, bool) {
	c, ok := ctx.Value(claimKey{}).(domain.Claim)
	return c, ok
}

func withClaim(ctx context.Context, c domain.Claim) context.Context {
	return context.WithValue(ctx, claimKey{}, c)
}

// HostChecker reports whether an email belongs to a user with the host role.
type HostChecker interface {
	IsHost(ctx context.Context, email string) (bool, error)
}

// Gate holds the collaborators the auth middlewares need.
type Gate struct {
	Tokens domain.TokenService
	Users  HostChecker
}

func writeUnauthorized(w http.ResponseWriter, reason string) {
	observability.ObserveAuthDenial(reason)
	writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized Access"})
}

func writeForbidden(w http.ResponseWriter, reason string) {
	observability.ObserveAuthDenial(reason)
	writeJSON(w, http.StatusForbidden, map[string]any{"error": true, "message": "Forbidden Access"})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// RequireBearer rejects requests without a valid token and stores the claim otherwise.
func (g *Gate) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, "missing_token")
			return
		}
		c, err := g.Tokens.Verify(tok)
		if err != nil {
			log.Debug().Err(err).Str("route", r.URL.Path).Msg("token rejected")
			writeUnauthorized(w, "invalid_token")
			return
		}
		noteCaller(r.Context(), c.Email)
		next.ServeHTTP(w, r.WithContext(withClaim(r.Context(), c)))
	})
}

// RequireHost must run after RequireBearer.
func (g *Gate) RequireHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClaimFromContext(r.Context())
		if !ok {
			writeUnauthorized(w, "missing_token")
			return
		}
		isHost, err := g.Users.IsHost(r.Context(), c.Email)
		if err != nil {
			writeError(w, err)
			return
		}
		if !isHost {
			writeForbidden(w, "not_host")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSelf forbids access when the {param} path value is not the caller's email.
func RequireSelf(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "missing_token")
				return
			}
			if !strings.EqualFold(chi.URLParam(r, param), c.Email) {
				writeForbidden(w, "not_self")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OwnerChecker reports whether email owns the resource id.
type OwnerChecker func(ctx context.Context, id, email string) (bool, error)

// RequireOwner forbids access unless the caller owns the {param} resource.
func RequireOwner(param string, owns OwnerChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "missing_token")
				return
			}
			ok, err := owns(r.Context(), chi.URLParam(r, param), c.Email)
			if err != nil {
				writeError(w, err)
				return
			}
			if !ok {
				writeForbidden(w, "not_owner")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}
