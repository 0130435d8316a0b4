package middleware

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/NASA-AMMOS/aerie-gateway/pkg/hasura"
	"github.com/NASA-AMMOS/aerie-gateway/pkg/httpapi"
)

const hasuraClaimsKey = "https://hasura.io/jwt/claims"

// HasuraClaims is the Hasura namespace of an Aerie JWT.
type HasuraClaims struct {
	AllowedRoles []string `json:"x-hasura-allowed-roles"`
	DefaultRole  string   `json:"x-hasura-default-role"`
	UserID       string   `json:"x-hasura-user-id"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Hasura HasuraClaims `json:"https://hasura.io/jwt/claims"`
}

// JWTKey extracts the signing key from HASURA_GRAPHQL_JWT_SECRET, which is
// either a bare key or Hasura's {"type":"HS256","key":"..."} object.
func JWTKey(secret string) []byte {
	var obj struct {
		Type string `json:"type"`
		Key  string `json:"key"`
	}
	if err := json.Unmarshal([]byte(secret), &obj); err == nil && obj.Key != "" {
		return []byte(obj.Key)
	}
	return []byte(secret)
}

// ForwardIdentity stores the caller's Authorization and Hasura headers in
// the request context so that upstream calls can forward them.
func ForwardIdentity() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := hasura.WithIdentity(r.Context(), hasura.IdentityFromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without a valid session. With authType
// "none" every request passes. With "jwt" the bearer token must be a valid
// HS256 token and a declared x-hasura-role must be one of its allowed roles.
func RequireSession(authType string, key []byte) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if authType != "jwt" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}
			claims := &sessionClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}
			if role := r.Header.Get(hasura.HeaderRole); role != "" && !slices.Contains(claims.Hasura.AllowedRoles, role) {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "ROLE_NOT_ALLOWED", "Declared role is not in allowed roles.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}
