// Package middleware provides HTTP middlewares for caller identification,
// rate limiting and request logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey string

const ownerKey ctxKey = "owner"

// OwnerHeader carries the caller's user id. Authentication happens upstream;
// this service trusts the header.
const OwnerHeader = "X-User-ID"

// Owner resolves the caller from the X-User-ID header and stores the
// canonical uuid string in the request context.
//
// Registration (POST /api/users) and /metrics need no owner. Every other
// request without a well-formed uuid is rejected with 401.
func Owner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/users" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		raw := r.Header.Get(OwnerHeader)
		if raw == "" {
			reject(w, http.StatusUnauthorized, "missing "+OwnerHeader+" header")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			reject(w, http.StatusUnauthorized, "malformed "+OwnerHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey, id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerFromContext returns the owner stored by Owner, or "" if absent.
func OwnerFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ownerKey).(string); ok {
		return s
	}
	return ""
}

// WithOwner returns a copy of ctx carrying owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

func reject(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    false,
		"error":      msg,
		"statusCode": status,
	})
}
