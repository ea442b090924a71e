package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const ownerKey contextKey = "owner"

// Identity extracts the authenticated user id from the X-User-ID header
// set by the identity provider in front of this service. An absent
// header is not rejected here; handlers decide whether the operation
// needs an owner.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if owner := r.Header.Get("X-User-ID"); owner != "" {
			r = r.WithContext(context.WithValue(r.Context(), ownerKey, owner))
		}
		next.ServeHTTP(w, r)
	})
}

// Owner returns the authenticated user id, or "" when there is none
func Owner(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}
