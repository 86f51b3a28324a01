package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID assigns a correlation id to each request, honoring one supplied
// by an upstream proxy, and echoes it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), id)))
	})
}
