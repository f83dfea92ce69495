package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ashishjoshi2605/colaberry-coding-assesment/pkg/logging"
)

// RequestIDMiddleware assigns each request a UUID, threads it through the
// context for the logger, and echoes it back in the X-Request-ID header.
// An ID supplied by the caller is reused.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
