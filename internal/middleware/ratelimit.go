package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits requests per authenticated user, falling back to
// the remote address when unauthenticated.
func RateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return limitBy("api", requestLimit, windowLength)
}

// SendRateLimit is a tighter limit for the billed streaming endpoint.
// Each send holds a model stream open, so the ceiling is much lower
// than for plain CRUD traffic.
func SendRateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return limitBy("send", requestLimit, windowLength)
}

func limitBy(bucket string, requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(windowLength.Seconds()))
	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID := GetUserID(r.Context()); userID != "" {
				return bucket + ":user:" + userID, nil
			}
			return bucket + ":ip:" + r.RemoteAddr, nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded","retry_after":` + retryAfter + `}`))
		}),
	)
}
