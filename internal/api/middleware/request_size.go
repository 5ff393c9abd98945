package middleware

import (
	"net/http"

	"github.com/kampuskuevent/server/internal/api/problem"
)

// DefaultMaxBodySize is 1MB
const DefaultMaxBodySize int64 = 1 << 20

// RequestSize limits the size of incoming request bodies.
//
// It wraps the request body with http.MaxBytesReader. Handlers decoding an
// oversized body receive *http.MaxBytesError and answer 413 Payload Too Large.
// A request whose Content-Length already exceeds the limit is rejected
// before reaching the handler.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writePayloadTooLarge(w, r)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

func writePayloadTooLarge(w http.ResponseWriter, r *http.Request) {
	problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypePayloadTooLarge, "Payload too large", nil, "",
		problem.WithDetail("Request body exceeds the size limit"))
}
