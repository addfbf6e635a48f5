package testutil

import (
	"net/http"

	id "curia/pkg/domain"
	"curia/pkg/requestcontext"
)

// WithActor adds an acting staff account ID to the request context,
// simulating what the auth middleware does for authenticated requests.
// Invalid IDs are silently ignored.
func WithActor(req *http.Request, staffID string) *http.Request {
	parsed, err := id.ParseStaffID(staffID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithActorID(req.Context(), parsed))
}

// WithRequestID adds a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
