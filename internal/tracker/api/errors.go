package api

import (
	"net/http"

	"price-dashboard/internal/tracker"
)

// APIError means the backend responded with a non-2xx status. Message is
// already normalized to a single human-readable string.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, tracker.ErrNotFound) match a 404 response, so
// callers can treat "already gone" deletes and missing detail pages
// uniformly without inspecting status codes.
func (e *APIError) Is(target error) bool {
	return target == tracker.ErrNotFound && e.Status == http.StatusNotFound
}

// NetworkError means the request never produced an HTTP response: DNS
// failure, refused connection, timeout. Distinct from APIError so callers
// can tell "server said no" from "could not reach server".
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
