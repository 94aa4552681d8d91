package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// candidateMethods are checked when building the Allow header of a 405.
var candidateMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// allowedMethods lists the methods routes accepts for path.
func allowedMethods(routes chi.Routes, path string) []string {
	var allowed []string
	for _, m := range candidateMethods {
		if routes.Match(chi.NewRouteContext(), m, path) {
			allowed = append(allowed, m)
		}
	}
	return allowed
}

// routePattern returns the chi pattern that served r, e.g. "/expenses/summary".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// emptyIfNil keeps JSON list responses as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
