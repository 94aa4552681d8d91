// This file provides a small builder for JSON responses so every handler
// sets the same headers and encodes bodies the same way.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value to encode.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Detail sets a {"detail": v} body, the error envelope used by the API.
func (b *JSONResponseBuilder) Detail(v any) *JSONResponseBuilder {
	return b.Body(detailBody{Detail: v})
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode JSON response", "component", "http", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal Server Error"}`))
		return
	}

	w.WriteHeader(b.statusCode)
	_, _ = w.Write(data)
}

type detailBody struct {
	Detail any `json:"detail"`
}

// Shorthands for the responses handlers send most.

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	NewJSONResponse().Status(status).Detail(detail).Write(w)
}

func writeValidationErrors(w http.ResponseWriter, verrs ValidationErrors) {
	NewJSONResponse().Status(http.StatusUnprocessableEntity).Detail(verrs).Write(w)
}
