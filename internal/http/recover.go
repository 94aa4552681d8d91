package http

import (
	"net/http"
	"runtime/debug"

	"ledger/internal/log"
)

// recoverJSON turns a handler panic into the API's JSON 500 envelope.
// http.ErrAbortHandler is re-raised so net/http can abort the response.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			ctx := r.Context()
			log.FromContext(ctx).ErrorContext(ctx, "Handler panicked",
				"panic", rec,
				log.FieldPath, r.URL.Path,
				"stack", string(debug.Stack()))

			if r.Header.Get("Connection") != "Upgrade" {
				writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
