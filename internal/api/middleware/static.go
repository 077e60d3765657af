package middleware

import "net/http"

// StaticContent marks responses as inert files: the browser must keep the
// declared type and may not run script or load anything from them.
func StaticContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; style-src 'unsafe-inline'; sandbox")
		next.ServeHTTP(w, r)
	})
}
