package middleware

import (
	"net/http"

	"github.com/udj/udjserver/internal/headers"
)

// APIVersion stamps every response with the X-Udj-Api-Version header.
func APIVersion(version string) func(http.Handler) http.Handler {
	name := headers.APIVersion.String()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if version != "" {
				w.Header().Set(name, version)
			}
			next.ServeHTTP(w, r)
		})
	}
}
