package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CORS answers preflight requests and tags responses for allowed origins.
// An empty origin list, or a "*" entry, allows every origin. methods is the
// set of methods the router serves; OPTIONS is always added.
func CORS(allowedOrigins []string, methods []string) func(http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	allowMethods := strings.Join(withOptions(methods), ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || slices.ContainsFunc(allowedOrigins, func(o string) bool {
				return strings.EqualFold(o, origin)
			})) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", allowMethods)
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
				h.Set("Access-Control-Expose-Headers", "Retry-After")
				h.Set("Access-Control-Max-Age", "86400")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// withOptions returns methods sorted and de-duplicated, with OPTIONS.
func withOptions(methods []string) []string {
	out := append(slices.Clone(methods), http.MethodOptions)
	for i, m := range out {
		out[i] = strings.ToUpper(m)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
