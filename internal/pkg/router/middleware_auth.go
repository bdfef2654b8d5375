package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsRune(token, ' ') {
		return "", false
	}
	return token, true
}

// middlewareAuthentication requires a valid access token on every route that
// is not in public. Refresh tokens are rejected by VerifyAccess.
func middlewareAuthentication(verifier jwt.Issuer, public map[string]map[string]struct{}) Middleware {
	unauthorized := func(w http.ResponseWriter, detail string) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="otpauth"`)
		writeJSON(w, errorResponse{Detail: detail}, http.StatusUnauthorized)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.Method][matchedRoutePath(r)]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Authentication required")
				return
			}
			if verifier == nil {
				unauthorized(w, "Invalid or expired token")
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
