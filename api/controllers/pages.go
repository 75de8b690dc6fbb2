package controllers

import (
	"net/http"

	"github.com/mesaboardhq/mesaboard-backend/api/responses"
)

// LoginLanding receives guard redirects for operators with no valid session.
func LoginLanding() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"page":   "login",
			"reason": "sign in to continue",
		})
	}
}

// UnauthorizedLanding receives guard redirects for authenticated operators
// whose role does not match the route.
func UnauthorizedLanding() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"page":   "unauthorized",
			"reason": "your role does not grant access to that area",
		})
	}
}
