package api

import (
	"net/http"
)

const ssoStateCookieName = "sso_state"

// handleSSOLogin starts the provider login flow. The anti-CSRF state is
// parked in a short-lived cookie and checked again on the callback.
func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	state, err := s.sso.NewState()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     ssoStateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.sso.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(ssoStateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusUnauthorized, "unauthorized", "state mismatch")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ssoStateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	_, token, err := s.sso.Callback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}
