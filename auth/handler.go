package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pratoapp/go-session-gateway/sessions"
)

const contentTypeJSON = "application/json; charset=utf-8"

type errorResponse struct {
	Error string `json:"error"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Handler returns the HTTP surface of the primary session library, meant to
// be mounted under a path prefix by the hosting server. The provider
// callback route is also exposed via CallbackHandler so the server can wrap
// it separately.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sign-in/email", s.signInHandler)
	mux.HandleFunc("POST /sign-up/email", s.signUpHandler)
	mux.HandleFunc("POST /sign-out", s.signOutHandler)
	mux.HandleFunc("GET /get-session", s.getSessionHandler)
	mux.HandleFunc("GET /sign-in/social", s.socialSignInHandler)
	mux.HandleFunc("GET /callback/google", s.CallbackHandler())
	return mux
}

func (s *Service) signInHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := s.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, InvalidCredentialsErr.Error())
		return
	}

	s.setSessionCookie(w, account.Session)
	writeJSON(w, http.StatusOK, account)
}

func (s *Service) signUpHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := s.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.setSessionCookie(w, account.Session)
	writeJSON(w, http.StatusOK, account)
}

func (s *Service) signOutHandler(w http.ResponseWriter, r *http.Request) {
	token := s.tokenFromHeader(r.Header)
	if token != "" {
		if err := s.SignOut(r.Context(), token); err != nil {
			writeError(w, http.StatusInternalServerError, "sign out failed")
			return
		}
	}

	// Expire the cookie either way
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Service) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	account, err := s.GetSession(r.Context(), r.Header)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// socialSignInHandler returns the provider authorization URL for the given
// callback URL. The mobile client opens it in a system browser.
func (s *Service) socialSignInHandler(w http.ResponseWriter, r *http.Request) {
	callbackURL := r.URL.Query().Get("callback_url")
	if callbackURL == "" {
		writeError(w, http.StatusBadRequest, "callback_url is required")
		return
	}

	authorizeURL, err := s.AuthorizeURL(callbackURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to build authorize URL")
		writeError(w, http.StatusInternalServerError, "failed to start sign-in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": authorizeURL})
}

// CallbackHandler completes the provider flow: it exchanges the code,
// issues a session cookie, and redirects to the callback URL carried by the
// state. Browsers drop the cookie across the custom-scheme hop, which is
// why the hosting server wraps this handler with an interceptor that copies
// the cookie into the redirect URL.
func (s *Service) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.FormValue("error"); errParam != "" {
			writeError(w, http.StatusBadRequest, "authorization failed: "+errParam)
			return
		}

		code := r.FormValue("code")
		state := r.FormValue("state")
		if code == "" || state == "" {
			writeError(w, http.StatusBadRequest, "missing code or state parameter")
			return
		}

		account, callbackURL, err := s.CompleteOAuth(r.Context(), code, state)
		if err != nil {
			log.Error().Err(err).Msg("oauth completion failed")
			writeError(w, http.StatusInternalServerError, "sign-in failed")
			return
		}

		s.setSessionCookie(w, account.Session)
		http.Redirect(w, r, callbackURL, http.StatusFound)
	}
}

func (s *Service) setSessionCookie(w http.ResponseWriter, session sessions.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
