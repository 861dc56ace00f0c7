package server

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// OAuthCallbackInterceptor wraps the provider callback route. The callback
// handler finishes the OAuth exchange and redirects to the app's deep link
// with a session cookie, but browsers drop cookies across the
// custom-scheme hop, so the cookie is copied into the redirect URL as a
// session_token query parameter. The token is re-verified before it is
// forwarded; a cookie the session library rejects never reaches the app.
func (s *Server) OAuthCallbackInterceptor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buffer := newBufferedResponse()
		next(buffer, r)

		cookie := firstCookiePair(buffer.header.Get("Set-Cookie"))
		if !buffer.isRedirect() || cookie == "" {
			// Provider error or a response without a fresh cookie; pass
			// through unchanged.
			buffer.flush(w)
			return
		}

		_, value, found := strings.Cut(cookie, "=")
		if !found || value == "" {
			log.Error().Str("cookie", cookie).Msg("callback issued a malformed session cookie")
			writeInterceptorError(w)
			return
		}
		if _, err := s.auth.GetSessionFromToken(r.Context(), value); err != nil {
			log.Error().Err(err).Msg("callback session failed re-verification")
			writeInterceptorError(w)
			return
		}

		location, err := url.Parse(buffer.header.Get("Location"))
		if err != nil {
			log.Error().Err(err).Msg("callback redirect target is not a valid URL")
			writeInterceptorError(w)
			return
		}
		query := location.Query()
		query.Set("session_token", cookie)
		location.RawQuery = query.Encode()
		buffer.header.Set("Location", location.String())

		buffer.flush(w)
	}
}

func writeInterceptorError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"sign-in could not be completed"}`))
}

// firstCookiePair returns the name=value segment of a Set-Cookie header,
// dropping attributes like Path and HttpOnly.
func firstCookiePair(setCookie string) string {
	if setCookie == "" {
		return ""
	}
	pair, _, _ := strings.Cut(setCookie, ";")
	return strings.TrimSpace(pair)
}

// bufferedResponse captures a handler's response so it can be inspected and
// rewritten before anything reaches the wire.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func (b *bufferedResponse) WriteHeader(status int) {
	b.status = status
}

func (b *bufferedResponse) isRedirect() bool {
	return b.status >= 300 && b.status < 400
}

func (b *bufferedResponse) flush(w http.ResponseWriter) {
	for key, values := range b.header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}
