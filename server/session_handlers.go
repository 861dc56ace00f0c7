package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pratoapp/go-session-gateway/kvsessions"
)

// KVSessionHandler serves the fallback session record for a dbToken. The
// mobile client calls it when the primary library cannot be consulted
// directly (after the OAuth handshake, and on fallback resolution).
func (s *Server) KVSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbToken := r.PathValue("dbToken")
		if dbToken == "" {
			http.Error(w, `{"error":"missing token"}`, http.StatusBadRequest)
			return
		}

		for _, key := range []string{kvsessions.Key(dbToken), kvsessions.LegacyKey(dbToken)} {
			raw, err := s.kv.Get(key)
			if err != nil {
				continue
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(raw)
			return
		}

		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
	}
}

// DeleteSessionHandler removes a session by its raw token: the primary
// record, and the KV records under every key encoding the token or its
// dbToken prefix may have been stored with. Deleting an already-absent
// session is not an error.
func (s *Server) DeleteSessionHandler() http.HandlerFunc {
	type request struct {
		SessionToken string `json:"sessionToken"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionToken == "" {
			http.Error(w, `{"error":"sessionToken is required"}`, http.StatusBadRequest)
			return
		}

		if err := s.auth.SignOut(r.Context(), req.SessionToken); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
			http.Error(w, `{"error":"failed to delete session"}`, http.StatusInternalServerError)
			return
		}

		// Older clients stored KV records keyed by the full token rather
		// than the dbToken prefix; clear those encodings too.
		for _, key := range []string{kvsessions.Key(req.SessionToken), kvsessions.LegacyKey(req.SessionToken)} {
			if err := s.kv.Delete(key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to delete kv session record")
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}
}

// MeHandler returns the identity the gateway resolved for this request.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := AuthUserFromContext(r.Context())
		if !ok {
			// The gateway rejects unauthenticated requests before this
			// handler runs; reaching here without an identity is a bug.
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(user); err != nil {
			log.Error().Err(err).Msg("failed to encode user")
		}
	}
}

// HealthHandler reports service liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// IndexHandler returns the service name and, in development, the registered
// routes.
func (s *Server) IndexHandler() http.HandlerFunc {
	type response struct {
		Service string   `json:"service"`
		Env     string   `json:"env"`
		Routes  []string `json:"routes,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := response{Service: s.config.GetAppName(), Env: s.env}
		if s.env == "DEV" {
			resp.Routes = s.routes
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error().Err(err).Msg("failed to encode index response")
		}
	}
}
