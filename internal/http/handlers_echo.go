package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"perdiem/internal/log"
	"perdiem/internal/signing"
)

// handleEcho verifies an HMAC-signed request and echoes it back. The
// signature covers "<ts>.<userID>.<body>" where body is the raw request
// payload, an empty body counting as "{}".
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.verifier == nil {
		writeError(w, http.StatusInternalServerError, "Signing not configured")
		return
	}

	userID, email, _ := identity(r)
	ts := r.Header.Get("X-Signature-Timestamp")
	sig := r.Header.Get("X-Signature")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	if err := s.verifier.Verify(ts, userID, body, sig); err != nil {
		s.logger.WarnContext(r.Context(), "Signature verification failed",
			log.FieldUserID, userID,
			log.FieldError, err)
		if errors.Is(err, signing.ErrMissingHeaders) {
			writeError(w, http.StatusUnauthorized, "Missing signature headers")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var received any
	if err := json.Unmarshal(body, &received); err != nil {
		received = map[string]any{}
	}

	// ts is authenticated by the signature; a non-numeric value echoes as 0.
	tsNum, _ := strconv.ParseInt(ts, 10, 64)

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"received": received,
		"user":     map[string]any{"id": userID, "email": email},
		"ts":       tsNum,
	})
}
