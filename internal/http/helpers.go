package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"perdiem/internal/core"
	"perdiem/internal/log"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// identity extracts the caller identity headers. A missing X-User-ID means
// the request is unauthenticated.
func identity(r *http.Request) (userID, email string, ok bool) {
	userID = strings.TrimSpace(r.Header.Get("X-User-ID"))
	email = strings.TrimSpace(r.Header.Get("X-User-Email"))
	return userID, email, userID != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "Missing user")
}

// readJSON decodes a bounded JSON body into dst. Unknown fields are
// tolerated; callers validate the fields they care about.
func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// parseDays reads the history window length from the query, clamped to
// [1, max], defaulting when absent or unparsable.
func parseDays(r *http.Request, def, max int) int {
	v := strings.TrimSpace(r.URL.Query().Get("days"))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// parseDollars converts a JSON "dollars" value (number or decimal string)
// into cents.
func parseDollars(n json.Number) (int64, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return 0, core.ErrInvalidAmount
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, err
	}
	return cents, nil
}

// parsePostedAt accepts an RFC 3339 timestamp, empty meaning "now" (the
// zero time is returned and the service applies the default).
func parsePostedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse posted_at: %w", err)
	}
	return t, nil
}

// isClientError reports whether a service error maps to a 400 rather
// than a 500.
func isClientError(err error) bool {
	return errors.Is(err, core.ErrInvalidAllowance) ||
		errors.Is(err, core.ErrInvalidStartDate) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidTimezone) ||
		errors.Is(err, core.ErrInvalidRange)
}

// serviceError logs a failed service call and writes the matching status.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if isClientError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.ErrorContext(r.Context(), msg, log.FieldError, err)
	writeError(w, http.StatusInternalServerError, "Internal error")
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
