package http

import (
	"net/http"
	"strings"

	"perdiem/internal/core"
)

func userJSON(u core.User) map[string]any {
	var email any
	if u.Email != "" {
		email = u.Email
	}
	return map[string]any{
		"id":            u.ID,
		"email":         email,
		"plan":          u.Plan,
		"currency_code": u.CurrencyCode,
		"timezone":      u.Timezone,
	}
}

// handleProfile returns the caller's profile, with defaults applied for
// users that have never been stored.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, _, ok := identity(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	user, err := s.ledger.Profile(r.Context(), userID)
	if err != nil {
		s.serviceError(w, r, "Profile lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, userJSON(user))
}

type updateProfileRequest struct {
	CurrencyCode string `json:"currency_code"`
	Timezone     string `json:"timezone"`
}

// handleUpdateProfile updates the caller's currency and timezone,
// provisioning the profile row when absent.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, email, ok := identity(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req updateProfileRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	user, err := s.ledger.UpdateProfile(r.Context(), userID, email, currency, strings.TrimSpace(req.Timezone))
	if err != nil {
		s.serviceError(w, r, "Profile update failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": userJSON(user)})
}
