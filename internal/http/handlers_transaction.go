package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"perdiem/internal/log"
)

type addTransactionRequest struct {
	AmountDollars json.Number `json:"amount_dollars"`
	Name          string      `json:"name"`
	PostedAt      string      `json:"posted_at"`
	CurrencyCode  string      `json:"currency_code"`
}

// handleAddTransaction records a spend for the caller.
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
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

	var req addTransactionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}

	cents, err := parseDollars(req.AmountDollars)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	postedAt, err := parsePostedAt(req.PostedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid posted_at")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	id, err := s.ledger.AddTransaction(r.Context(), userID, email, cents, strings.TrimSpace(req.Name), currency, postedAt)
	if err != nil {
		s.serviceError(w, r, "Transaction insert failed", err)
		return
	}

	s.logger.DebugContext(r.Context(), "Transaction accepted",
		log.FieldUserID, userID,
		log.FieldTransactionID, id)

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}
