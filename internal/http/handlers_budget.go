package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"perdiem/internal/core"
	"perdiem/internal/log"
)

type upsertBudgetRequest struct {
	DailyAllowanceDollars json.Number `json:"daily_allowance_dollars"`
	StartDate             string      `json:"start_date"`
	CurrencyCode          string      `json:"currency_code"`
}

// handleUpsertBudget replaces the caller's active budget.
func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
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

	var req upsertBudgetRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}

	cents, err := parseDollars(req.DailyAllowanceDollars)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	startDate, err := core.ParseLocalDay(strings.TrimSpace(req.StartDate))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}

	cfg, err := s.ledger.UpsertBudget(r.Context(), userID, email, core.BudgetConfig{
		DailyAllowanceCents: cents,
		StartDate:           startDate,
		CurrencyCode:        strings.ToUpper(strings.TrimSpace(req.CurrencyCode)),
	})
	if err != nil {
		s.serviceError(w, r, "Budget upsert failed", err)
		return
	}

	s.logger.InfoContext(r.Context(), "Budget replaced",
		log.FieldOperation, log.OpUpdate,
		log.FieldUserID, userID,
		log.FieldAmountCents, cfg.DailyAllowanceCents,
		log.FieldCurrency, cfg.CurrencyCode)

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"budget": map[string]any{
			"user_id":               userID,
			"daily_allowance_cents": cfg.DailyAllowanceCents,
			"start_date":            cfg.StartDate.String(),
			"currency_code":         cfg.CurrencyCode,
		},
	})
}
