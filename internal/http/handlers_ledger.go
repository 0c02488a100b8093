package http

import (
	"net/http"

	"perdiem/internal/core"
)

type dayRow struct {
	Date                   string `json:"date"`
	StartingAllowanceCents int64  `json:"starting_allowance_cents"`
	SpentCents             int64  `json:"spent_cents"`
	EndingRolloverCents    int64  `json:"ending_rollover_cents"`
}

func toDayRow(row core.LedgerRow) dayRow {
	return dayRow{
		Date:                   row.Date.String(),
		StartingAllowanceCents: row.StartingAllowanceCents,
		SpentCents:             row.SpentCents,
		EndingRolloverCents:    row.EndingRolloverCents,
	}
}

// handleTodaySummary returns the caller's current-day allowance snapshot.
func (s *Server) handleTodaySummary(w http.ResponseWriter, r *http.Request) {
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

	_, row, err := s.ledger.TodaySummary(r.Context(), userID)
	if err != nil {
		s.serviceError(w, r, "Today summary failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":            row.Date.String(),
		"incoming_cents":  row.StartingAllowanceCents,
		"spent_cents":     row.SpentCents,
		"remaining_cents": row.EndingRolloverCents,
	})
}

// handleHistory returns the trailing N-day ledger ending today, ascending.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
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

	days := parseDays(r, s.opts.HistoryDefaultDays, s.opts.HistoryMaxDays)
	_, rows, err := s.ledger.History(r.Context(), userID, days)
	if err != nil {
		s.serviceError(w, r, "History failed", err)
		return
	}

	out := make([]dayRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDayRow(row))
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": out})
}
