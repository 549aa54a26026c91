package http

import (
	"net/http"
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/recurrence"
)

type previewRequest struct {
	Kind               string `json:"kind"`
	CustomIntervalDays int    `json:"custom_interval_days,omitempty"`
	OriginDate         string `json:"origin_date"`
	EndDate            string `json:"end_date,omitempty"`
	WindowStart        string `json:"window_start,omitempty"`
	WindowEnd          string `json:"window_end,omitempty"`
}

type previewResponse struct {
	Dates []string `json:"dates"`
	Count int      `json:"count"`
}

// handleRecurrencePreview expands a recurrence rule without persisting
// anything. The window defaults to [origin, now+horizon].
func (s *Server) handleRecurrencePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc := s.cal.Location()

	origin, err := parseDate(req.OriginDate, loc)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if origin.IsZero() {
		writeError(w, http.StatusUnprocessableEntity, "origin_date is required")
		return
	}

	endDate, err := parseDate(req.EndDate, loc)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rule := core.RecurrenceRule{
		Kind:               core.RecurrenceKind(req.Kind),
		CustomIntervalDays: req.CustomIntervalDays,
		EndDate:            endDate,
	}
	if err := rule.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	windowStart, err := parseDate(req.WindowStart, loc)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if windowStart.IsZero() {
		windowStart = origin
	}

	windowEnd, err := parseDate(req.WindowEnd, loc)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if windowEnd.IsZero() {
		windowEnd = s.cal.StartOfDay(time.Now()).AddDate(0, 0, s.previewHorizonDays)
	}

	exp := recurrence.NewExpander(s.cal)
	occurrences := exp.Expand(rule, origin, windowStart, windowEnd)

	resp := previewResponse{Dates: make([]string, 0, len(occurrences)), Count: len(occurrences)}
	for _, d := range occurrences {
		resp.Dates = append(resp.Dates, formatDate(d))
	}

	writeJSON(w, http.StatusOK, resp)
}
