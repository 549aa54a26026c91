package http

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
)

type templateRequest struct {
	Amount             string   `json:"amount"`
	Currency           string   `json:"currency,omitempty"`
	Category           string   `json:"category"`
	Subcategory        string   `json:"subcategory,omitempty"`
	Description        string   `json:"description"`
	OriginDate         string   `json:"origin_date"`
	Kind               string   `json:"kind,omitempty"`
	CustomIntervalDays int      `json:"custom_interval_days,omitempty"`
	EndDate            string   `json:"end_date,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

type templateResponse struct {
	ID                 string   `json:"id"`
	AmountCents        int64    `json:"amount_cents"`
	Currency           string   `json:"currency"`
	Category           string   `json:"category"`
	Subcategory        string   `json:"subcategory,omitempty"`
	Description        string   `json:"description"`
	OriginDate         string   `json:"origin_date"`
	Kind               string   `json:"kind"`
	CustomIntervalDays int      `json:"custom_interval_days,omitempty"`
	EndDate            string   `json:"end_date,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	Status             string   `json:"status"`
}

type instanceResponse struct {
	ID          string   `json:"id"`
	OriginID    string   `json:"origin_id"`
	Date        string   `json:"date"`
	AmountCents int64    `json:"amount_cents"`
	Currency    string   `json:"currency"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Status      string   `json:"status"`
}

func templateToResponse(t core.ExpenseTemplate) templateResponse {
	return templateResponse{
		ID:                 t.ID,
		AmountCents:        t.Amount.Cents,
		Currency:           t.Currency,
		Category:           t.Category,
		Subcategory:        t.Subcategory,
		Description:        t.Description,
		OriginDate:         formatDate(t.OriginDate),
		Kind:               string(t.Recurrence.Kind),
		CustomIntervalDays: t.Recurrence.CustomIntervalDays,
		EndDate:            formatDate(t.Recurrence.EndDate),
		Tags:               t.Tags,
		Notes:              t.Notes,
		Status:             string(t.Status),
	}
}

func instanceToResponse(i core.ExpenseInstance) instanceResponse {
	return instanceResponse{
		ID:          i.ID,
		OriginID:    i.OriginID,
		Date:        formatDate(i.Date),
		AmountCents: i.Amount.Cents,
		Currency:    i.Currency,
		Category:    i.Category,
		Subcategory: i.Subcategory,
		Description: i.Description,
		Tags:        i.Tags,
		Notes:       i.Notes,
		Status:      string(i.Status),
	}
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc := s.cal.Location()

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	origin, err := parseDate(req.OriginDate, loc)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	endDate, err := parseDate(req.EndDate, loc)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	kind := core.RecurrenceKind(req.Kind)
	if req.Kind == "" {
		kind = core.RecurrenceNone
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	t := core.ExpenseTemplate{
		ID:          uuid.NewString(),
		Amount:      core.Money{Cents: cents},
		Currency:    currency,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Description: req.Description,
		OriginDate:  origin,
		Recurrence: core.RecurrenceRule{
			Kind:               kind,
			CustomIntervalDays: req.CustomIntervalDays,
			EndDate:            endDate,
		},
		Tags:   req.Tags,
		Notes:  req.Notes,
		Status: core.StatusConfirmed,
	}

	if err := t.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.templates.CreateTemplate(r.Context(), t); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store template")
		return
	}

	writeJSON(w, http.StatusCreated, templateToResponse(t))
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.templates.ListTemplates(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list templates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}

	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateToResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.templates.GetTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, templateToResponse(t))
}

func (s *Server) handleSetTemplateActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.templates.SetTemplateActive(r.Context(), r.PathValue("id"), req.Active); err != nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := s.templates.GetTemplate(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	instances, err := s.templates.ListInstancesByOrigin(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list instances", "origin_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list instances")
		return
	}

	out := make([]instanceResponse, 0, len(instances))
	for _, inst := range instances {
		out = append(out, instanceToResponse(inst))
	}
	writeJSON(w, http.StatusOK, out)
}
