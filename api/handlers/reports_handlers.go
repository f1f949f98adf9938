package handlers

import (
	"net/http"
	"strings"

	"ticket-desk/core/reports"
	"ticket-desk/core/tickets"
	"ticket-desk/core/utils"
)

type ReportsHandler struct {
	svc    *tickets.Service
	logger *utils.Logger
}

func NewReportsHandler(svc *tickets.Service, logger *utils.Logger) *ReportsHandler {
	return &ReportsHandler{svc: svc, logger: logger}
}

// Tickets renders the owner/group report as JSON, or as CSV with ?format=csv.
func (h *ReportsHandler) Tickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today, err := requestToday(r, h.svc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reports.invalid", err.Error())
		return
	}
	items, err := h.svc.List(currentRole(r), tickets.Filter{})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	rows := reports.Build(items, tickets.ParseFilter("", "", q.Get("group"), "", q.Get("owner")), today)
	if strings.EqualFold(strings.TrimSpace(q.Get("format")), "csv") {
		filename := "tickets_report_" + h.svc.Now().UTC().Format("20060102_150405") + ".csv"
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		w.WriteHeader(http.StatusOK)
		if err := reports.WriteCSV(w, rows); err != nil && h.logger != nil {
			h.logger.Errorf("reports: csv export: %v", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows, "count": len(rows)})
}
