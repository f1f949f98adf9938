package handlers

import (
	"net/http"
	"strings"

	"ticket-desk/core/rbac"
	"ticket-desk/core/store"
	"ticket-desk/core/tickets"
	"ticket-desk/core/utils"
)

type TicketsHandler struct {
	svc    *tickets.Service
	logger *utils.Logger
}

func NewTicketsHandler(svc *tickets.Service, logger *utils.Logger) *TicketsHandler {
	return &TicketsHandler{svc: svc, logger: logger}
}

func currentRole(r *http.Request) rbac.Role {
	role, _ := rbac.RoleFromContext(r.Context())
	return role
}

// requestToday honours ?today=YYYY-MM-DD so callers can evaluate overdue flags
// against their own calendar day.
func requestToday(r *http.Request, svc *tickets.Service) (store.Date, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("today")); raw != "" {
		return store.ParseDate(raw)
	}
	return svc.Today(), nil
}

func (h *TicketsHandler) List(w http.ResponseWriter, r *http.Request) {
	today, err := requestToday(r, h.svc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tickets.invalid", err.Error())
		return
	}
	q := r.URL.Query()
	filter := tickets.ParseFilter(q.Get("status"), q.Get("priority"), q.Get("group"), q.Get("q"), q.Get("owner"))
	items, err := h.svc.List(currentRole(r), filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tickets.Views(items, today)})
}

func (h *TicketsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "tickets.not_found", tickets.ErrNotFound.Error())
		return
	}
	today, err := requestToday(r, h.svc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tickets.invalid", err.Error())
		return
	}
	t, err := h.svc.Get(currentRole(r), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets.NewView(t, today))
}

func (h *TicketsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in tickets.TicketInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "tickets.bad_payload", err.Error())
		return
	}
	t, err := h.svc.Create(r.Context(), currentRole(r), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if h.logger != nil {
		h.logger.Printf("ticket #%d created by %s", t.ID, currentRole(r))
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TicketsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "tickets.not_found", tickets.ErrNotFound.Error())
		return
	}
	var patch tickets.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "tickets.bad_payload", err.Error())
		return
	}
	t, err := h.svc.Update(r.Context(), currentRole(r), id, patch)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TicketsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "tickets.not_found", tickets.ErrNotFound.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), currentRole(r), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if h.logger != nil {
		h.logger.Printf("ticket #%d deleted by %s", id, currentRole(r))
	}
	w.WriteHeader(http.StatusNoContent)
}

type adminNotePayload struct {
	Text string `json:"text"`
}

func (h *TicketsHandler) AppendAdminNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "tickets.not_found", tickets.ErrNotFound.Error())
		return
	}
	var payload adminNotePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "tickets.bad_payload", err.Error())
		return
	}
	t, err := h.svc.AppendAdminNote(r.Context(), currentRole(r), id, payload.Text)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type infoRequestPayload struct {
	Message string `json:"message"`
}

func (h *TicketsHandler) RequestInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "tickets.not_found", tickets.ErrNotFound.Error())
		return
	}
	var payload infoRequestPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "tickets.bad_payload", err.Error())
		return
	}
	t, err := h.svc.SendInfoRequest(r.Context(), currentRole(r), id, payload.Message)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type infoReplyPayload struct {
	Reply string `json:"reply"`
}

func (h *TicketsHandler) ReplyInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "tickets.not_found", tickets.ErrNotFound.Error())
		return
	}
	var payload infoReplyPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "tickets.bad_payload", err.Error())
		return
	}
	t, err := h.svc.ReplyToInfoRequest(r.Context(), currentRole(r), id, payload.Reply)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
