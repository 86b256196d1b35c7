package http

import (
	"net/http"

	"moneta/internal/core"
)

type recurringRequest struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	AccountID   int64  `json:"account_id"`
	Kind        string `json:"kind"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	// Active defaults to true when omitted.
	Active *bool `json:"active,omitempty"`
}

type recurringResponse struct {
	ID            int64  `json:"id"`
	Description   string `json:"description"`
	AmountCents   int64  `json:"amount_cents"`
	Category      string `json:"category"`
	AccountID     int64  `json:"account_id"`
	Kind          string `json:"kind"`
	Frequency     string `json:"frequency"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	Active        bool   `json:"active"`
	LastGenerated string `json:"last_generated,omitempty"`
}

type pendingResponse struct {
	ID          int64  `json:"id"`
	RecurringID int64  `json:"recurring_id"`
	DueDate     string `json:"due_date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	AccountID   int64  `json:"account_id"`
	Kind        string `json:"kind"`
}

type confirmResponse struct {
	TransactionID int64 `json:"transaction_id"`
}

func (req recurringRequest) toRecurring() (core.RecurringTransaction, error) {
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return core.RecurringTransaction{
		Description: sanitizeInput(req.Description),
		Amount:      core.Money{Cents: req.AmountCents},
		Category:    sanitizeInput(req.Category),
		AccountID:   req.AccountID,
		Kind:        core.TransactionKind(req.Kind),
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   startDate,
		EndDate:     endDate,
		Active:      active,
	}, nil
}

func toRecurringResponse(rt core.RecurringTransaction) recurringResponse {
	return recurringResponse{
		ID:            rt.ID,
		Description:   rt.Description,
		AmountCents:   rt.Amount.Cents,
		Category:      rt.Category,
		AccountID:     rt.AccountID,
		Kind:          string(rt.Kind),
		Frequency:     string(rt.Frequency),
		StartDate:     fmtDate(rt.StartDate),
		EndDate:       fmtDate(rt.EndDate),
		Active:        rt.Active,
		LastGenerated: fmtDate(rt.LastGenerated),
	}
}

func toPendingResponse(p core.PendingOccurrence) pendingResponse {
	return pendingResponse{
		ID:          p.ID,
		RecurringID: p.RecurringID,
		DueDate:     fmtDate(p.DueDate),
		Description: p.Description,
		AmountCents: p.Amount.Cents,
		Category:    p.Category,
		AccountID:   p.AccountID,
		Kind:        string(p.Kind),
	}
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rt, err := req.toRecurring()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.svc.Recurring.Create(r.Context(), rt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()
	rt.ID = id
	writeJSON(w, http.StatusCreated, toRecurringResponse(rt))
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("active") == "true"

	templates, err := s.svc.Recurring.List(r.Context(), onlyActive)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	resp := make([]recurringResponse, 0, len(templates))
	for _, rt := range templates {
		resp = append(resp, toRecurringResponse(rt))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rt, err := s.svc.Recurring.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringResponse(rt))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req recurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rt, err := req.toRecurring()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rt.ID = id

	if err := s.svc.Recurring.Update(r.Context(), rt); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()

	updated, err := s.svc.Recurring.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringResponse(updated))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.svc.Recurring.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.svc.Recurring.ListPending(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	resp := make([]pendingResponse, 0, len(pending))
	for _, p := range pending {
		resp = append(resp, toPendingResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfirmPending(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	txID, err := s.svc.Recurring.Confirm(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, confirmResponse{TransactionID: txID})
}

func (s *Server) handleCancelPending(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.svc.Recurring.Cancel(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
