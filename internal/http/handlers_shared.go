package http

import (
	"net/http"

	"moneta/internal/core"
)

type sharedShareRequest struct {
	Participant string `json:"participant"`
	AmountCents int64  `json:"amount_cents"`
}

type sharedExpenseRequest struct {
	Description    string `json:"description"`
	Date           string `json:"date"`
	TotalCents     int64  `json:"total_cents"`
	PayerAccountID int64  `json:"payer_account_id"`
	// Either Participants (equal split) or Shares (explicit amounts).
	Participants []string             `json:"participants,omitempty"`
	Shares       []sharedShareRequest `json:"shares,omitempty"`
}

type sharedShareResponse struct {
	ID          int64  `json:"id"`
	Participant string `json:"participant"`
	AmountCents int64  `json:"amount_cents"`
	Settled     bool   `json:"settled"`
}

type sharedExpenseResponse struct {
	ID               int64                 `json:"id"`
	Description      string                `json:"description"`
	Date             string                `json:"date"`
	TotalCents       int64                 `json:"total_cents"`
	PayerAccountID   int64                 `json:"payer_account_id"`
	OutstandingCents int64                 `json:"outstanding_cents"`
	Shares           []sharedShareResponse `json:"shares"`
}

type settleShareRequest struct {
	Date string `json:"date"`
}

func toSharedResponse(se core.SharedExpense) sharedExpenseResponse {
	resp := sharedExpenseResponse{
		ID:               se.ID,
		Description:      se.Description,
		Date:             fmtDate(se.Date),
		TotalCents:       se.Total.Cents,
		PayerAccountID:   se.PayerAccountID,
		OutstandingCents: se.Outstanding().Cents,
		Shares:           make([]sharedShareResponse, 0, len(se.Shares)),
	}
	for _, sh := range se.Shares {
		resp.Shares = append(resp.Shares, sharedShareResponse{
			ID:          sh.ID,
			Participant: sh.Participant,
			AmountCents: sh.Amount.Cents,
			Settled:     sh.Settled,
		})
	}
	return resp
}

func (s *Server) handleCreateShared(w http.ResponseWriter, r *http.Request) {
	var req sharedExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	se := core.SharedExpense{
		Description:    sanitizeInput(req.Description),
		Date:           date,
		Total:          core.Money{Cents: req.TotalCents},
		PayerAccountID: req.PayerAccountID,
	}
	for _, sh := range req.Shares {
		se.Shares = append(se.Shares, core.SharedShare{
			Participant: sanitizeInput(sh.Participant),
			Amount:      core.Money{Cents: sh.AmountCents},
		})
	}

	id, err := s.svc.Shared.Create(r.Context(), se, req.Participants)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	created, err := s.svc.Shared.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSharedResponse(created))
}

func (s *Server) handleListShared(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.Shared.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	resp := make([]sharedExpenseResponse, 0, len(expenses))
	for _, se := range expenses {
		resp = append(resp, toSharedResponse(se))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetShared(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	se, err := s.svc.Shared.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSharedResponse(se))
}

func (s *Server) handleDeleteShared(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.svc.Shared.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettleShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req settleShareRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.svc.Shared.SettleShare(r.Context(), id, date); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}
