package http

import (
	"net/http"

	"moneta/internal/core"
)

type loanRequest struct {
	Description  string `json:"description"`
	AmountCents  int64  `json:"amount_cents"`
	Counterparty string `json:"counterparty"`
	Direction    string `json:"direction"`
	Origination  string `json:"origination_date"`
	DueDate      string `json:"due_date"`
	// Installment plan, optional. Zero count means the loan settles in
	// a single movement.
	InstallmentCount int    `json:"installment_count,omitempty"`
	FirstDueDate     string `json:"first_due_date,omitempty"`
	Frequency        string `json:"frequency,omitempty"`
}

type installmentResponse struct {
	ID               int64  `json:"id"`
	Sequence         int    `json:"sequence"`
	AmountCents      int64  `json:"amount_cents"`
	DueDate          string `json:"due_date"`
	Status           string `json:"status"`
	PartialPaidCents int64  `json:"partial_paid_cents,omitempty"`
}

type loanResponse struct {
	ID               int64                 `json:"id"`
	Description      string                `json:"description"`
	AmountCents      int64                 `json:"amount_cents"`
	Counterparty     string                `json:"counterparty"`
	Direction        string                `json:"direction"`
	Status           string                `json:"status"`
	Origination      string                `json:"origination_date"`
	DueDate          string                `json:"due_date"`
	OutstandingCents int64                 `json:"outstanding_cents"`
	Installments     []installmentResponse `json:"installments,omitempty"`
}

type loanPaymentRequest struct {
	Sequence    int    `json:"sequence"`
	AmountCents int64  `json:"amount_cents"`
	AccountID   int64  `json:"account_id"`
	Date        string `json:"date"`
}

type loanSettleRequest struct {
	AccountID int64  `json:"account_id"`
	Date      string `json:"date"`
}

func (req loanRequest) toLoan() (core.Loan, error) {
	origination, err := parseDate(req.Origination)
	if err != nil {
		return core.Loan{}, err
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return core.Loan{}, err
	}
	firstDue, err := parseOptionalDate(req.FirstDueDate)
	if err != nil {
		return core.Loan{}, err
	}

	return core.Loan{
		Description:      sanitizeInput(req.Description),
		Amount:           core.Money{Cents: req.AmountCents},
		Counterparty:     sanitizeInput(req.Counterparty),
		Direction:        core.LoanDirection(req.Direction),
		Origination:      origination,
		DueDate:          dueDate,
		InstallmentCount: req.InstallmentCount,
		FirstDueDate:     firstDue,
		Frequency:        core.Frequency(req.Frequency),
	}, nil
}

func toLoanResponse(l core.Loan) loanResponse {
	resp := loanResponse{
		ID:               l.ID,
		Description:      l.Description,
		AmountCents:      l.Amount.Cents,
		Counterparty:     l.Counterparty,
		Direction:        string(l.Direction),
		Status:           string(l.Status),
		Origination:      fmtDate(l.Origination),
		DueDate:          fmtDate(l.DueDate),
		OutstandingCents: l.OutstandingCents(),
	}
	for _, inst := range l.Installments {
		resp.Installments = append(resp.Installments, installmentResponse{
			ID:               inst.ID,
			Sequence:         inst.Sequence,
			AmountCents:      inst.Amount.Cents,
			DueDate:          fmtDate(inst.DueDate),
			Status:           string(inst.Status),
			PartialPaidCents: inst.PartialPaid.Cents,
		})
	}
	return resp
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loan, err := req.toLoan()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.svc.Loans.Create(r.Context(), loan)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()

	created, err := s.svc.Loans.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanResponse(created))
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	onlyOpen := r.URL.Query().Get("open") == "true"

	loans, err := s.svc.Loans.List(r.Context(), onlyOpen)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	resp := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, toLoanResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loan, err := s.svc.Loans.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.svc.Loans.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoanPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req loanPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.svc.Loans.RecordInstallmentPayment(r.Context(), id, req.Sequence,
		core.Money{Cents: req.AmountCents}, req.AccountID, date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()

	loan, err := s.svc.Loans.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (s *Server) handleLoanSettle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req loanSettleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.svc.Loans.Settle(r.Context(), id, req.AccountID, date); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()

	loan, err := s.svc.Loans.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}
