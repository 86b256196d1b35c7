package http

import (
	"fmt"
	"net/http"
	"time"

	"moneta/internal/core"
)

type transactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	AccountID   int64  `json:"account_id"`
	Kind        string `json:"kind"`
	// ToAccountID names the destination leg when Kind is "transfer".
	ToAccountID int64 `json:"to_account_id,omitempty"`
}

type transactionResponse struct {
	ID            int64  `json:"id"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	AmountCents   int64  `json:"amount_cents"`
	Category      string `json:"category"`
	AccountID     int64  `json:"account_id"`
	Kind          string `json:"kind"`
	TransferGroup string `json:"transfer_group,omitempty"`
}

type transferResponse struct {
	OutID int64 `json:"out_id"`
	InID  int64 `json:"in_id"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Date:          fmtDate(t.Date),
		Description:   t.Description,
		AmountCents:   t.Amount.Cents,
		Category:      t.Category,
		AccountID:     t.AccountID,
		Kind:          string(t.Kind),
		TransferGroup: t.TransferGroup,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if core.TransactionKind(req.Kind) == core.Transfer {
		outID, inID, err := s.svc.Transactions.RecordTransfer(r.Context(),
			req.AccountID, req.ToAccountID,
			core.Money{Cents: req.AmountCents}, date, sanitizeInput(req.Description))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		s.invalidateDerived()
		writeJSON(w, http.StatusCreated, transferResponse{OutID: outID, InID: inID})
		return
	}

	t := core.Transaction{
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      core.Money{Cents: req.AmountCents},
		Category:    sanitizeInput(req.Category),
		AccountID:   req.AccountID,
		Kind:        core.TransactionKind(req.Kind),
	}

	id, err := s.svc.Transactions.Record(r.Context(), t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()
	t.ID = id
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid month %d", month))
		return
	}

	key := fmt.Sprintf("transactions:%04d-%02d", year, month)
	transactions, hit := s.listCache.Get(key)
	if !hit {
		var err error
		transactions, err = s.svc.Transactions.ListMonth(r.Context(), year, time.Month(month))
		if err != nil {
			writeInternalError(w, r, err)
			return
		}
		s.listCache.Set(key, transactions)
	}

	resp := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		resp = append(resp, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	t, err := s.svc.Transactions.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.svc.Transactions.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}
