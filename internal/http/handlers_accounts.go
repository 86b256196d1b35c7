package http

import (
	"net/http"

	"moneta/internal/core"
)

type goalPayload struct {
	TargetCents int64  `json:"target_cents"`
	TargetDate  string `json:"target_date,omitempty"`
}

type accountRequest struct {
	Name             string       `json:"name"`
	Kind             string       `json:"kind"`
	BalanceCents     int64        `json:"balance_cents"`
	CreditLimitCents int64        `json:"credit_limit_cents"`
	Goal             *goalPayload `json:"goal"`
}

type accountResponse struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	Kind             string       `json:"kind"`
	BalanceCents     int64        `json:"balance_cents"`
	CreditLimitCents int64        `json:"credit_limit_cents,omitempty"`
	Goal             *goalPayload `json:"goal,omitempty"`
}

func (req accountRequest) toAccount() (core.Account, error) {
	a := core.Account{
		Name:        sanitizeInput(req.Name),
		Kind:        core.AccountKind(req.Kind),
		Balance:     core.Money{Cents: req.BalanceCents},
		CreditLimit: core.Money{Cents: req.CreditLimitCents},
	}
	if req.Goal != nil {
		targetDate, err := parseOptionalDate(req.Goal.TargetDate)
		if err != nil {
			return core.Account{}, err
		}
		a.Goal = &core.Goal{
			Target:     core.Money{Cents: req.Goal.TargetCents},
			TargetDate: targetDate,
		}
	}
	return a, nil
}

func toAccountResponse(a core.Account) accountResponse {
	resp := accountResponse{
		ID:               a.ID,
		Name:             a.Name,
		Kind:             string(a.Kind),
		BalanceCents:     a.Balance.Cents,
		CreditLimitCents: a.CreditLimit.Cents,
	}
	if a.Goal != nil {
		resp.Goal = &goalPayload{
			TargetCents: a.Goal.Target.Cents,
			TargetDate:  fmtDate(a.Goal.TargetDate),
		}
	}
	return resp
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	account, err := req.toAccount()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.svc.Accounts.Create(r.Context(), account)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()
	account.ID = id
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Accounts.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	account, err := s.svc.Accounts.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	account, err := req.toAccount()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account.ID = id

	if err := s.svc.Accounts.Update(r.Context(), account); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()

	// The balance is owned by postings, so re-read the stored row rather
	// than echoing the request.
	updated, err := s.svc.Accounts.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(updated))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.svc.Accounts.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}
