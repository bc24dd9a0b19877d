package server

import (
	"net/http"
	"strconv"

	"signals-ledger-go/internal/investment"
	"signals-ledger-go/internal/models"
	"signals-ledger-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createInvestmentRequest struct {
	PlanId          string          `json:"plan_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	FundFromBalance bool            `json:"fund_from_balance"`
}

type ledgerRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

type confirmRequest struct {
	TransactionId string `json:"transaction_id"`
}

type completeRequest struct {
	ActualReturn *decimal.Decimal `json:"actual_return"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.service.ListPlans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleQuotePlan(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, store.NewValidationError("amount", "amount must be a decimal number"))
		return
	}
	quote, err := s.service.QuotePlan(r.Context(), chi.URLParam(r, "planId"), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.service.GetUserBalance(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	history, err := s.service.GetTransactionHistory(r.Context(), chi.URLParam(r, "userId"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req ledgerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.service.Deposit(r.Context(), chi.URLParam(r, "userId"), req.Amount, req.Reference, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req ledgerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.service.Withdraw(r.Context(), chi.URLParam(r, "userId"), req.Amount, req.Reference, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := s.service.GetUserInvestments(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investments)
}

func (s *Server) handleInvestmentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.GetInvestmentStats(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req createInvestmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	params := investment.CreateParams{
		UserId:         chi.URLParam(r, "userId"),
		PlanId:         req.PlanId,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	}

	create := s.service.CreateInvestment
	if req.FundFromBalance {
		create = s.service.CreateFundedInvestment
	}
	inv, err := create(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.GetInvestment(r.Context(), chi.URLParam(r, "investmentId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleRequestPaymentAddress(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.RequestPaymentAddress(r.Context(), chi.URLParam(r, "investmentId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleAttachPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentDetails
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	inv, err := s.service.AttachPayment(r.Context(), chi.URLParam(r, "investmentId"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	inv, err := s.service.ConfirmInvestmentPayment(r.Context(), chi.URLParam(r, "investmentId"), req.TransactionId, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleCompleteInvestment(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	inv, err := s.service.CompleteInvestment(r.Context(), chi.URLParam(r, "investmentId"), req.ActualReturn, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleCancelInvestment(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	inv, err := s.service.CancelInvestment(r.Context(), chi.URLParam(r, "investmentId"), req.Reason, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
