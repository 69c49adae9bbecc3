package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rollhouse/ledgerd/internal/amount"
	"github.com/rollhouse/ledgerd/internal/services/casino"
)

// CommandHandler exposes the structured command interface the chat
// front end calls into.
type CommandHandler struct {
	svc *casino.Service
}

func NewCommandHandler(svc *casino.Service) *CommandHandler {
	return &CommandHandler{svc: svc}
}

func (h *CommandHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return false
		}

		writeError(w, http.StatusBadRequest, "invalid JSON")

		return false
	}

	return true
}

// formatBalances renders minor units as decimal strings per asset.
func formatBalances(balances map[string]int64) map[string]string {
	out := make(map[string]string, len(balances))
	for asset, v := range balances {
		out[asset] = amount.FormatMinor(v)
	}

	return out
}

// StartHandler handles POST /user/{userId}/start
func (h *CommandHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	created, err := h.svc.Start(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := "already_registered"
	if created {
		status = "registered"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId": userID,
		"status": status,
	})
}

// BalanceHandler handles GET /user/{userId}/balance
func (h *CommandHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	balances, err := h.svc.Balances(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":   userID,
		"balances": formatBalances(balances),
	})
}

type rollRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// RollHandler handles POST /user/{userId}/roll
func (h *CommandHandler) RollHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req rollRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	bet, err := amount.ParseMinor(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Roll(r.Context(), userID, req.Asset, bet)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	outcome := "lose"
	if res.Won {
		outcome = "win"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":     userID,
		"asset":      res.Asset,
		"dice":       []int{res.DiceA, res.DiceB},
		"total":      res.Total,
		"outcome":    outcome,
		"delta":      amount.FormatMinor(res.Delta),
		"newBalance": amount.FormatMinor(res.NewBalance),
	})
}

type depositRequest struct {
	Asset string `json:"asset"`
}

// DepositHandler handles POST /user/{userId}/deposit
func (h *CommandHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req depositRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	address, err := h.svc.DepositAddress(r.Context(), userID, req.Asset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":  userID,
		"asset":   req.Asset,
		"address": address,
	})
}

type withdrawRequest struct {
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
	Address string `json:"address"`
}

// WithdrawHandler handles POST /user/{userId}/withdraw
func (h *CommandHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req withdrawRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	amt, err := amount.ParseMinor(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "destination address required")
		return
	}

	newBalance, err := h.svc.Withdraw(r.Context(), userID, req.Asset, amt, req.Address)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":     userID,
		"asset":      req.Asset,
		"amount":     amount.FormatMinor(amt),
		"newBalance": amount.FormatMinor(newBalance),
	})
}
