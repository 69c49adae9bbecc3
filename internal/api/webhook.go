package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rollhouse/ledgerd/internal/repos/users"
	"github.com/rollhouse/ledgerd/internal/services/deposits"
)

// SignatureHeader carries the hex HMAC of the canonical payload.
const SignatureHeader = "X-Payload-Signature"

type WebhookHandler struct {
	reconciler *deposits.Reconciler
}

func NewWebhookHandler(reconciler *deposits.Reconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// DepositHandler handles POST /webhook/deposit.
//
// Every 2xx tells the sender to stop redelivering: processed, pending
// and duplicate all count. 5xx asks for a retry; nothing else does.
func (h *WebhookHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	var payload deposits.Payload

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(&payload)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return
		}

		writeError(w, http.StatusBadRequest, "invalid JSON")

		return
	}

	res, err := h.reconciler.Process(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, deposits.ErrInvalidSignature):
			writeError(w, http.StatusForbidden, "invalid signature")
		case errors.Is(err, deposits.ErrInvalidPayload),
			errors.Is(err, deposits.ErrUnsupportedCurrency):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, users.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "no user for deposit address")
		default:
			slog.Error("deposit webhook failed", "tx_id", payload.TxID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(res.Status)})
}
