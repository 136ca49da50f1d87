// Package httpapi exposes the vault engine over REST.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doa-network/staking-vault/internal/domain/stake"
	"github.com/doa-network/staking-vault/internal/metrics"
	"github.com/doa-network/staking-vault/internal/vault"
	"github.com/doa-network/staking-vault/pkg/logger"
)

// Engine is the surface of the vault engine the API depends on.
type Engine interface {
	Deposit(ctx context.Context, amount int64) (vault.DepositReceipt, error)
	Withdraw(ctx context.Context, positionID string) (vault.WithdrawalReceipt, error)
	Positions(ctx context.Context) ([]vault.PositionView, error)
	Balances(ctx context.Context) (vault.Balances, error)
}

// handler bundles the HTTP endpoints.
type handler struct {
	engine Engine
	log    *logger.Logger
}

// NewHandler returns a router exposing the vault REST API.
func NewHandler(engine Engine, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{engine: engine, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/deposit", h.deposit).Methods(http.MethodPost)
	api.HandleFunc("/positions", h.positions).Methods(http.MethodGet)
	api.HandleFunc("/positions/{id}/withdraw", h.withdraw).Methods(http.MethodPost)
	api.HandleFunc("/balance", h.balance).Methods(http.MethodGet)

	return metrics.InstrumentHandler(r)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) deposit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	receipt, err := h.engine.Deposit(r.Context(), payload.Amount)
	if err != nil {
		h.log.WithError(err).Warnf("deposit of %d rejected", payload.Amount)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *handler) withdraw(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	receipt, err := h.engine.Withdraw(r.Context(), id)
	if err != nil {
		h.log.WithError(err).Warnf("withdrawal of position %s rejected", id)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *handler) positions(w http.ResponseWriter, r *http.Request) {
	views, err := h.engine.Positions(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) balance(w http.ResponseWriter, r *http.Request) {
	balances, err := h.engine.Balances(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var txErr *stake.TransactionError
	switch {
	case errors.Is(err, stake.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, stake.ErrNotFound), errors.Is(err, stake.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, stake.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, stake.ErrAlreadySettled), errors.Is(err, stake.ErrWithdrawalLocked):
		return http.StatusConflict
	case errors.Is(err, stake.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.As(err, &txErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
