/**
 * @description
 * This file contains the HTTP handlers for the transactor service's API
 * endpoints. Handlers are responsible for parsing incoming requests, calling
 * the appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pocomos/transactor/internal/app"
	"github.com/pocomos/transactor/internal/domain"
	"github.com/pocomos/transactor/internal/store"
	"github.com/pocomos/transactor/pkg/transactor"
)

// ChargeHandlers holds the application service that handlers will use.
type ChargeHandlers struct {
	service *app.Service
}

// NewChargeHandlers creates a new instance of ChargeHandlers.
func NewChargeHandlers(service *app.Service) *ChargeHandlers {
	return &ChargeHandlers{service: service}
}

// chargeResponse is sent back to the merchant after a charge request has
// been processed. Declined and errored charges use the same shape; the
// status field carries the normalized outcome.
type chargeResponse struct {
	ChargeID   string  `json:"charge_id"`
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	Type       string  `json:"type"`
	Network    string  `json:"network"`
	Amount     int64   `json:"amount"`
	ExternalID *string `json:"external_id,omitempty"`
	ParentID   *string `json:"parent_id,omitempty"`
	AccountID  *string `json:"account_id,omitempty"`
}

func buildChargeResponse(record *domain.PaymentRecord) chargeResponse {
	resp := chargeResponse{
		ChargeID:   record.ID.String(),
		Status:     record.Status,
		Message:    record.Message,
		Type:       record.Type,
		Network:    record.Network,
		Amount:     record.Amount,
		ExternalID: record.ExternalID,
	}
	if record.ParentID != nil {
		parentID := record.ParentID.String()
		resp.ParentID = &parentID
	}
	if record.AccountID != nil {
		accountID := record.AccountID.String()
		resp.AccountID = &accountID
	}
	return resp
}

// CreateChargeHandler handles requests to process a transaction.
func (h *ChargeHandlers) CreateChargeHandler(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := GetMerchantID(r.Context())
	if !ok {
		http.Error(w, "Could not get merchant ID from context", http.StatusInternalServerError)
		return
	}

	var req domain.ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.service.ProcessCharge(r.Context(), merchantID, r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		h.writeChargeError(w, r, merchantID, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, buildChargeResponse(record))
}

func (h *ChargeHandlers) writeChargeError(w http.ResponseWriter, r *http.Request, merchantID string, err error) {
	var unsupportedType *transactor.UnsupportedTypeError
	var unsupportedNetwork *transactor.UnsupportedNetworkError

	switch {
	case errors.Is(err, app.ErrUnknownTransactionType),
		errors.Is(err, app.ErrUnknownNetwork),
		errors.Is(err, app.ErrAmountNegative),
		errors.Is(err, app.ErrAccountPayloadMissing):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unsupportedType), errors.As(err, &unsupportedNetwork),
		errors.Is(err, app.ErrNoTransactorForNetwork),
		errors.Is(err, app.ErrParentNotSettled):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, app.ErrIdempotencyInFlight):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrPaymentRecordNotFound):
		h.writeError(w, http.StatusUnprocessableEntity, "Parent transaction not found")
	case errors.Is(err, store.ErrVaultAccountNotFound):
		h.writeError(w, http.StatusUnprocessableEntity, "Vault account not found")
	default:
		log.Printf("level=error component=api endpoint=create_charge merchant_id=%s err=%v", merchantID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to process charge")
	}
}

// GetChargeHandler returns a previously processed charge.
func (h *ChargeHandlers) GetChargeHandler(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := GetMerchantID(r.Context())
	if !ok {
		http.Error(w, "Could not get merchant ID from context", http.StatusInternalServerError)
		return
	}

	chargeID, err := uuid.Parse(chi.URLParam(r, "chargeID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid charge id")
		return
	}

	record, err := h.service.GetCharge(r.Context(), merchantID, chargeID)
	if err != nil {
		if errors.Is(err, store.ErrPaymentRecordNotFound) {
			h.writeError(w, http.StatusNotFound, "Charge not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_charge merchant_id=%s err=%v", merchantID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch charge")
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

// ListChargesHandler returns a page of the merchant's charges.
func (h *ChargeHandlers) ListChargesHandler(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := GetMerchantID(r.Context())
	if !ok {
		http.Error(w, "Could not get merchant ID from context", http.StatusInternalServerError)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.service.ListCharges(r.Context(), merchantID, limit, offset)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_charges merchant_id=%s err=%v", merchantID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list charges")
		return
	}
	if records == nil {
		records = []domain.PaymentRecord{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"charges": records})
}

// TokenizeAccountHandler enrolls a payment method in the gateway vault.
func (h *ChargeHandlers) TokenizeAccountHandler(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := GetMerchantID(r.Context())
	if !ok {
		http.Error(w, "Could not get merchant ID from context", http.StatusInternalServerError)
		return
	}

	var req domain.TokenizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.TokenizeAccount(r.Context(), merchantID, req)
	if err != nil {
		var rejected *app.TokenizationRejectedError
		switch {
		case errors.Is(err, app.ErrAccountPayloadMissing):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &rejected):
			h.writeError(w, http.StatusUnprocessableEntity, rejected.Error())
		default:
			log.Printf("level=error component=api endpoint=tokenize_account merchant_id=%s err=%v", merchantID, err)
			h.writeError(w, http.StatusInternalServerError, "Unable to tokenize account")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, account)
}

// GetAccountHandler returns a stored vault account reference.
func (h *ChargeHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := GetMerchantID(r.Context())
	if !ok {
		http.Error(w, "Could not get merchant ID from context", http.StatusInternalServerError)
		return
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	account, err := h.service.GetVaultAccount(r.Context(), merchantID, accountID)
	if err != nil {
		if errors.Is(err, store.ErrVaultAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_account merchant_id=%s err=%v", merchantID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch account")
		return
	}

	h.writeJSON(w, http.StatusOK, account)
}

func (h *ChargeHandlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *ChargeHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
