/**
 * @description
 * This file defines the domain models for the transactor service: the
 * persisted payment record created for every processed transaction, the
 * vault account record holding gateway-issued tokens, and the DTOs used by
 * the API layer.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (cents),
 *   which avoids floating-point inaccuracies with financial data.
 * - The request/response bags persisted on a PaymentRecord are the redacted
 *   diagnostics from the gateway result; merchant credentials are stripped
 *   before persistence.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentRecord is the persisted outcome of one processed transaction. It
// maps directly to the `payment_records` table.
type PaymentRecord struct {
	ID         uuid.UUID  `json:"id"`
	MerchantID string     `json:"merchant_id"`
	Type       string     `json:"type"`
	Network    string     `json:"network"`
	Amount     int64      `json:"amount"` // in cents
	Status     string     `json:"status"`
	Message    string     `json:"message,omitempty"`
	ExternalID *string    `json:"external_id,omitempty"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	// RequestData and ResponseData carry the redacted gateway diagnostics.
	RequestData  map[string]string `json:"request_data,omitempty"`
	ResponseData map[string]string `json:"response_data,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// VaultAccount is a persisted reference to a gateway-vaulted payment method.
// Only the token and non-sensitive display fields are stored; the raw card
// or bank data never reaches the database.
type VaultAccount struct {
	ID           uuid.UUID `json:"id"`
	MerchantID   string    `json:"merchant_id"`
	Network      string    `json:"network"`
	HolderName   string    `json:"holder_name,omitempty"`
	MaskedNumber string    `json:"masked_number,omitempty"`
	Token        string    `json:"-"`
	TokenizedAt  time.Time `json:"tokenized_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// CardPayload is the raw card data accepted inline on a charge or tokenize
// request. It is passed to the gateway and never persisted.
type CardPayload struct {
	HolderName string `json:"holder_name"`
	Number     string `json:"number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVV        string `json:"cvv,omitempty"`
	Address1   string `json:"address1,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Zip        string `json:"zip,omitempty"`
	Country    string `json:"country,omitempty"`
}

// BankPayload is the raw bank account data accepted inline on a charge or
// tokenize request.
type BankPayload struct {
	HolderName      string `json:"holder_name"`
	RoutingNumber   string `json:"routing_number"`
	AccountNumber   string `json:"account_number"`
	AccountType     string `json:"account_type,omitempty"` // checking or savings
	BusinessAccount bool   `json:"business_account,omitempty"`
}

// ChargeRequest is the DTO for the charge endpoint. Exactly one of AccountID
// (a stored vault account), Card, or Bank identifies the funding source;
// cash and check charges carry none.
type ChargeRequest struct {
	Type      string         `json:"type"`
	Network   string         `json:"network"`
	Amount    int64          `json:"amount"` // in cents
	AccountID *uuid.UUID     `json:"account_id,omitempty"`
	Card      *CardPayload   `json:"card,omitempty"`
	Bank      *BankPayload   `json:"bank,omitempty"`
	ParentID  *uuid.UUID     `json:"parent_id,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// TokenizeRequest is the DTO for enrolling a payment method in the gateway
// vault without charging it.
type TokenizeRequest struct {
	Card *CardPayload `json:"card,omitempty"`
	Bank *BankPayload `json:"bank,omitempty"`
}
