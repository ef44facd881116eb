/**
 * @description
 * This file defines the Transaction unit of work and its owned Result. A
 * Transaction is built by the caller, handed to a Transactor exactly once,
 * and carries its Result for the rest of its life. The Result starts out
 * Pending, is finalized by the gateway during processing, and is passed
 * through the gateway's redaction filter before it reaches the caller.
 */

package transactor

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is the unit of work submitted to a Transactor.
type Transaction struct {
	ID          uuid.UUID
	Type        TransactionType
	Network     NetworkType
	Amount      int64 // smallest currency unit
	Account     Account
	Credentials *Credentials

	// Parent links Capture/Refund/Void transactions to the transaction
	// whose external id they act on.
	Parent *Transaction

	CreatedAt time.Time

	transacted bool
	result     *Result
}

// NewTransaction builds a transaction with a fresh Pending result attached.
func NewTransaction(txType TransactionType, network NetworkType, amount int64, account Account, credentials *Credentials) *Transaction {
	tx := &Transaction{
		ID:          uuid.New(),
		Type:        txType,
		Network:     network,
		Amount:      amount,
		Account:     account,
		Credentials: credentials,
		CreatedAt:   time.Now().UTC(),
	}
	tx.result = newResult(tx)
	return tx
}

// Result returns the result owned by this transaction.
func (t *Transaction) Result() *Result { return t.result }

// Transacted reports whether this transaction has already been processed.
func (t *Transaction) Transacted() bool { return t.transacted }

// markTransacted records that processing has begun. It is set exactly once,
// by the orchestrator, as soon as the entry preconditions pass.
func (t *Transaction) markTransacted() { t.transacted = true }

// Result records the outcome of a single processing attempt.
type Result struct {
	Status     ResultStatus
	Message    string
	ExternalID string

	transaction    *Transaction
	transactorName string
	data           map[string]any
}

func newResult(tx *Transaction) *Result {
	return &Result{
		Status:      StatusPending,
		transaction: tx,
		data:        make(map[string]any),
	}
}

// Transaction returns the transaction this result belongs to.
func (r *Result) Transaction() *Transaction { return r.transaction }

// TransactorName identifies the transactor that produced this result.
func (r *Result) TransactorName() string { return r.transactorName }

// SetTransactorName records which transactor produced this result.
func (r *Result) SetTransactorName(name string) { r.transactorName = name }

// Data returns the diagnostic value stored under key, or nil.
func (r *Result) Data(key string) any { return r.data[key] }

// SetData stores a diagnostic value in the side-channel data bag. The bag
// carries the raw outbound request and inbound response for later debugging;
// sensitive request fields are redacted before the result leaves the
// transactor.
func (r *Result) SetData(key string, value any) { r.data[key] = value }

// DataBag returns the full side-channel bag.
func (r *Result) DataBag() map[string]any { return r.data }

// RequestData returns the stored outbound request parameters, if any.
func (r *Result) RequestData() map[string]string {
	params, _ := r.data["request"].(map[string]string)
	return params
}

// ResponseData returns the stored parsed gateway reply, if any.
func (r *Result) ResponseData() map[string]string {
	reply, _ := r.data["response"].(map[string]string)
	return reply
}
