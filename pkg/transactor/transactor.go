/**
 * @description
 * This file implements the Transactor, the orchestration layer every gateway
 * is driven through. The Transactor owns the transaction-processing state
 * machine: entry precondition checks, option resolution, the
 * tokenize-before-charge sub-workflow, delegation to the gateway, the error
 * boundary that folds downstream failures into an Error result, and the
 * redaction filter applied to every result before it is returned.
 *
 * Concurrency: a Transactor holds no per-call state of its own. Whether a
 * single instance may be shared across goroutines depends on the gateway it
 * wraps; the NMI gateways in this repository are safe for concurrent use.
 */

package transactor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// InternalErrorMessage is the generic user-facing message attached to results
// produced by the error boundary. The underlying error detail is preserved in
// the result's data bag, never in the message.
const InternalErrorMessage = "An internal error occurred while processing the transaction."

// Gateway is the extension point every concrete adapter implements. A
// Gateway finalizes the transaction's result during Transact; returning an
// error instead signals a failure the orchestrator converts into an Error
// result.
type Gateway interface {
	// Name identifies the gateway, e.g. "nmi.card".
	Name() string

	// Capabilities declares the (type, network) pairs this gateway accepts.
	Capabilities() Capabilities

	// DefaultOptions declares the gateway's configuration schema defaults.
	DefaultOptions() Options

	// Transact performs the gateway-specific processing and finalizes
	// tx.Result(). Validation and transport construction failures are
	// returned as errors; well-formed gateway refusals are recorded on the
	// result as Declined.
	Transact(ctx context.Context, tx *Transaction, opts Options) error

	// FilterResult redacts sensitive values from the result's stored
	// request data. It runs on every result returned by the orchestrator.
	FilterResult(result *Result) *Result

	// TokenFromResult extracts the gateway-issued token from a successful
	// tokenization result. ok is false when the reply carries no token.
	TokenFromResult(result *Result) (token string, ok bool)
}

// Transactor processes transactions through a single gateway.
type Transactor struct {
	gateway Gateway
}

// New wraps a gateway in the orchestration layer.
func New(gateway Gateway) *Transactor {
	return &Transactor{gateway: gateway}
}

// Name returns the wrapped gateway's name.
func (t *Transactor) Name() string { return t.gateway.Name() }

// SupportsType reports whether the gateway can process the given type.
func (t *Transactor) SupportsType(txType TransactionType) bool {
	return t.gateway.Capabilities().SupportsType(txType)
}

// SupportsNetwork reports whether the gateway can process the given network.
func (t *Transactor) SupportsNetwork(network NetworkType) bool {
	return t.gateway.Capabilities().SupportsNetwork(network)
}

// CreateCredentials produces an empty credentials bag scoped to this
// transactor, preloaded with the keys the gateway expects.
func (t *Transactor) CreateCredentials() *Credentials {
	credentials := NewCredentials(t.gateway.Name())
	credentials.Set("username", "")
	credentials.Set("password", "")
	return credentials
}

// Transact processes the transaction and returns its result.
//
// The preconditions are checked in order and fail fast before any side
// effect: the transaction must not have been processed, and its type and
// network must be in the gateway's allow-lists. These are the only failures
// returned as errors. Every later failure is converted into an Error result
// with a generic message and the error detail in the data bag, so Transact
// never errors past its own entry checks.
func (t *Transactor) Transact(ctx context.Context, tx *Transaction, rawOptions map[string]any) (*Result, error) {
	if tx.Transacted() {
		return nil, ErrAlreadyProcessed
	}
	if !t.SupportsType(tx.Type) {
		return nil, &UnsupportedTypeError{Type: tx.Type}
	}
	if !t.SupportsNetwork(tx.Network) {
		return nil, &UnsupportedNetworkError{Network: tx.Network}
	}

	// The flag is set once, here: whatever happens next counts as this
	// transaction's single processing attempt.
	tx.markTransacted()

	result := tx.Result()
	result.SetTransactorName(t.gateway.Name())

	outcome, err := t.process(ctx, tx, rawOptions)
	if err != nil {
		result.Status = StatusError
		// Validation reasons are safe to show the caller; everything else
		// gets the generic message with the detail kept in the data bag.
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			result.Message = validationErr.Reason
		} else {
			result.Message = InternalErrorMessage
		}
		result.SetData("message", err.Error())
		outcome = result
	}

	return t.gateway.FilterResult(outcome), nil
}

// process runs option resolution, the tokenization sub-workflow and the
// gateway delegation. The returned result is the outcome to surface: it is
// the transaction's own result, except when a failed tokenization attempt
// short-circuits the charge.
func (t *Transactor) process(ctx context.Context, tx *Transaction, rawOptions map[string]any) (*Result, error) {
	opts, err := resolveOptions(t.gateway.DefaultOptions(), rawOptions)
	if err != nil {
		return nil, err
	}

	if account := tx.Account; account != nil && account.Tokenizable() && account.Token() == "" {
		subResult, err := t.tokenizeBeforeCharge(ctx, tx, opts)
		if err != nil {
			return nil, err
		}
		if subResult.Status != StatusApproved {
			// The charge is never attempted; the tokenization outcome is
			// the outcome of the whole call.
			return subResult, nil
		}
	}

	opts.Tokenize = false
	if err := t.gateway.Transact(ctx, tx, opts); err != nil {
		return nil, err
	}
	return tx.Result(), nil
}

// tokenizeBeforeCharge runs the embedded tokenization sub-workflow: a
// synthetic Validate transaction of amount zero on the same account,
// credentials and network, with the tokenize option set. On approval the
// gateway-issued token is adopted onto the account exactly once.
func (t *Transactor) tokenizeBeforeCharge(ctx context.Context, tx *Transaction, opts Options) (*Result, error) {
	sub := NewTransaction(TypeValidate, tx.Network, 0, tx.Account, tx.Credentials)
	sub.markTransacted()
	sub.Result().SetTransactorName(t.gateway.Name())

	opts.Tokenize = true
	if err := t.gateway.Transact(ctx, sub, opts); err != nil {
		return nil, err
	}

	result := sub.Result()
	if result.Status != StatusApproved {
		return result, nil
	}

	token, ok := t.gateway.TokenFromResult(result)
	if !ok {
		return nil, errors.New("gateway approved tokenization but returned no token")
	}
	if err := tx.Account.adoptToken(token, time.Now().UTC()); err != nil {
		return nil, err
	}
	return result, nil
}

// TokenizeAccount exchanges the account's sensitive data for a gateway token
// by running a synthetic Validate transaction of amount zero under the
// account's own credentials. It returns the gateway's raw response data;
// which field of that data carries the token is gateway-specific.
func (t *Transactor) TokenizeAccount(ctx context.Context, account Account, rawOptions map[string]any) (map[string]string, error) {
	opts, err := resolveOptions(t.gateway.DefaultOptions(), rawOptions)
	if err != nil {
		return nil, err
	}

	if account == nil {
		return nil, ErrMissingAccount()
	}
	if !account.Tokenizable() {
		return nil, fmt.Errorf("account of type %T cannot be tokenized", account)
	}

	var network NetworkType
	switch account.(type) {
	case *BankAccount:
		network = NetworkACH
	case *CardAccount, *SwipedCardAccount:
		network = NetworkCard
	default:
		return nil, ErrInvalidAccountType(account)
	}

	sub := NewTransaction(TypeValidate, network, 0, account, AccountCredentials(account))
	sub.markTransacted()
	sub.Result().SetTransactorName(t.gateway.Name())

	opts.Tokenize = true
	if err := t.gateway.Transact(ctx, sub, opts); err != nil {
		return nil, err
	}
	return sub.Result().ResponseData(), nil
}
