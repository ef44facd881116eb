/**
 * @description
 * This file defines the error taxonomy of the transactor core. Precondition
 * errors are the only errors Transact lets escape to the caller; every other
 * failure (validation, option resolution, tokenization, transport) is folded
 * into an Error result by the orchestrator's error boundary.
 */

package transactor

import (
	"errors"
	"fmt"
)

// ErrAlreadyProcessed is returned when Transact is called a second time on
// the same Transaction instance.
var ErrAlreadyProcessed = errors.New("transaction has already been processed")

// UnsupportedTypeError is returned when the transactor's capabilities do not
// include the transaction's type.
type UnsupportedTypeError struct {
	Type TransactionType
}

func (e *UnsupportedTypeError) Error() string {
	if e.Type == "" {
		return "transaction type is not set"
	}
	return fmt.Sprintf("transaction type %q is not supported by this transactor", e.Type)
}

// UnsupportedNetworkError is returned when the transactor's capabilities do
// not include the transaction's network.
type UnsupportedNetworkError struct {
	Network NetworkType
}

func (e *UnsupportedNetworkError) Error() string {
	if e.Network == "" {
		return "transaction network is not set"
	}
	return fmt.Sprintf("network %q is not supported by this transactor", e.Network)
}

// ValidationError reports a transaction that a gateway refused to process
// before any network activity, such as missing credentials or a missing
// parent. It never escapes Transact; the orchestrator converts it into an
// Error result.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validation error constructors shared by the gateway implementations.

func ErrMissingCredentials() *ValidationError {
	return &ValidationError{Reason: "credentials are required to process this transaction"}
}

func ErrMissingAccount() *ValidationError {
	return &ValidationError{Reason: "account information is required to process this transaction"}
}

func ErrInvalidAccountType(account Account) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf("account of type %T cannot be processed by this transactor", account)}
}

func ErrMissingRequiredParameter(name string) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf("missing required parameter: %s", name)}
}

func ErrParentTransactionRequired() *ValidationError {
	return &ValidationError{Reason: "a parent transaction is required to process this transaction"}
}
