/**
 * @description
 * This file defines the closed enumerations used by the transactor core: the
 * kinds of transactions that can be processed, the payment networks they run
 * on, and the statuses a result can end in. It also defines the Capabilities
 * descriptor each gateway publishes to declare which (type, network) pairs it
 * is able to process.
 */

package transactor

// TransactionType identifies the kind of operation a transaction performs.
type TransactionType string

const (
	TypeSale     TransactionType = "sale"
	TypeAuth     TransactionType = "auth"
	TypeCapture  TransactionType = "capture"
	TypeCredit   TransactionType = "credit"
	TypeRefund   TransactionType = "refund"
	TypeVoid     TransactionType = "void"
	TypeQuery    TransactionType = "query"
	TypeUpdate   TransactionType = "update"
	TypeValidate TransactionType = "validate"
)

// ParseTransactionType returns the TransactionType for a wire string, or
// false when the value is not a member of the closed set.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case TypeSale, TypeAuth, TypeCapture, TypeCredit, TypeRefund, TypeVoid, TypeQuery, TypeUpdate, TypeValidate:
		return TransactionType(s), true
	}
	return "", false
}

// RequiresParent reports whether this transaction type acts on a prior
// transaction and therefore needs a parent holding an external id.
func (t TransactionType) RequiresParent() bool {
	return t == TypeCapture || t == TypeRefund || t == TypeVoid
}

// NetworkType identifies the payment network a transaction is submitted to.
type NetworkType string

const (
	NetworkCard  NetworkType = "card"
	NetworkACH   NetworkType = "ach"
	NetworkCash  NetworkType = "cash"
	NetworkCheck NetworkType = "check"
	NetworkToken NetworkType = "token"
)

// ParseNetworkType returns the NetworkType for a wire string, or false when
// the value is not a member of the closed set.
func ParseNetworkType(s string) (NetworkType, bool) {
	switch NetworkType(s) {
	case NetworkCard, NetworkACH, NetworkCash, NetworkCheck, NetworkToken:
		return NetworkType(s), true
	}
	return "", false
}

// ResultStatus is the normalized outcome taxonomy shared by every gateway.
type ResultStatus string

const (
	StatusPending  ResultStatus = "pending"
	StatusApproved ResultStatus = "approved"
	StatusDeclined ResultStatus = "declined"
	StatusError    ResultStatus = "error"
)

// Capabilities declares the transaction types and networks a gateway
// supports. It is a plain value returned by each gateway so that support
// checks never depend on shared mutable state.
type Capabilities struct {
	Types    []TransactionType
	Networks []NetworkType
}

// SupportsType reports whether the given type is in the allow-list. The zero
// TransactionType is never supported.
func (c Capabilities) SupportsType(t TransactionType) bool {
	if t == "" {
		return false
	}
	for _, candidate := range c.Types {
		if candidate == t {
			return true
		}
	}
	return false
}

// SupportsNetwork reports whether the given network is in the allow-list.
// The zero NetworkType is never supported.
func (c Capabilities) SupportsNetwork(n NetworkType) bool {
	if n == "" {
		return false
	}
	for _, candidate := range c.Networks {
		if candidate == n {
			return true
		}
	}
	return false
}
