/**
 * @description
 * This package implements the manual transactor for in-person cash and check
 * payments. There is no gateway behind it: a transaction that passes
 * validation is immediately approved, giving point-of-sale flows the same
 * uniform Result as the networked gateways.
 */

package generic

import (
	"context"

	"github.com/pocomos/transactor/pkg/transactor"
)

// Gateway approves cash and check transactions without a network call.
type Gateway struct{}

// New builds the manual gateway.
func New() *Gateway {
	return &Gateway{}
}

func (g *Gateway) Name() string { return "generic.manual" }

func (g *Gateway) Capabilities() transactor.Capabilities {
	return transactor.Capabilities{
		Types: []transactor.TransactionType{
			transactor.TypeSale,
			transactor.TypeCredit,
			transactor.TypeRefund,
		},
		Networks: []transactor.NetworkType{
			transactor.NetworkCash,
			transactor.NetworkCheck,
		},
	}
}

func (g *Gateway) DefaultOptions() transactor.Options {
	return transactor.Options{}
}

// Transact validates the parent requirement and marks the transaction
// approved. Sale transactions stand alone; refunds must reference the
// transaction they reverse.
func (g *Gateway) Transact(ctx context.Context, tx *transactor.Transaction, opts transactor.Options) error {
	if tx.Type.RequiresParent() && tx.Parent == nil {
		return transactor.ErrParentTransactionRequired()
	}

	tx.Result().Status = transactor.StatusApproved
	return nil
}

// FilterResult is a no-op: manual transactions carry no wire request.
func (g *Gateway) FilterResult(result *transactor.Result) *transactor.Result {
	return result
}

// TokenFromResult always reports no token; cash and check accounts are not
// tokenizable.
func (g *Gateway) TokenFromResult(result *transactor.Result) (string, bool) {
	return "", false
}
