package nmi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pocomos/transactor/pkg/transactor"
)

// ACHGateway processes ACH transactions against an NMI-style gateway. It
// accepts bank accounts and any bank account that already carries a vault
// token.
type ACHGateway struct {
	httpGateway
}

// NewACHGateway builds an ACH gateway around the given HTTP client. A nil
// client gets a default with a 30 second timeout.
func NewACHGateway(client *http.Client) *ACHGateway {
	return &ACHGateway{httpGateway: newHTTPGateway(client)}
}

func (g *ACHGateway) Name() string { return "nmi.ach" }

func (g *ACHGateway) Capabilities() transactor.Capabilities {
	return transactor.Capabilities{
		Types: []transactor.TransactionType{
			transactor.TypeSale,
			transactor.TypeAuth,
			transactor.TypeCapture,
			transactor.TypeCredit,
			transactor.TypeRefund,
			transactor.TypeVoid,
			transactor.TypeValidate,
		},
		Networks: []transactor.NetworkType{transactor.NetworkACH},
	}
}

func (g *ACHGateway) DefaultOptions() transactor.Options {
	return transactor.Options{PostURL: DefaultPostURL}
}

func (g *ACHGateway) Transact(ctx context.Context, tx *transactor.Transaction, opts transactor.Options) error {
	if err := g.validateTransaction(tx); err != nil {
		return err
	}
	params, err := g.buildParams(tx, opts)
	if err != nil {
		return err
	}
	reply := g.post(ctx, opts.PostURL, params)
	finalizeResult(tx.Result(), params, reply)
	return nil
}

func (g *ACHGateway) validateTransaction(tx *transactor.Transaction) error {
	if err := validateParent(tx); err != nil {
		return err
	}
	if err := validateCredentials(tx); err != nil {
		return err
	}
	if tx.Type.RequiresParent() {
		// Parent transactions reference the original by id; no account
		// data goes on the wire.
		return nil
	}
	if tx.Account == nil {
		return transactor.ErrMissingAccount()
	}
	if tx.Account.Token() != "" {
		return nil
	}

	account, ok := tx.Account.(*transactor.BankAccount)
	if !ok {
		return transactor.ErrInvalidAccountType(tx.Account)
	}
	if account.RoutingNumber == "" {
		return transactor.ErrMissingRequiredParameter("routing number")
	}
	if account.AccountNumber == "" {
		return transactor.ErrMissingRequiredParameter("account number")
	}
	return nil
}

func (g *ACHGateway) buildParams(tx *transactor.Transaction, opts transactor.Options) (url.Values, error) {
	params := baseParams(tx, opts)
	params.Set("payment", "check")

	if tx.Account == nil {
		return params, nil
	}
	if token := tx.Account.Token(); token != "" {
		params.Set("customer_vault_id", token)
		return params, nil
	}

	account, ok := tx.Account.(*transactor.BankAccount)
	if !ok {
		return nil, transactor.ErrInvalidAccountType(tx.Account)
	}

	params.Set("checkname", account.HolderName)
	params.Set("checkaba", account.RoutingNumber)
	params.Set("checkaccount", account.AccountNumber)
	if account.BusinessAccount {
		params.Set("account_holder_type", "business")
	} else {
		params.Set("account_holder_type", "personal")
	}
	accountType := account.AccountType
	if accountType == "" {
		accountType = transactor.BankAccountChecking
	}
	params.Set("account_type", string(accountType))
	return params, nil
}

// FilterResult redacts the routing and account numbers from the stored
// request data.
func (g *ACHGateway) FilterResult(result *transactor.Result) *transactor.Result {
	return redactRequest(result, "checkaba", "checkaccount")
}

func (g *ACHGateway) TokenFromResult(result *transactor.Result) (string, bool) {
	return vaultToken(result)
}
