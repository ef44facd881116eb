package nmi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pocomos/transactor/pkg/transactor"
)

// TokenGateway processes transactions against an NMI-style customer vault
// using previously issued tokens. It never sees raw card or bank data and
// never tokenizes.
type TokenGateway struct {
	httpGateway
}

// NewTokenGateway builds a token gateway around the given HTTP client. A nil
// client gets a default with a 30 second timeout.
func NewTokenGateway(client *http.Client) *TokenGateway {
	return &TokenGateway{httpGateway: newHTTPGateway(client)}
}

func (g *TokenGateway) Name() string { return "nmi.token" }

func (g *TokenGateway) Capabilities() transactor.Capabilities {
	return transactor.Capabilities{
		Types: []transactor.TransactionType{
			transactor.TypeSale,
			transactor.TypeAuth,
			transactor.TypeCapture,
			transactor.TypeCredit,
			transactor.TypeRefund,
			transactor.TypeVoid,
		},
		Networks: []transactor.NetworkType{transactor.NetworkToken},
	}
}

func (g *TokenGateway) DefaultOptions() transactor.Options {
	return transactor.Options{PostURL: DefaultPostURL}
}

func (g *TokenGateway) Transact(ctx context.Context, tx *transactor.Transaction, opts transactor.Options) error {
	if err := g.validateTransaction(tx); err != nil {
		return err
	}
	params := g.buildParams(tx, opts)
	reply := g.post(ctx, opts.PostURL, params)
	finalizeResult(tx.Result(), params, reply)
	return nil
}

func (g *TokenGateway) validateTransaction(tx *transactor.Transaction) error {
	if err := validateParent(tx); err != nil {
		return err
	}
	if err := validateCredentials(tx); err != nil {
		return err
	}
	if tx.Type.RequiresParent() {
		// Parent transactions reference the original by id; no token
		// goes on the wire.
		return nil
	}
	if tx.Account == nil {
		return transactor.ErrMissingAccount()
	}
	if _, ok := tx.Account.(*transactor.TokenAccount); !ok {
		return transactor.ErrInvalidAccountType(tx.Account)
	}
	if tx.Account.Token() == "" {
		return transactor.ErrMissingRequiredParameter("account token")
	}
	return nil
}

func (g *TokenGateway) buildParams(tx *transactor.Transaction, opts transactor.Options) url.Values {
	params := baseParams(tx, opts)
	if tx.Account != nil && tx.Account.Token() != "" {
		params.Set("customer_vault_id", tx.Account.Token())
	}
	return params
}

// FilterResult redacts raw card fields if any are present. Token charges do
// not normally carry them, but the filter runs on every result.
func (g *TokenGateway) FilterResult(result *transactor.Result) *transactor.Result {
	return redactRequest(result, "ccnumber", "cvv", "track_1", "track_2", "track_3")
}

// TokenFromResult always reports no token: a token account is already the
// product of tokenization.
func (g *TokenGateway) TokenFromResult(result *transactor.Result) (string, bool) {
	return "", false
}
