package nmi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pocomos/transactor/pkg/transactor"
)

// CardGateway processes card-network transactions against an NMI-style
// gateway. It accepts keyed card accounts, swiped card accounts, and any
// card account that already carries a vault token.
type CardGateway struct {
	httpGateway
}

// NewCardGateway builds a card gateway around the given HTTP client. A nil
// client gets a default with a 30 second timeout.
func NewCardGateway(client *http.Client) *CardGateway {
	return &CardGateway{httpGateway: newHTTPGateway(client)}
}

func (g *CardGateway) Name() string { return "nmi.card" }

func (g *CardGateway) Capabilities() transactor.Capabilities {
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
		Networks: []transactor.NetworkType{transactor.NetworkCard},
	}
}

func (g *CardGateway) DefaultOptions() transactor.Options {
	return transactor.Options{PostURL: DefaultPostURL}
}

// Transact validates the transaction, posts it to the gateway and finalizes
// the result from the reply.
func (g *CardGateway) Transact(ctx context.Context, tx *transactor.Transaction, opts transactor.Options) error {
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

func (g *CardGateway) validateTransaction(tx *transactor.Transaction) error {
	if err := validateParent(tx); err != nil {
		return err
	}
	if err := validateCredentials(tx); err != nil {
		return err
	}
	if tx.Type.RequiresParent() {
		// Capture, refund and void reference the original transaction by
		// id; no account data goes on the wire.
		return nil
	}
	if tx.Account == nil {
		return transactor.ErrMissingAccount()
	}
	if tx.Account.Token() != "" {
		// Vault charge: the token stands in for the raw card data.
		return nil
	}

	switch account := tx.Account.(type) {
	case *transactor.CardAccount:
		if account.Number == "" {
			return transactor.ErrMissingRequiredParameter("account number")
		}
		if account.ExpMonth == 0 || account.ExpYear == 0 {
			return transactor.ErrMissingRequiredParameter("card expiration")
		}
	case *transactor.SwipedCardAccount:
		if account.Track1 == "" && account.Track2 == "" && account.Track3 == "" {
			return transactor.ErrMissingRequiredParameter("track data")
		}
	default:
		return transactor.ErrInvalidAccountType(tx.Account)
	}
	return nil
}

func (g *CardGateway) buildParams(tx *transactor.Transaction, opts transactor.Options) (url.Values, error) {
	params := baseParams(tx, opts)

	if tx.Account == nil {
		return params, nil
	}
	if token := tx.Account.Token(); token != "" {
		params.Set("customer_vault_id", token)
		return params, nil
	}

	switch account := tx.Account.(type) {
	case *transactor.CardAccount:
		params.Set("ccnumber", account.Number)
		params.Set("ccexp", fmt.Sprintf("%02d%02d", account.ExpMonth, account.ExpYear%100))
		if opts.EnableCVV && account.CVV != "" {
			params.Set("cvv", account.CVV)
		}
		if opts.EnableAVS {
			params.Set("address1", account.Address.Line1)
			params.Set("city", account.Address.City)
			params.Set("state", account.Address.State)
			params.Set("zip", account.Address.PostalCode)
			params.Set("country", account.Address.Country)
		}
	case *transactor.SwipedCardAccount:
		if account.Track1 != "" {
			params.Set("track_1", account.Track1)
		}
		if account.Track2 != "" {
			params.Set("track_2", account.Track2)
		}
		if account.Track3 != "" {
			params.Set("track_3", account.Track3)
		}
	default:
		return nil, transactor.ErrInvalidAccountType(tx.Account)
	}
	return params, nil
}

// FilterResult redacts the raw card fields from the stored request data.
func (g *CardGateway) FilterResult(result *transactor.Result) *transactor.Result {
	return redactRequest(result, "ccnumber", "cvv", "track_1", "track_2", "track_3")
}

// TokenFromResult extracts the vault id issued by a tokenization reply.
func (g *CardGateway) TokenFromResult(result *transactor.Result) (string, bool) {
	return vaultToken(result)
}
