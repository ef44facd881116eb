/**
 * @description
 * This file defines the Account variants a transaction can draw funds from.
 * Account is a sealed interface: the four concrete variants in this package
 * are the only implementations, which lets gateways dispatch on the variant
 * with a type switch instead of reflective type inspection.
 *
 * Every variant carries token state. A gateway-issued token is adopted at
 * most once, during a successful tokenization step; the core never clears or
 * replaces an existing token.
 */

package transactor

import (
	"errors"
	"time"
)

// ErrTokenAlreadySet is returned when a second token adoption is attempted
// on an account that already holds one.
var ErrTokenAlreadySet = errors.New("account already holds a token")

// Account is the capability surface shared by all account variants.
type Account interface {
	// Tokenizable reports whether this account's sensitive data can be
	// exchanged for a reusable gateway token.
	Tokenizable() bool

	// Token returns the gateway-issued token, or "" when none has been
	// adopted yet.
	Token() string

	// TokenIssuedAt returns the adoption timestamp of the token. The zero
	// time means no token is held.
	TokenIssuedAt() time.Time

	// adoptToken is unexported to seal the variant set to this package.
	adoptToken(token string, issuedAt time.Time) error
}

// TokenState holds the tokenization state embedded in every account variant.
type TokenState struct {
	token    string
	issuedAt time.Time
}

// Token returns the adopted token, or "" when the account is untokenized.
func (s *TokenState) Token() string { return s.token }

// TokenIssuedAt returns when the token was adopted.
func (s *TokenState) TokenIssuedAt() time.Time { return s.issuedAt }

func (s *TokenState) adoptToken(token string, issuedAt time.Time) error {
	if s.token != "" {
		return ErrTokenAlreadySet
	}
	s.token = token
	s.issuedAt = issuedAt
	return nil
}

// BankAccountType distinguishes checking from savings accounts on the ACH
// network.
type BankAccountType string

const (
	BankAccountChecking BankAccountType = "checking"
	BankAccountSavings  BankAccountType = "savings"
)

// BankAccount holds the routing and account numbers for an ACH transaction.
type BankAccount struct {
	TokenState

	HolderName    string
	RoutingNumber string
	AccountNumber string
	AccountType   BankAccountType
	// BusinessAccount selects the account holder type sent to the gateway.
	BusinessAccount bool

	// Credentials the account was enrolled under, used when tokenizing the
	// account outside the context of a charge.
	Credentials *Credentials
}

func (a *BankAccount) Tokenizable() bool { return true }

// Address carries the verification fields sent when AVS is enabled.
type Address struct {
	Line1      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// CardAccount holds raw card data for a card-network transaction.
type CardAccount struct {
	TokenState

	HolderName string
	Number     string
	ExpMonth   int
	ExpYear    int
	CVV        string
	Address    Address

	Credentials *Credentials
}

func (a *CardAccount) Tokenizable() bool { return true }

// SwipedCardAccount holds raw magnetic track data captured at a terminal.
// Number and expiration are not required; the track data carries them.
type SwipedCardAccount struct {
	TokenState

	HolderName string
	Track1     string
	Track2     string
	Track3     string

	Credentials *Credentials
}

func (a *SwipedCardAccount) Tokenizable() bool { return true }

// TokenAccount references a previously issued gateway vault token. It is
// already the product of tokenization, so it is never tokenized again.
type TokenAccount struct {
	TokenState

	Credentials *Credentials
}

// NewTokenAccount builds a TokenAccount around an existing gateway token.
func NewTokenAccount(token string, issuedAt time.Time) *TokenAccount {
	a := &TokenAccount{}
	a.token = token
	a.issuedAt = issuedAt
	return a
}

func (a *TokenAccount) Tokenizable() bool { return false }

// AccountCredentials returns the credentials an account was enrolled under.
// Dispatch is an explicit variant match; the Account set is sealed to this
// package.
func AccountCredentials(account Account) *Credentials {
	switch v := account.(type) {
	case *BankAccount:
		return v.Credentials
	case *CardAccount:
		return v.Credentials
	case *SwipedCardAccount:
		return v.Credentials
	case *TokenAccount:
		return v.Credentials
	default:
		return nil
	}
}
