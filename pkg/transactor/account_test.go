package transactor

import (
	"errors"
	"testing"
	"time"
)

func TestTokenAdoptionHappensAtMostOnce(t *testing.T) {
	account := &CardAccount{Number: "4111111111111111", ExpMonth: 9, ExpYear: 2028}
	issuedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if err := account.adoptToken("vault-1", issuedAt); err != nil {
		t.Fatalf("first adoption failed: %v", err)
	}
	if account.Token() != "vault-1" {
		t.Errorf("expected token %q, got %q", "vault-1", account.Token())
	}
	if !account.TokenIssuedAt().Equal(issuedAt) {
		t.Errorf("expected issue time %v, got %v", issuedAt, account.TokenIssuedAt())
	}

	if err := account.adoptToken("vault-2", time.Now().UTC()); !errors.Is(err, ErrTokenAlreadySet) {
		t.Fatalf("expected ErrTokenAlreadySet, got %v", err)
	}
	if account.Token() != "vault-1" {
		t.Errorf("a failed adoption must not replace the token, got %q", account.Token())
	}
}

func TestTokenAccountIsNotTokenizable(t *testing.T) {
	account := NewTokenAccount("vault-7", time.Now().UTC())
	if account.Tokenizable() {
		t.Error("a token account is already the product of tokenization")
	}
	if account.Token() != "vault-7" {
		t.Errorf("expected token %q, got %q", "vault-7", account.Token())
	}
}

func TestAccountCredentialsDispatch(t *testing.T) {
	credentials := NewCredentials("nmi.card")

	tests := []struct {
		name    string
		account Account
	}{
		{"bank account", &BankAccount{Credentials: credentials}},
		{"card account", &CardAccount{Credentials: credentials}},
		{"swiped card account", &SwipedCardAccount{Credentials: credentials}},
		{"token account", &TokenAccount{Credentials: credentials}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AccountCredentials(tc.account); got != credentials {
				t.Errorf("expected the enrolled credentials back, got %v", got)
			}
		})
	}
}
