package nmi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pocomos/transactor/pkg/transactor"
)

// gatewayServer records the last form posted to it and replies with a fixed
// URL-encoded body.
type gatewayServer struct {
	*httptest.Server
	lastRequest url.Values
}

func newGatewayServer(t *testing.T, reply string) *gatewayServer {
	t.Helper()
	gs := &gatewayServer{}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("unparsable request form: %v", err)
		}
		gs.lastRequest = r.PostForm
		w.Write([]byte(reply))
	}))
	t.Cleanup(gs.Close)
	return gs
}

func cardCredentials() *transactor.Credentials {
	credentials := transactor.NewCredentials("nmi.card")
	credentials.Set("username", "merchant")
	credentials.Set("password", "secret")
	return credentials
}

func testCardAccount() *transactor.CardAccount {
	return &transactor.CardAccount{
		HolderName: "Jane Doe",
		Number:     "4111111111111111",
		ExpMonth:   9,
		ExpYear:    2028,
		CVV:        "123",
		Address: transactor.Address{
			Line1:      "1 Main St",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62701",
			Country:    "US",
		},
	}
}

func transactOnce(t *testing.T, gateway transactor.Gateway, tx *transactor.Transaction, postURL string, opts transactor.Options) *transactor.Result {
	t.Helper()
	opts.PostURL = postURL
	if err := gateway.Transact(context.Background(), tx, opts); err != nil {
		t.Fatalf("transact failed: %v", err)
	}
	return tx.Result()
}

func TestCardGatewayApprovedSale(t *testing.T) {
	server := newGatewayServer(t, "response=1&responsetext=SUCCESS&transactionid=2984197621&authcode=123456")
	gateway := NewCardGateway(server.Client())

	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, testCardAccount(), cardCredentials())
	result := transactOnce(t, gateway, tx, server.URL, transactor.Options{EnableCVV: true, EnableAVS: true})

	if result.Status != transactor.StatusApproved {
		t.Fatalf("expected approval, got %q: %s", result.Status, result.Message)
	}
	if result.ExternalID != "2984197621" {
		t.Errorf("expected external id from transactionid, got %q", result.ExternalID)
	}

	sent := server.lastRequest
	checks := map[string]string{
		"type":     "sale",
		"username": "merchant",
		"password": "secret",
		"amount":   "10.50",
		"ccnumber": "4111111111111111",
		"ccexp":    "0928",
		"cvv":      "123",
		"address1": "1 Main St",
		"zip":      "62701",
	}
	for key, want := range checks {
		if got := sent.Get(key); got != want {
			t.Errorf("request %s = %q, want %q", key, got, want)
		}
	}
}

func TestCardGatewayDecline(t *testing.T) {
	server := newGatewayServer(t, "response=2&responsetext=DECLINED&transactionid=2984197622")
	gateway := NewCardGateway(server.Client())

	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, testCardAccount(), cardCredentials())
	result := transactOnce(t, gateway, tx, server.URL, transactor.Options{})

	if result.Status != transactor.StatusDeclined {
		t.Fatalf("expected decline, got %q", result.Status)
	}
	if result.Message != "DECLINED" {
		t.Errorf("expected responsetext as message, got %q", result.Message)
	}
	if result.ExternalID != "2984197622" {
		t.Errorf("declines still carry the gateway id, got %q", result.ExternalID)
	}
}

func TestCardGatewayUnknownResponseCode(t *testing.T) {
	server := newGatewayServer(t, "response=3")
	gateway := NewCardGateway(server.Client())

	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, testCardAccount(), cardCredentials())
	result := transactOnce(t, gateway, tx, server.URL, transactor.Options{})

	if result.Status != transactor.StatusError {
		t.Fatalf("expected error status, got %q", result.Status)
	}
	if result.Message != gatewayErrorMessage {
		t.Errorf("expected the fallback message, got %q", result.Message)
	}
}

func TestCardGatewayTransportFailure(t *testing.T) {
	server := newGatewayServer(t, "")
	server.Close()
	gateway := NewCardGateway(&http.Client{Timeout: time.Second})

	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, testCardAccount(), cardCredentials())
	result := transactOnce(t, gateway, tx, server.URL, transactor.Options{})

	if result.Status != transactor.StatusError {
		t.Fatalf("expected error status, got %q", result.Status)
	}
	reply := result.ResponseData()
	if reply["response"] != "3" {
		t.Errorf("transport failures synthesize response=3, got %q", reply["response"])
	}
	if reply["message"] == "" {
		t.Error("transport failures must preserve the failure detail")
	}
}

func TestCardGatewayRedactsSensitiveRequestFields(t *testing.T) {
	server := newGatewayServer(t, "response=1&transactionid=1")
	gateway := NewCardGateway(server.Client())

	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, testCardAccount(), cardCredentials())
	result := gateway.FilterResult(transactOnce(t, gateway, tx, server.URL, transactor.Options{EnableCVV: true}))

	request := result.RequestData()
	for _, key := range []string{"ccnumber", "cvv"} {
		if request[key] != RedactedValue {
			t.Errorf("request %s = %q, want %q", key, request[key], RedactedValue)
		}
	}
	if request["amount"] != "10.50" {
		t.Errorf("non-sensitive keys must stay untouched, amount = %q", request["amount"])
	}
	if _, ok := request["track_1"]; ok {
		t.Error("absent keys must stay absent after redaction")
	}
}

func TestCardGatewaySwipedTracks(t *testing.T) {
	server := newGatewayServer(t, "response=1&transactionid=1")
	gateway := NewCardGateway(server.Client())

	account := &transactor.SwipedCardAccount{Track1: "%B4111111111111111^DOE/JANE^2809?", Track2: ";4111111111111111=2809?"}
	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, account, cardCredentials())
	result := gateway.FilterResult(transactOnce(t, gateway, tx, server.URL, transactor.Options{}))

	sent := server.lastRequest
	if sent.Get("track_1") == "" || sent.Get("track_2") == "" {
		t.Error("present track data must be sent")
	}
	if sent.Has("track_3") {
		t.Error("empty tracks must be omitted")
	}
	if sent.Has("ccnumber") {
		t.Error("swiped transactions carry no ccnumber")
	}

	request := result.RequestData()
	if request["track_1"] != RedactedValue || request["track_2"] != RedactedValue {
		t.Error("track data must be redacted from the stored request")
	}
}

func TestCardGatewayTokenizationRequest(t *testing.T) {
	server := newGatewayServer(t, "response=1&transactionid=1&customer_vault_id=vault-42")
	gateway := NewCardGateway(server.Client())

	tx := transactor.NewTransaction(transactor.TypeValidate, transactor.NetworkCard, 0, testCardAccount(), cardCredentials())
	result := transactOnce(t, gateway, tx, server.URL, transactor.Options{Tokenize: true})

	if got := server.lastRequest.Get("customer_vault"); got != "add_customer" {
		t.Errorf("tokenization must request vault storage, got %q", got)
	}
	token, ok := gateway.TokenFromResult(result)
	if !ok || token != "vault-42" {
		t.Errorf("expected vault token %q, got %q (ok=%v)", "vault-42", token, ok)
	}
}

func TestCardGatewayVaultCharge(t *testing.T) {
	server := newGatewayServer(t, "response=1&transactionid=1")
	gateway := NewCardGateway(server.Client())

	account := transactor.NewTokenAccount("vault-42", time.Now().UTC())
	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, account, cardCredentials())
	transactOnce(t, gateway, tx, server.URL, transactor.Options{})

	sent := server.lastRequest
	if got := sent.Get("customer_vault_id"); got != "vault-42" {
		t.Errorf("expected vault id, got %q", got)
	}
	if sent.Has("ccnumber") {
		t.Error("vault charges carry no raw card data")
	}
}

func TestCardGatewayParentTransactions(t *testing.T) {
	server := newGatewayServer(t, "response=1&transactionid=2")
	gateway := NewCardGateway(server.Client())

	parent := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, testCardAccount(), cardCredentials())
	parent.Result().ExternalID = "2984197621"

	refund := transactor.NewTransaction(transactor.TypeRefund, transactor.NetworkCard, 1050, nil, cardCredentials())
	refund.Parent = parent
	transactOnce(t, gateway, refund, server.URL, transactor.Options{})

	if got := server.lastRequest.Get("transactionid"); got != "2984197621" {
		t.Errorf("refund must reference the parent gateway id, got %q", got)
	}
	if got := server.lastRequest.Get("amount"); got != "10.50" {
		t.Errorf("refund carries the amount, got %q", got)
	}

	void := transactor.NewTransaction(transactor.TypeVoid, transactor.NetworkCard, 1050, nil, cardCredentials())
	void.Parent = parent
	transactOnce(t, gateway, void, server.URL, transactor.Options{})

	if server.lastRequest.Has("amount") {
		t.Error("void must omit the amount")
	}
	if got := server.lastRequest.Get("type"); got != "void" {
		t.Errorf("void wire type = %q", got)
	}
}

func TestCardGatewayValidation(t *testing.T) {
	gateway := NewCardGateway(nil)

	missingCreds := transactor.NewCredentials("nmi.card")
	missingCreds.Set("username", "merchant")

	tests := []struct {
		name string
		tx   *transactor.Transaction
	}{
		{
			name: "missing credentials",
			tx:   transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, testCardAccount(), nil),
		},
		{
			name: "blank password",
			tx:   transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, testCardAccount(), missingCreds),
		},
		{
			name: "missing account",
			tx:   transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, nil, cardCredentials()),
		},
		{
			name: "card without number",
			tx:   transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, &transactor.CardAccount{ExpMonth: 9, ExpYear: 2028}, cardCredentials()),
		},
		{
			name: "card without expiration",
			tx:   transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, &transactor.CardAccount{Number: "4111111111111111"}, cardCredentials()),
		},
		{
			name: "swiped card without tracks",
			tx:   transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, &transactor.SwipedCardAccount{}, cardCredentials()),
		},
		{
			name: "bank account on card gateway",
			tx:   transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1050, &transactor.BankAccount{RoutingNumber: "021000021", AccountNumber: "12345"}, cardCredentials()),
		},
		{
			name: "refund without parent",
			tx:   transactor.NewTransaction(transactor.TypeRefund, transactor.NetworkCard, 1050, testCardAccount(), cardCredentials()),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := gateway.Transact(context.Background(), tc.tx, transactor.Options{PostURL: "http://unreachable.invalid"})
			var validationErr *transactor.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestACHGatewayParams(t *testing.T) {
	server := newGatewayServer(t, "response=1&transactionid=3")
	gateway := NewACHGateway(server.Client())

	account := &transactor.BankAccount{
		HolderName:      "Acme LLC",
		RoutingNumber:   "021000021",
		AccountNumber:   "123456789",
		BusinessAccount: true,
	}
	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkACH, 250000, account, cardCredentials())
	result := gateway.FilterResult(transactOnce(t, gateway, tx, server.URL, transactor.Options{}))

	sent := server.lastRequest
	checks := map[string]string{
		"payment":             "check",
		"checkname":           "Acme LLC",
		"checkaba":            "021000021",
		"checkaccount":        "123456789",
		"account_holder_type": "business",
		"account_type":        "checking",
		"amount":              "2500.00",
	}
	for key, want := range checks {
		if got := sent.Get(key); got != want {
			t.Errorf("request %s = %q, want %q", key, got, want)
		}
	}

	request := result.RequestData()
	if request["checkaba"] != RedactedValue || request["checkaccount"] != RedactedValue {
		t.Error("bank numbers must be redacted from the stored request")
	}
	if request["checkname"] == RedactedValue {
		t.Error("the holder name is not redacted")
	}
}

func TestACHGatewayValidation(t *testing.T) {
	gateway := NewACHGateway(nil)

	tests := []struct {
		name    string
		account transactor.Account
	}{
		{"card account on ach gateway", testCardAccount()},
		{"missing routing number", &transactor.BankAccount{AccountNumber: "123456789"}},
		{"missing account number", &transactor.BankAccount{RoutingNumber: "021000021"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkACH, 1050, tc.account, cardCredentials())
			err := gateway.Transact(context.Background(), tx, transactor.Options{PostURL: "http://unreachable.invalid"})
			var validationErr *transactor.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestACHGatewayParentRefund(t *testing.T) {
	server := newGatewayServer(t, "response=1&transactionid=5")
	gateway := NewACHGateway(server.Client())

	parent := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkACH, 1050, nil, cardCredentials())
	parent.Result().ExternalID = "7001"

	refund := transactor.NewTransaction(transactor.TypeRefund, transactor.NetworkACH, 1050, nil, cardCredentials())
	refund.Parent = parent
	transactOnce(t, gateway, refund, server.URL, transactor.Options{})

	if got := server.lastRequest.Get("transactionid"); got != "7001" {
		t.Errorf("refund must reference the parent gateway id, got %q", got)
	}
	if server.lastRequest.Has("checkaccount") {
		t.Error("parent transactions carry no account data")
	}
}

func TestTokenGateway(t *testing.T) {
	server := newGatewayServer(t, "response=1&transactionid=4")
	gateway := NewTokenGateway(server.Client())

	account := transactor.NewTokenAccount("vault-42", time.Now().UTC())
	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkToken, 1050, account, cardCredentials())
	result := transactOnce(t, gateway, tx, server.URL, transactor.Options{})

	if got := server.lastRequest.Get("customer_vault_id"); got != "vault-42" {
		t.Errorf("expected vault id, got %q", got)
	}
	if result.Status != transactor.StatusApproved {
		t.Fatalf("expected approval, got %q", result.Status)
	}
	if _, ok := gateway.TokenFromResult(result); ok {
		t.Error("the token gateway never issues tokens")
	}

	raw := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkToken, 1050, testCardAccount(), cardCredentials())
	err := gateway.Transact(context.Background(), raw, transactor.Options{PostURL: server.URL})
	var validationErr *transactor.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("raw accounts must be rejected, got %v", err)
	}

	// Voids reference the original by id and need no token at all.
	void := transactor.NewTransaction(transactor.TypeVoid, transactor.NetworkToken, 1050, nil, cardCredentials())
	void.Parent = tx
	transactOnce(t, gateway, void, server.URL, transactor.Options{})
	if got := server.lastRequest.Get("transactionid"); got != "4" {
		t.Errorf("void must reference the parent gateway id, got %q", got)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1050, "10.50"},
		{250000, "2500.00"},
		{99, "0.99"},
	}
	for _, tc := range tests {
		if got := formatAmount(tc.cents); got != tc.want {
			t.Errorf("formatAmount(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
