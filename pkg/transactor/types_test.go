package transactor

import "testing"

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input string
		want  TransactionType
		ok    bool
	}{
		{"sale", TypeSale, true},
		{"validate", TypeValidate, true},
		{"refund", TypeRefund, true},
		{"SALE", "", false},
		{"", "", false},
		{"transfer", "", false},
	}

	for _, tc := range tests {
		got, ok := ParseTransactionType(tc.input)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseTransactionType(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRequiresParent(t *testing.T) {
	parented := map[TransactionType]bool{
		TypeSale:     false,
		TypeAuth:     false,
		TypeCapture:  true,
		TypeCredit:   false,
		TypeRefund:   true,
		TypeVoid:     true,
		TypeQuery:    false,
		TypeUpdate:   false,
		TypeValidate: false,
	}
	for txType, want := range parented {
		if got := txType.RequiresParent(); got != want {
			t.Errorf("%s.RequiresParent() = %v, want %v", txType, got, want)
		}
	}
}

func TestCapabilitiesZeroValueSupportsNothing(t *testing.T) {
	var caps Capabilities
	if caps.SupportsType(TypeSale) {
		t.Error("zero capabilities must not support any type")
	}
	if caps.SupportsNetwork(NetworkCard) {
		t.Error("zero capabilities must not support any network")
	}

	caps = Capabilities{Types: []TransactionType{TypeSale}, Networks: []NetworkType{NetworkCard}}
	if caps.SupportsType("") {
		t.Error("the zero type is never supported")
	}
	if caps.SupportsNetwork("") {
		t.Error("the zero network is never supported")
	}
}
