package generic

import (
	"context"
	"testing"

	"github.com/pocomos/transactor/pkg/transactor"
)

func TestManualSaleIsApproved(t *testing.T) {
	tr := transactor.New(New())

	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCash, 1500, nil, nil)
	result, err := tr.Transact(context.Background(), tx, nil)
	if err != nil {
		t.Fatalf("transact failed: %v", err)
	}
	if result.Status != transactor.StatusApproved {
		t.Fatalf("expected approval, got %q: %s", result.Status, result.Message)
	}
	if result.TransactorName() != "generic.manual" {
		t.Errorf("expected transactor name on the result, got %q", result.TransactorName())
	}
}

func TestManualRefundRequiresParent(t *testing.T) {
	tr := transactor.New(New())

	orphan := transactor.NewTransaction(transactor.TypeRefund, transactor.NetworkCheck, 1500, nil, nil)
	result, err := tr.Transact(context.Background(), orphan, nil)
	if err != nil {
		t.Fatalf("validation failures fold into the result, got error %v", err)
	}
	if result.Status != transactor.StatusError {
		t.Fatalf("expected error status, got %q", result.Status)
	}
	if result.Message == transactor.InternalErrorMessage {
		t.Error("the message must say a parent transaction is required")
	}

	parent := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCheck, 1500, nil, nil)
	refund := transactor.NewTransaction(transactor.TypeRefund, transactor.NetworkCheck, 1500, nil, nil)
	refund.Parent = parent
	result, err = tr.Transact(context.Background(), refund, nil)
	if err != nil {
		t.Fatalf("transact failed: %v", err)
	}
	if result.Status != transactor.StatusApproved {
		t.Fatalf("expected approval, got %q", result.Status)
	}
}

func TestManualGatewayRejectsCardNetwork(t *testing.T) {
	tr := transactor.New(New())

	tx := transactor.NewTransaction(transactor.TypeSale, transactor.NetworkCard, 1500, nil, nil)
	if _, err := tr.Transact(context.Background(), tx, nil); err == nil {
		t.Fatal("the manual gateway must not accept card transactions")
	}
}
