package merchants

import (
	"context"
	"testing"

	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/merchant"
	"github.com/UTP-Network/payment_gateway/internal/app/storage/memory"
)

func TestRegisterAndLookup(t *testing.T) {
	svc := New(memory.New(), nil)

	m, err := svc.Register(context.Background(), "  Chai Point  ", "ops@chaipoint.in", merchant.Account{VPA: "chaipoint@upi"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if m.ID == "" {
		t.Fatalf("expected merchant id assigned")
	}
	if m.Name != "Chai Point" {
		t.Fatalf("expected trimmed name, got %q", m.Name)
	}

	got, err := svc.Get(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Account.VPA != "chaipoint@upi" {
		t.Fatalf("unexpected account: %#v", got.Account)
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 merchant, got %d", len(list))
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := New(memory.New(), nil)

	cases := []struct {
		name    string
		mName   string
		account merchant.Account
	}{
		{"empty name", "   ", merchant.Account{VPA: "x@upi"}},
		{"no payout destination", "Shop", merchant.Account{}},
		{"bank account without ifsc", "Shop", merchant.Account{BankAccount: "1234567890"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.mName, "", tc.account)
			if !apierror.IsCode(err, apierror.CodeValidation) {
				t.Fatalf("expected VALIDATION_FAILED, got %v", err)
			}
		})
	}
}

func TestGetUnknownMerchant(t *testing.T) {
	svc := New(memory.New(), nil)
	if _, err := svc.Get(context.Background(), "missing"); !apierror.IsCode(err, apierror.CodeMerchantNotFound) {
		t.Fatalf("expected MERCHANT_NOT_FOUND, got %v", err)
	}
}
