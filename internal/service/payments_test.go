package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nkoudou/brocante/internal/domain/transaction"
	"github.com/nkoudou/brocante/internal/payments"
	"github.com/nkoudou/brocante/internal/service"
)

type fakeGateway struct {
	gotAmount int64
	fail      bool
}

func (f *fakeGateway) CreateCharge(_ context.Context, amountMinor int64, currency, description, sourceToken string) (payments.Charge, error) {
	if f.fail {
		return payments.Charge{}, errors.New("card declined")
	}

	f.gotAmount = amountMinor

	ch := payments.Charge{
		ID:       "ch_123",
		Created:  1700000000,
		Amount:   amountMinor,
		Currency: currency,
		Status:   "succeeded",
	}
	ch.PaymentMethodDetails.Card.Brand = "visa"
	ch.PaymentMethodDetails.Card.Country = "FR"
	ch.PaymentMethodDetails.Card.ExpMonth = 4
	ch.PaymentMethodDetails.Card.ExpYear = 2030

	return ch, nil
}

type fakeTransactions struct {
	saved []transaction.Transaction
	fail  bool
}

func (f *fakeTransactions) Create(_ context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	if f.fail {
		return transaction.Transaction{}, errors.New("insert failed")
	}

	f.saved = append(f.saved, t)

	return t, nil
}

func TestPay_RecordsTransaction(t *testing.T) {
	gateway := &fakeGateway{}
	store := &fakeTransactions{}
	svc := service.NewPaymentService(gateway, store, testLogger())

	got, err := svc.Pay(context.Background(), transaction.PayRequest{
		Amount:      19.99,
		Description: "Blue Shirt",
		SourceToken: "tok_visa",
	})
	if err != nil {
		t.Fatalf("Pay error: %v", err)
	}

	// major units converted to minor units for the gateway
	if gateway.gotAmount != 1999 {
		t.Fatalf("gateway charged %d, want 1999", gateway.gotAmount)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 saved transaction, got %d", len(store.saved))
	}

	if got.ChargeID != "ch_123" || got.ProductName != "Blue Shirt" {
		t.Fatalf("unexpected transaction: %+v", got)
	}

	if got.Card.Brand != "visa" || got.Card.ExpYear != 2030 {
		t.Fatalf("card details not carried over: %+v", got.Card)
	}
}

func TestPay_GatewayFailureIsUpstream(t *testing.T) {
	svc := service.NewPaymentService(&fakeGateway{fail: true}, &fakeTransactions{}, testLogger())

	_, err := svc.Pay(context.Background(), transaction.PayRequest{
		Amount:      10,
		Description: "Hat",
		SourceToken: "tok_bad",
	})

	if !errors.Is(err, service.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
