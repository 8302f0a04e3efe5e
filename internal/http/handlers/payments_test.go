package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nkoudou/brocante/internal/domain/transaction"
	"github.com/nkoudou/brocante/internal/http/handlers"
	"github.com/nkoudou/brocante/internal/service"
)

type fakePayments struct {
	payFn func(ctx context.Context, req transaction.PayRequest) (transaction.Transaction, error)
}

func (f *fakePayments) Pay(ctx context.Context, req transaction.PayRequest) (transaction.Transaction, error) {
	if f.payFn != nil {
		return f.payFn(ctx, req)
	}

	return transaction.Transaction{}, nil
}

func TestPayHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setUp          func(*fakePayments)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"amount": 42.5, "description": "Vieux vélo", "stripeToken": "tok_visa"}`,
			setUp: func(f *fakePayments) {
				f.payFn = func(ctx context.Context, req transaction.PayRequest) (transaction.Transaction, error) {
					if req.SourceToken != "tok_visa" {
						return transaction.Transaction{}, errors.New("token not forwarded")
					}

					return transaction.Transaction{ID: "t-1", ChargeID: "ch_1", Amount: 4250}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_token",
			body:           `{"amount": 42.5, "description": "Vieux vélo"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "charge_declined",
			body: `{"amount": 42.5, "description": "Vieux vélo", "stripeToken": "tok_chargeDeclined"}`,
			setUp: func(f *fakePayments) {
				f.payFn = func(ctx context.Context, req transaction.PayRequest) (transaction.Transaction, error) {
					return transaction.Transaction{}, service.ErrUpstream
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			body: `{"amount": 42.5, "description": "Vieux vélo", "stripeToken": "tok_visa"}`,
			setUp: func(f *fakePayments) {
				f.payFn = func(ctx context.Context, req transaction.PayRequest) (transaction.Transaction, error) {
					return transaction.Transaction{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePayments{}

			if tt.setUp != nil {
				tt.setUp(fake)
			}

			h := handlers.NewPaymentsHandler(fake)

			r := setupRouter(http.MethodPost, "/pay", h.Pay)

			req := httptest.NewRequest(http.MethodPost, "/pay", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
