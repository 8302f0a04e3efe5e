package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nkoudou/brocante/internal/domain/transaction"
	"github.com/nkoudou/brocante/internal/payments"
)

const chargeCurrency = "eur"

type ChargeCreator interface {
	CreateCharge(ctx context.Context, amountMinor int64, currency, description, sourceToken string) (payments.Charge, error)
}

type PaymentService struct {
	gateway      ChargeCreator
	transactions TransactionStore
	log          *slog.Logger
}

func NewPaymentService(gateway ChargeCreator, transactions TransactionStore, log *slog.Logger) *PaymentService {
	return &PaymentService{gateway: gateway, transactions: transactions, log: log}
}

// Pay charges the source token and records the confirmation as a
// Transaction. Gateway failure aborts the operation; nothing is persisted.
func (s *PaymentService) Pay(ctx context.Context, req transaction.PayRequest) (transaction.Transaction, error) {
	amountMinor := int64(math.Round(req.Amount * 100))

	charge, err := s.gateway.CreateCharge(ctx, amountMinor, chargeCurrency, req.Description, req.SourceToken)

	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	t := transaction.Transaction{
		ID:          uuid.NewString(),
		ChargeID:    charge.ID,
		Date:        charge.Created,
		Amount:      amountMinor,
		ProductName: req.Description,
		Card: transaction.Card{
			Brand:    charge.PaymentMethodDetails.Card.Brand,
			Country:  charge.PaymentMethodDetails.Card.Country,
			ExpMonth: charge.PaymentMethodDetails.Card.ExpMonth,
			ExpYear:  charge.PaymentMethodDetails.Card.ExpYear,
		},
		CreatedAt: time.Now().UTC(),
	}

	t, err = s.transactions.Create(ctx, t)

	if err != nil {
		// charged but not recorded; surface the store error, the charge id
		// is in the log for reconciliation
		s.log.Error("transaction save failed after charge", "charge_id", charge.ID, "err", err)
		return transaction.Transaction{}, err
	}

	return t, nil
}
