package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkoudou/brocante/internal/domain/transaction"
	"github.com/nkoudou/brocante/internal/observability"
)

type TransactionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTransactionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TransactionsRepo {
	return &TransactionsRepo{pool: pool, prom: prom}
}

func (r *TransactionsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TransactionsRepo) Create(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	err := r.observe("transactions.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO transactions (id, charge_id, charge_date, amount, product_name,
				card_brand, card_country, card_exp_month, card_exp_year, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			t.ID, t.ChargeID, t.Date, t.Amount, t.ProductName,
			t.Card.Brand, t.Card.Country, t.Card.ExpMonth, t.Card.ExpYear, t.CreatedAt,
		)

		return err
	})

	if err != nil {
		return transaction.Transaction{}, err
	}

	return t, nil
}
