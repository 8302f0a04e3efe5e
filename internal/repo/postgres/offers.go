package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkoudou/brocante/internal/domain/offer"
	"github.com/nkoudou/brocante/internal/domain/user"
	"github.com/nkoudou/brocante/internal/observability"
)

type OffersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOffersRepo(pool *pgxpool.Pool, prom *observability.Prom) *OffersRepo {
	return &OffersRepo{pool: pool, prom: prom}
}

func (r *OffersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// every read joins the owner so listings come back with the owner's account
// resolved, reference-style
const offerSelect = `
	SELECT o.id,
		o.title,
		o.description,
		o.price,
		o.brand,
		o.size,
		o.condition,
		o.color,
		o.city,
		o.image_public_id,
		o.image_url,
		o.created_at,
		o.updated_at,
		u.id,
		u.username,
		u.phone,
		u.avatar_public_id,
		u.avatar_url
	FROM offers o
	JOIN users u ON u.id = o.owner_id
`

func scanOffer(row pgx.Row) (offer.Offer, error) {
	var o offer.Offer
	var imageID, imageURL, avatarID, avatarURL *string

	err := row.Scan(
		&o.ID,
		&o.Title,
		&o.Description,
		&o.Price,
		&o.Details.Brand,
		&o.Details.Size,
		&o.Details.Condition,
		&o.Details.Color,
		&o.Details.City,
		&imageID,
		&imageURL,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.Owner.ID,
		&o.Owner.Account.Username,
		&o.Owner.Account.Phone,
		&avatarID,
		&avatarURL,
	)

	if err != nil {
		return offer.Offer{}, err
	}

	if imageID != nil && imageURL != nil {
		o.Image = &user.ImageRef{PublicID: *imageID, URL: *imageURL}
	}

	if avatarID != nil && avatarURL != nil {
		o.Owner.Account.Avatar = &user.ImageRef{PublicID: *avatarID, URL: *avatarURL}
	}

	return o, nil
}

func (r *OffersRepo) Create(ctx context.Context, o offer.Offer) (offer.Offer, error) {
	var imageID, imageURL *string

	if o.Image != nil {
		imageID = &o.Image.PublicID
		imageURL = &o.Image.URL
	}

	err := r.observe("offers.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO offers (id, title, description, price, brand, size, condition, color, city,
				image_public_id, image_url, owner_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			o.ID, o.Title, o.Description, o.Price,
			o.Details.Brand, o.Details.Size, o.Details.Condition, o.Details.Color, o.Details.City,
			imageID, imageURL, o.Owner.ID, o.CreatedAt, o.UpdatedAt,
		)

		return err
	})

	if err != nil {
		return offer.Offer{}, err
	}

	return o, nil
}

func (r *OffersRepo) List(ctx context.Context, filter offer.ListFilter) ([]offer.Offer, error) {
	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Title != nil {
		conds = append(conds, fmt.Sprintf("o.title ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Title+"%")
		argsPosition++
	}

	// price bounds are inclusive
	if filter.PriceMin != nil {
		conds = append(conds, fmt.Sprintf("o.price >= $%d", argsPosition))
		args = append(args, *filter.PriceMin)
		argsPosition++
	}

	if filter.PriceMax != nil {
		conds = append(conds, fmt.Sprintf("o.price <= $%d", argsPosition))
		args = append(args, *filter.PriceMax)
		argsPosition++
	}

	query := offerSelect

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// id as tiebreaker keeps pages disjoint under equal prices
	switch filter.Sort {
	case offer.SortPriceAsc:
		query += " ORDER BY o.price ASC, o.id ASC"
	case offer.SortPriceDesc:
		query += " ORDER BY o.price DESC, o.id ASC"
	default:
		query += " ORDER BY o.created_at ASC, o.id ASC"
	}

	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, offer.PageSize, filter.Offset())

	var output []offer.Offer

	err := r.observe("offers.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		output = make([]offer.Offer, 0, offer.PageSize)

		for rows.Next() {
			o, err := scanOffer(rows)

			if err != nil {
				return err
			}

			output = append(output, o)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *OffersRepo) GetByID(ctx context.Context, id string) (offer.Offer, error) {
	var o offer.Offer

	err := r.observe("offers.get_by_id", func() error {
		var err error
		o, err = scanOffer(r.pool.QueryRow(ctx, offerSelect+` WHERE o.id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return offer.Offer{}, offer.ErrNotFound
		}

		return offer.Offer{}, err
	}

	return o, nil
}

// Update writes back the full merged offer. The merge itself happens in the
// service; races between concurrent updates are last-writer-wins.
func (r *OffersRepo) Update(ctx context.Context, o offer.Offer) (offer.Offer, error) {
	var imageID, imageURL *string

	if o.Image != nil {
		imageID = &o.Image.PublicID
		imageURL = &o.Image.URL
	}

	err := r.observe("offers.update", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE offers
				SET title = $2,
					description = $3,
					price = $4,
					brand = $5,
					size = $6,
					condition = $7,
					color = $8,
					city = $9,
					image_public_id = $10,
					image_url = $11,
					updated_at = NOW()
			 WHERE id = $1`,
			o.ID, o.Title, o.Description, o.Price,
			o.Details.Brand, o.Details.Size, o.Details.Condition, o.Details.Color, o.Details.City,
			imageID, imageURL,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return offer.ErrNotFound
		}

		return nil
	})

	if err != nil {
		return offer.Offer{}, err
	}

	return r.GetByID(ctx, o.ID)
}

func (r *OffersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("offers.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return offer.ErrNotFound
		}

		return nil
	})
}
