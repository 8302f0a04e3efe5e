package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkoudou/brocante/internal/domain/user"
	"github.com/nkoudou/brocante/internal/observability"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

const userColumns = `id, email, username, phone, avatar_public_id, avatar_url, token, hash, salt, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var avatarID, avatarURL *string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Account.Username,
		&u.Account.Phone,
		&avatarID,
		&avatarURL,
		&u.Token,
		&u.Hash,
		&u.Salt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return user.User{}, err
	}

	if avatarID != nil && avatarURL != nil {
		u.Account.Avatar = &user.ImageRef{PublicID: *avatarID, URL: *avatarURL}
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, username, phone, token, hash, salt, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, u.Email, u.Account.Username, u.Account.Phone, u.Token, u.Hash, u.Salt, u.CreatedAt, u.UpdatedAt,
		)

		return err
	})

	if err != nil {
		// the schema-level constraint closes the pre-check race
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByToken(ctx context.Context, token string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_token", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE token = $1`, token))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

// SetAvatar records the uploaded avatar handle. Called after signup when the
// best-effort upload succeeded.
func (r *UsersRepo) SetAvatar(ctx context.Context, userID string, ref user.ImageRef) error {
	return r.observe("users.set_avatar", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET avatar_public_id = $2, avatar_url = $3, updated_at = NOW() WHERE id = $1`,
			userID, ref.PublicID, ref.URL,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}
