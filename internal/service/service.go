// Package service holds the application core: credential lifecycle, offer
// queries and mutations, payment recording. HTTP and query boundaries are
// thin adapters over these types.
package service

import (
	"context"
	"errors"

	"github.com/nkoudou/brocante/internal/domain/offer"
	"github.com/nkoudou/brocante/internal/domain/transaction"
	"github.com/nkoudou/brocante/internal/domain/user"
)

// ErrUpstream marks a collaborator (image store, payment gateway) failure
// that aborted the enclosing operation.
var ErrUpstream = errors.New("collaborator call failed")

// ErrEmptyUpdate is returned for an update request carrying no field at all.
var ErrEmptyUpdate = errors.New("update requires at least one field")

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByToken(ctx context.Context, token string) (user.User, error)
	SetAvatar(ctx context.Context, userID string, ref user.ImageRef) error
}

type OfferStore interface {
	Create(ctx context.Context, o offer.Offer) (offer.Offer, error)
	List(ctx context.Context, filter offer.ListFilter) ([]offer.Offer, error)
	GetByID(ctx context.Context, id string) (offer.Offer, error)
	Update(ctx context.Context, o offer.Offer) (offer.Offer, error)
	Delete(ctx context.Context, id string) error
}

type TransactionStore interface {
	Create(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error)
}

// ImageStore is the upload side of the image collaborator.
type ImageStore interface {
	Upload(ctx context.Context, source, publicID, folder string) (user.ImageRef, error)
}

// CleanupEnqueuer hands image deletions to the worker, fire-and-forget.
type CleanupEnqueuer interface {
	EnqueueDestroy(ctx context.Context, publicID, offerID string)
}
