package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nkoudou/brocante/internal/domain/offer"
	"github.com/nkoudou/brocante/internal/domain/user"
)

const offerFolder = "brocante/offers"

type OfferService struct {
	offers  OfferStore
	images  ImageStore
	cleanup CleanupEnqueuer
	log     *slog.Logger
}

func NewOfferService(offers OfferStore, images ImageStore, cleanup CleanupEnqueuer, log *slog.Logger) *OfferService {
	return &OfferService{offers: offers, images: images, cleanup: cleanup, log: log}
}

func (s *OfferService) List(ctx context.Context, filter offer.ListFilter) ([]offer.Offer, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}

	return s.offers.List(ctx, filter)
}

func (s *OfferService) Get(ctx context.Context, id string) (offer.Offer, error) {
	return s.offers.GetByID(ctx, id)
}

// Create publishes a new offer owned by the acting user. A supplied picture
// is uploaded first, keyed by the offer id; here an upload failure is fatal
// to the whole create, unlike the signup avatar path.
func (s *OfferService) Create(ctx context.Context, actor user.User, req offer.CreateOfferRequest) (offer.Offer, error) {
	o := offer.NewFromCreateRequest(req, actor.ID)
	o.Owner.Account = actor.Account

	if req.Picture != "" {
		if s.images == nil {
			return offer.Offer{}, fmt.Errorf("%w: image store not configured", ErrUpstream)
		}

		ref, err := s.images.Upload(ctx, req.Picture, o.ID, offerFolder)

		if err != nil {
			return offer.Offer{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}

		o.Image = &ref
	}

	return s.offers.Create(ctx, o)
}

// Update merges the present fields into the stored offer and writes it back.
// Only the owner may update; races between concurrent updates are
// last-writer-wins.
func (s *OfferService) Update(ctx context.Context, actor user.User, id string, req offer.UpdateOfferRequest) (offer.Offer, error) {
	if req.Empty() {
		return offer.Offer{}, ErrEmptyUpdate
	}

	existing, err := s.offers.GetByID(ctx, id)

	if err != nil {
		return offer.Offer{}, err
	}

	if existing.Owner.ID != actor.ID {
		return offer.Offer{}, offer.ErrForbidden
	}

	req.ApplyTo(&existing)

	if req.Picture != nil && *req.Picture != "" {
		if s.images == nil {
			return offer.Offer{}, fmt.Errorf("%w: image store not configured", ErrUpstream)
		}

		// keyed by the existing offer id, so the new upload replaces the old
		ref, err := s.images.Upload(ctx, *req.Picture, existing.ID, offerFolder)

		if err != nil {
			return offer.Offer{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}

		existing.Image = &ref
	}

	existing.UpdatedAt = time.Now().UTC()

	return s.offers.Update(ctx, existing)
}

// Delete removes the offer after queuing its image for best-effort cleanup.
func (s *OfferService) Delete(ctx context.Context, actor user.User, id string) error {
	existing, err := s.offers.GetByID(ctx, id)

	if err != nil {
		return err
	}

	if existing.Owner.ID != actor.ID {
		return offer.ErrForbidden
	}

	if existing.Image != nil && s.cleanup != nil {
		s.cleanup.EnqueueDestroy(ctx, existing.Image.PublicID, existing.ID)
	}

	return s.offers.Delete(ctx, id)
}
