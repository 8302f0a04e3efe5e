package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nkoudou/brocante/internal/config"
	"github.com/nkoudou/brocante/internal/domain/offer"
	"github.com/nkoudou/brocante/internal/domain/user"
	"github.com/nkoudou/brocante/internal/http/middlewares"
	"github.com/nkoudou/brocante/internal/service"
)

type Offers interface {
	List(ctx context.Context, filter offer.ListFilter) ([]offer.Offer, error)
	Get(ctx context.Context, id string) (offer.Offer, error)
	Create(ctx context.Context, actor user.User, req offer.CreateOfferRequest) (offer.Offer, error)
	Update(ctx context.Context, actor user.User, id string, req offer.UpdateOfferRequest) (offer.Offer, error)
	Delete(ctx context.Context, actor user.User, id string) error
}

type OffersHandler struct {
	offers Offers
}

func NewOffersHandler(offers Offers) *OffersHandler {
	return &OffersHandler{offers: offers}
}

type ListOffersQuery struct {
	Title    *string  `form:"title" binding:"omitempty,max=50"`
	PriceMin *float64 `form:"priceMin" binding:"omitempty,gt=0"`
	PriceMax *float64 `form:"priceMax" binding:"omitempty,gt=0"`
	Sort     string   `form:"sort" binding:"omitempty,oneof=price-asc price-desc"`
	Page     int      `form:"page,default=1" binding:"omitempty,min=1"`
}

func (h *OffersHandler) ListOffers(ctx *gin.Context) {
	var q ListOffersQuery

	if !BindQuery(ctx, &q) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	offers, err := h.offers.List(cctx, offer.ListFilter{
		Title:    q.Title,
		PriceMin: q.PriceMin,
		PriceMax: q.PriceMax,
		Sort:     q.Sort,
		Page:     q.Page,
	})

	if err != nil {
		RespondInternal(ctx, "Could not list offers")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": offers,
		"count": len(offers),
	})
}

func (h *OffersHandler) GetOfferById(ctx *gin.Context) {
	id := ctx.Param("id")

	if id == "" {
		RespondBadRequest(ctx, "Missing offer ID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	o, err := h.offers.Get(cctx, id)

	if err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			RespondNotFound(ctx, "Offer not found")
			return
		}

		RespondInternal(ctx, "Could not fetch offer")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, o)
}

func (h *OffersHandler) PublishOffer(ctx *gin.Context) {
	actor, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing authenticated user")
		return
	}

	var req offer.CreateOfferRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// picture upload can be slow, give the whole operation room
	cctx, cancel := config.WithTimeout(15 * time.Second)

	defer cancel()

	o, err := h.offers.Create(cctx, actor, req)

	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			RespondUpstreamFailed(ctx, "Picture upload failed")
			return
		}

		RespondInternal(ctx, "Could not create offer")
		return
	}

	ctx.JSON(http.StatusOK, o)
}

func (h *OffersHandler) UpdateOffer(ctx *gin.Context) {
	actor, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing authenticated user")
		return
	}

	id := ctx.Param("id")

	if id == "" {
		RespondBadRequest(ctx, "Missing offer ID", nil)
		return
	}

	var req offer.UpdateOfferRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(15 * time.Second)

	defer cancel()

	o, err := h.offers.Update(cctx, actor, id, req)

	if err != nil {
		h.respondMutationError(ctx, err, "Could not update offer")
		return
	}

	ctx.JSON(http.StatusOK, o)
}

func (h *OffersHandler) DeleteOffer(ctx *gin.Context) {
	actor, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing authenticated user")
		return
	}

	id := ctx.Param("id")

	if id == "" {
		RespondBadRequest(ctx, "Missing offer ID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	err := h.offers.Delete(cctx, actor, id)

	if err != nil {
		h.respondMutationError(ctx, err, "Could not delete offer")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Offer deleted"})
}

func (h *OffersHandler) respondMutationError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrEmptyUpdate):
		RespondBadRequest(ctx, "Update requires at least one field", nil)
	case errors.Is(err, offer.ErrNotFound):
		RespondNotFound(ctx, "Offer not found")
	case errors.Is(err, offer.ErrForbidden):
		RespondForbidden(ctx, "Offer belongs to another user")
	case errors.Is(err, service.ErrUpstream):
		RespondUpstreamFailed(ctx, "Picture upload failed")
	default:
		RespondInternal(ctx, fallback)
	}
}
