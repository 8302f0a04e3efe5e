package offer

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateOfferRequest, ownerID string) Offer {
	now := time.Now().UTC()

	return Offer{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Details: Details{
			Brand:     req.Brand,
			Size:      req.Size,
			Condition: req.Condition,
			Color:     req.Color,
			City:      req.City,
		},
		Owner:     Owner{ID: ownerID},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
