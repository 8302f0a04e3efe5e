package offer

import (
	"errors"
	"time"

	"github.com/nkoudou/brocante/internal/domain/user"
)

// Details holds the five recognized descriptive attributes of a listing.
// Every offer carries exactly one value per attribute; unset ones are "".
type Details struct {
	Brand     string `json:"brand"`
	Size      string `json:"size"`
	Condition string `json:"condition"`
	Color     string `json:"color"`
	City      string `json:"city"`
}

// Owner is the resolved owner reference returned on reads. Offers store a
// reference, never an embedded copy.
type Owner struct {
	ID      string       `json:"id"`
	Account user.Account `json:"account"`
}

type Offer struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Price       float64        `json:"price"`
	Details     Details        `json:"details"`
	Image       *user.ImageRef `json:"image,omitempty"`
	Owner       Owner          `json:"owner"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

var (
	ErrNotFound  = errors.New("offer not found")
	ErrForbidden = errors.New("offer does not belong to requesting user")
)

type CreateOfferRequest struct {
	Title       string  `json:"title" binding:"required,max=50"`
	Description string  `json:"description" binding:"omitempty,max=500"`
	Price       float64 `json:"price" binding:"required,gt=0,max=100000"`
	Brand       string  `json:"brand" binding:"omitempty"`
	Size        string  `json:"size" binding:"omitempty"`
	Condition   string  `json:"condition" binding:"omitempty"`
	Color       string  `json:"color" binding:"omitempty"`
	City        string  `json:"city" binding:"omitempty"`
	// optional picture source (data URL or remote URL)
	Picture string `json:"picture" binding:"omitempty"`
}

// UpdateOfferRequest uses pointer fields so an absent key and an explicitly
// supplied empty value stay distinguishable: nil means "leave unchanged", a
// non-nil value is always applied, empty string included.
type UpdateOfferRequest struct {
	Title       *string  `json:"title" binding:"omitempty,max=50"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0,max=100000"`
	Brand       *string  `json:"brand"`
	Size        *string  `json:"size"`
	Condition   *string  `json:"condition"`
	Color       *string  `json:"color"`
	City        *string  `json:"city"`
	Picture     *string  `json:"picture"`
}

// Empty reports whether the update carries no field at all. An empty update
// body is a validation error, not a no-op.
func (r UpdateOfferRequest) Empty() bool {
	return r.Title == nil &&
		r.Description == nil &&
		r.Price == nil &&
		r.Brand == nil &&
		r.Size == nil &&
		r.Condition == nil &&
		r.Color == nil &&
		r.City == nil &&
		r.Picture == nil
}

// ApplyTo merges the present fields of the request into the offer.
// Picture handling is left to the caller since it needs the image store.
func (r UpdateOfferRequest) ApplyTo(o *Offer) {
	if r.Title != nil {
		o.Title = *r.Title
	}

	if r.Description != nil {
		o.Description = *r.Description
	}

	if r.Price != nil {
		o.Price = *r.Price
	}

	if r.Brand != nil {
		o.Details.Brand = *r.Brand
	}

	if r.Size != nil {
		o.Details.Size = *r.Size
	}

	if r.Condition != nil {
		o.Details.Condition = *r.Condition
	}

	if r.Color != nil {
		o.Details.Color = *r.Color
	}

	if r.City != nil {
		o.Details.City = *r.City
	}
}

// Sort orders accepted by the list query.
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// ListFilter carries the list query parameters. Pointer fields are optional;
// Page is already defaulted to 1 by the boundary.
type ListFilter struct {
	Title    *string
	PriceMin *float64
	PriceMax *float64
	Sort     string
	Page     int
}

// PageSize is fixed; the boundary exposes only a page number.
const PageSize = 5

func (f ListFilter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}

	return PageSize * (page - 1)
}
