package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/nkoudou/brocante/internal/domain/offer"
)

// OffersRepo mirrors the postgres repo's behaviour in memory: same filter,
// sort and pagination semantics, owner already resolved on the stored value.
type OffersRepo struct {
	mu     sync.RWMutex
	offers map[string]offer.Offer
	order  []string // insertion order stands in for created_at ordering
}

func NewOffersRepo() *OffersRepo {
	return &OffersRepo{offers: make(map[string]offer.Offer)}
}

func (r *OffersRepo) Create(_ context.Context, o offer.Offer) (offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.offers[o.ID] = o
	r.order = append(r.order, o.ID)

	return o, nil
}

func (r *OffersRepo) List(_ context.Context, filter offer.ListFilter) ([]offer.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]offer.Offer, 0, len(r.order))

	for _, id := range r.order {
		o := r.offers[id]

		if filter.Title != nil && !strings.Contains(strings.ToLower(o.Title), strings.ToLower(*filter.Title)) {
			continue
		}

		if filter.PriceMin != nil && o.Price < *filter.PriceMin {
			continue
		}

		if filter.PriceMax != nil && o.Price > *filter.PriceMax {
			continue
		}

		matched = append(matched, o)
	}

	switch filter.Sort {
	case offer.SortPriceAsc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case offer.SortPriceDesc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	}

	start := filter.Offset()

	if start >= len(matched) {
		return []offer.Offer{}, nil
	}

	end := start + offer.PageSize

	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], nil
}

func (r *OffersRepo) GetByID(_ context.Context, id string) (offer.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.offers[id]

	if !ok {
		return offer.Offer{}, offer.ErrNotFound
	}

	return o, nil
}

func (r *OffersRepo) Update(_ context.Context, o offer.Offer) (offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offers[o.ID]; !ok {
		return offer.Offer{}, offer.ErrNotFound
	}

	r.offers[o.ID] = o

	return o, nil
}

func (r *OffersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offers[id]; !ok {
		return offer.ErrNotFound
	}

	delete(r.offers, id)

	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}
