package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nkoudou/brocante/internal/domain/offer"
	"github.com/nkoudou/brocante/internal/domain/user"
	"github.com/nkoudou/brocante/internal/http/handlers"
	"github.com/nkoudou/brocante/internal/http/middlewares"
	"github.com/nkoudou/brocante/internal/service"
)

// Fake implementation of the handlers.Offers interface

type fakeOffers struct {
	listFn   func(ctx context.Context, filter offer.ListFilter) ([]offer.Offer, error)
	getFn    func(ctx context.Context, id string) (offer.Offer, error)
	createFn func(ctx context.Context, actor user.User, req offer.CreateOfferRequest) (offer.Offer, error)
	updateFn func(ctx context.Context, actor user.User, id string, req offer.UpdateOfferRequest) (offer.Offer, error)
	deleteFn func(ctx context.Context, actor user.User, id string) error
}

func (f *fakeOffers) List(ctx context.Context, filter offer.ListFilter) ([]offer.Offer, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}

	return []offer.Offer{}, nil
}

func (f *fakeOffers) Get(ctx context.Context, id string) (offer.Offer, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return offer.Offer{}, nil
}

func (f *fakeOffers) Create(ctx context.Context, actor user.User, req offer.CreateOfferRequest) (offer.Offer, error) {
	if f.createFn != nil {
		return f.createFn(ctx, actor, req)
	}

	return offer.Offer{}, nil
}

func (f *fakeOffers) Update(ctx context.Context, actor user.User, id string, req offer.UpdateOfferRequest) (offer.Offer, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, actor, id, req)
	}

	return offer.Offer{}, nil
}

func (f *fakeOffers) Delete(ctx context.Context, actor user.User, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, actor, id)
	}

	return nil
}

// mounts the handler behind a stub that injects the authenticated user,
// standing in for the real auth middleware
func setupAuthedRouter(method, path string, actor user.User, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(c *gin.Context) {
		c.Set(middlewares.CtxUser, actor)
		c.Next()
	}, h)

	return r
}

func sampleOffer(id, ownerID string) offer.Offer {
	now := time.Now().UTC()

	return offer.Offer{
		ID:        id,
		Title:     "Vieux vélo",
		Price:     40,
		Details:   offer.Details{City: "Lyon"},
		Owner:     offer.Owner{ID: ownerID, Account: user.Account{Username: "jean"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestListOffersHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		setUp          func(*fakeOffers)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "success_defaults_to_page_one",
			url:  "/offers",
			setUp: func(f *fakeOffers) {
				f.listFn = func(ctx context.Context, filter offer.ListFilter) ([]offer.Offer, error) {
					if filter.Page != 1 {
						return nil, errors.New("expected page 1")
					}

					return []offer.Offer{sampleOffer("o-1", "u-1")}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      1,
		},
		{
			name: "filters_forwarded",
			url:  "/offers?title=velo&priceMin=10&priceMax=100&sort=price-asc&page=2",
			setUp: func(f *fakeOffers) {
				f.listFn = func(ctx context.Context, filter offer.ListFilter) ([]offer.Offer, error) {
					if filter.Title == nil || *filter.Title != "velo" {
						return nil, errors.New("title filter not forwarded")
					}

					if filter.PriceMin == nil || *filter.PriceMin != 10 {
						return nil, errors.New("priceMin filter not forwarded")
					}

					if filter.PriceMax == nil || *filter.PriceMax != 100 {
						return nil, errors.New("priceMax filter not forwarded")
					}

					if filter.Sort != offer.SortPriceAsc || filter.Page != 2 {
						return nil, errors.New("sort/page not forwarded")
					}

					return []offer.Offer{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      0,
		},
		{
			name:           "invalid_sort",
			url:            "/offers?sort=sideways",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_page",
			url:            "/offers?page=0",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			url:  "/offers",
			setUp: func(f *fakeOffers) {
				f.listFn = func(ctx context.Context, filter offer.ListFilter) ([]offer.Offer, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOffers{}

			if tt.setUp != nil {
				tt.setUp(fake)
			}

			h := handlers.NewOffersHandler(fake)

			r := setupRouter(http.MethodGet, "/offers", h.ListOffers)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var resp struct {
				Items []offer.Offer `json:"items"`
				Count int           `json:"count"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json response: %v", err)
			}

			if resp.Count != tt.wantCount {
				t.Errorf("got count %d, want %d", resp.Count, tt.wantCount)
			}
		})
	}
}

func TestGetOfferByIdHandler(t *testing.T) {
	tests := []struct {
		name           string
		setUp          func(*fakeOffers)
		wantStatusCode int
	}{
		{
			name: "success",
			setUp: func(f *fakeOffers) {
				f.getFn = func(ctx context.Context, id string) (offer.Offer, error) {
					return sampleOffer(id, "u-1"), nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			setUp: func(f *fakeOffers) {
				f.getFn = func(ctx context.Context, id string) (offer.Offer, error) {
					return offer.Offer{}, offer.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOffers{}

			if tt.setUp != nil {
				tt.setUp(fake)
			}

			h := handlers.NewOffersHandler(fake)

			r := setupRouter(http.MethodGet, "/offer/:id", h.GetOfferById)

			req := httptest.NewRequest(http.MethodGet, "/offer/o-1", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestGetOfferByIdETag(t *testing.T) {
	fake := &fakeOffers{
		getFn: func(ctx context.Context, id string) (offer.Offer, error) {
			return sampleOffer(id, "u-1"), nil
		},
	}

	h := handlers.NewOffersHandler(fake)
	r := setupRouter(http.MethodGet, "/offer/:id", h.GetOfferById)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/offer/o-1", nil))

	if first.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", first.Code, first.Body.String())
	}

	etag := first.Header().Get("ETag")

	if etag == "" {
		t.Fatal("expected ETag header on read")
	}

	req := httptest.NewRequest(http.MethodGet, "/offer/o-1", nil)
	req.Header.Set("If-None-Match", etag)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	if second.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", second.Code)
	}
}

func TestPublishOfferHandler(t *testing.T) {
	actor := user.User{ID: "u-1", Account: user.Account{Username: "jean"}}

	tests := []struct {
		name           string
		body           string
		setUp          func(*fakeOffers)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"title": "Vieux vélo", "price": 40, "city": "Lyon"}`,
			setUp: func(f *fakeOffers) {
				f.createFn = func(ctx context.Context, got user.User, req offer.CreateOfferRequest) (offer.Offer, error) {
					if got.ID != actor.ID {
						return offer.Offer{}, errors.New("actor not forwarded")
					}

					return sampleOffer("o-1", got.ID), nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_title",
			body:           `{"price": 40}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "non_positive_price",
			body:           `{"title": "Vieux vélo", "price": 0}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "picture_upload_failed",
			body: `{"title": "Vieux vélo", "price": 40, "picture": "data:image/png;base64,xxxx"}`,
			setUp: func(f *fakeOffers) {
				f.createFn = func(ctx context.Context, got user.User, req offer.CreateOfferRequest) (offer.Offer, error) {
					return offer.Offer{}, service.ErrUpstream
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOffers{}

			if tt.setUp != nil {
				tt.setUp(fake)
			}

			h := handlers.NewOffersHandler(fake)

			r := setupAuthedRouter(http.MethodPost, "/offer/publish", actor, h.PublishOffer)

			req := httptest.NewRequest(http.MethodPost, "/offer/publish", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestPublishOfferWithoutActor(t *testing.T) {
	h := handlers.NewOffersHandler(&fakeOffers{})

	// mounted without the auth stub, so no user on the context
	r := setupRouter(http.MethodPost, "/offer/publish", h.PublishOffer)

	body := `{"title": "Vieux vélo", "price": 40}`
	req := httptest.NewRequest(http.MethodPost, "/offer/publish", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401, body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateOfferHandler(t *testing.T) {
	actor := user.User{ID: "u-1"}

	tests := []struct {
		name           string
		body           string
		setUp          func(*fakeOffers)
		wantStatusCode int
	}{
		{
			name: "success_partial",
			body: `{"price": 35}`,
			setUp: func(f *fakeOffers) {
				f.updateFn = func(ctx context.Context, got user.User, id string, req offer.UpdateOfferRequest) (offer.Offer, error) {
					if req.Price == nil || *req.Price != 35 {
						return offer.Offer{}, errors.New("price not forwarded")
					}

					if req.Title != nil {
						return offer.Offer{}, errors.New("absent title must stay nil")
					}

					o := sampleOffer(id, got.ID)
					o.Price = *req.Price
					return o, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "empty_update",
			body: `{}`,
			setUp: func(f *fakeOffers) {
				f.updateFn = func(ctx context.Context, got user.User, id string, req offer.UpdateOfferRequest) (offer.Offer, error) {
					return offer.Offer{}, service.ErrEmptyUpdate
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "not_owner",
			body: `{"price": 35}`,
			setUp: func(f *fakeOffers) {
				f.updateFn = func(ctx context.Context, got user.User, id string, req offer.UpdateOfferRequest) (offer.Offer, error) {
					return offer.Offer{}, offer.ErrForbidden
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name: "not_found",
			body: `{"price": 35}`,
			setUp: func(f *fakeOffers) {
				f.updateFn = func(ctx context.Context, got user.User, id string, req offer.UpdateOfferRequest) (offer.Offer, error) {
					return offer.Offer{}, offer.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOffers{}

			if tt.setUp != nil {
				tt.setUp(fake)
			}

			h := handlers.NewOffersHandler(fake)

			r := setupAuthedRouter(http.MethodPut, "/offer/:id", actor, h.UpdateOffer)

			req := httptest.NewRequest(http.MethodPut, "/offer/o-1", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteOfferHandler(t *testing.T) {
	actor := user.User{ID: "u-1"}

	tests := []struct {
		name           string
		setUp          func(*fakeOffers)
		wantStatusCode int
	}{
		{
			name:           "success",
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_owner",
			setUp: func(f *fakeOffers) {
				f.deleteFn = func(ctx context.Context, got user.User, id string) error {
					return offer.ErrForbidden
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name: "not_found",
			setUp: func(f *fakeOffers) {
				f.deleteFn = func(ctx context.Context, got user.User, id string) error {
					return offer.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOffers{}

			if tt.setUp != nil {
				tt.setUp(fake)
			}

			h := handlers.NewOffersHandler(fake)

			r := setupAuthedRouter(http.MethodDelete, "/offer/:id", actor, h.DeleteOffer)

			req := httptest.NewRequest(http.MethodDelete, "/offer/o-1", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
