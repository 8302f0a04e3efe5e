package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/nkoudou/brocante/internal/actorctx"
	"github.com/nkoudou/brocante/internal/config"
	"github.com/nkoudou/brocante/internal/domain/offer"
	"github.com/nkoudou/brocante/internal/domain/transaction"
	"github.com/nkoudou/brocante/internal/domain/user"
	"github.com/nkoudou/brocante/internal/service"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (user.User, error)
}

// QueryHandler is the query-style twin of the REST routes: one endpoint, the
// operation selected by name, typed arguments and results, errors as
// structured payloads rather than per-route status codes.
type QueryHandler struct {
	credentials Credentials
	auth        Authenticator
	offers      Offers
	payments    Payments
}

func NewQueryHandler(credentials Credentials, auth Authenticator, offers Offers, payments Payments) *QueryHandler {
	return &QueryHandler{
		credentials: credentials,
		auth:        auth,
		offers:      offers,
		payments:    payments,
	}
}

type queryRequest struct {
	Operation string          `json:"operation" binding:"required"`
	Arguments json.RawMessage `json:"arguments"`
}

type queryError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (h *QueryHandler) Query(ctx *gin.Context) {
	var req queryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// the bearer token is read once per call and carried on the request
	// context; operations that need an actor look it up there
	cctx, cancel := config.WithTimeout(20 * time.Second)
	defer cancel()

	if raw := bearerFromHeader(ctx.GetHeader("Authorization")); raw != "" && h.auth != nil {
		if u, err := h.auth.Authenticate(cctx, raw); err == nil {
			cctx = actorctx.WithUser(cctx, u)
		}
	}

	data, qerr := h.dispatch(cctx, req.Operation, req.Arguments)

	if qerr != nil {
		ctx.JSON(http.StatusOK, gin.H{"error": qerr})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": data})
}

func bearerFromHeader(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func (h *QueryHandler) dispatch(ctx context.Context, operation string, args json.RawMessage) (interface{}, *queryError) {
	switch operation {
	case "signup":
		return h.signup(ctx, args)
	case "login":
		return h.login(ctx, args)
	case "offers":
		return h.listOffers(ctx, args)
	case "offer":
		return h.getOffer(ctx, args)
	case "createOffer":
		return h.createOffer(ctx, args)
	case "updateOffer":
		return h.updateOffer(ctx, args)
	case "deleteOffer":
		return h.deleteOffer(ctx, args)
	case "pay":
		return h.pay(ctx, args)
	default:
		return nil, &queryError{Code: "unknown_operation", Message: "Unknown operation " + operation}
	}
}

// decodeArgs unmarshals and validates the operation arguments with the same
// binding rules the REST routes use.
func decodeArgs(args json.RawMessage, out interface{}) *queryError {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	if err := json.Unmarshal(args, out); err != nil {
		return &queryError{Code: "invalid_request", Message: "Malformed arguments"}
	}

	if err := binding.Validator.ValidateStruct(out); err != nil {
		return &queryError{
			Code:    "invalid_request",
			Message: "Invalid arguments",
			Details: parseBindError(err, out),
		}
	}

	return nil
}

func (h *QueryHandler) actor(ctx context.Context) (user.User, *queryError) {
	u, ok := actorctx.UserFrom(ctx)

	if !ok {
		return user.User{}, &queryError{Code: "unauthorized", Message: "Missing or invalid bearer token"}
	}

	return u, nil
}

func (h *QueryHandler) signup(ctx context.Context, args json.RawMessage) (interface{}, *queryError) {
	var req user.SignupRequest

	if qerr := decodeArgs(args, &req); qerr != nil {
		return nil, qerr
	}

	u, err := h.credentials.Signup(ctx, req)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, &queryError{Code: "email_taken", Message: "A user is already registered with this email."}
		}

		return nil, internalQueryError()
	}

	return userResponse{ID: u.ID, Token: u.Token, Account: u.Account}, nil
}

func (h *QueryHandler) login(ctx context.Context, args json.RawMessage) (interface{}, *queryError) {
	var req user.LoginRequest

	if qerr := decodeArgs(args, &req); qerr != nil {
		return nil, qerr
	}

	u, err := h.credentials.Login(ctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, &queryError{Code: "not_found", Message: "User unknown"}
		}

		if errors.Is(err, user.ErrInvalidCredentials) {
			return nil, &queryError{Code: "unauthorized", Message: "Password is incorrect."}
		}

		return nil, internalQueryError()
	}

	return userResponse{ID: u.ID, Token: u.Token, Account: u.Account}, nil
}

type offersArgs struct {
	Title    *string  `json:"title" binding:"omitempty,max=50"`
	PriceMin *float64 `json:"priceMin" binding:"omitempty,gt=0"`
	PriceMax *float64 `json:"priceMax" binding:"omitempty,gt=0"`
	Sort     string   `json:"sort" binding:"omitempty,oneof=price-asc price-desc"`
	Page     int      `json:"page" binding:"omitempty,min=1"`
}

func (h *QueryHandler) listOffers(ctx context.Context, args json.RawMessage) (interface{}, *queryError) {
	var q offersArgs

	if qerr := decodeArgs(args, &q); qerr != nil {
		return nil, qerr
	}

	if q.Page < 1 {
		q.Page = 1
	}

	offers, err := h.offers.List(ctx, offer.ListFilter{
		Title:    q.Title,
		PriceMin: q.PriceMin,
		PriceMax: q.PriceMax,
		Sort:     q.Sort,
		Page:     q.Page,
	})

	if err != nil {
		return nil, internalQueryError()
	}

	return offers, nil
}

type offerArgs struct {
	ID string `json:"id" binding:"required"`
}

func (h *QueryHandler) getOffer(ctx context.Context, args json.RawMessage) (interface{}, *queryError) {
	var q offerArgs

	if qerr := decodeArgs(args, &q); qerr != nil {
		return nil, qerr
	}

	o, err := h.offers.Get(ctx, q.ID)

	if err != nil {
		return nil, offerQueryError(err)
	}

	return o, nil
}

func (h *QueryHandler) createOffer(ctx context.Context, args json.RawMessage) (interface{}, *queryError) {
	actor, qerr := h.actor(ctx)

	if qerr != nil {
		return nil, qerr
	}

	var req offer.CreateOfferRequest

	if qerr := decodeArgs(args, &req); qerr != nil {
		return nil, qerr
	}

	o, err := h.offers.Create(ctx, actor, req)

	if err != nil {
		return nil, offerQueryError(err)
	}

	return o, nil
}

type updateOfferArgs struct {
	ID string `json:"id" binding:"required"`
	offer.UpdateOfferRequest
}

func (h *QueryHandler) updateOffer(ctx context.Context, args json.RawMessage) (interface{}, *queryError) {
	actor, qerr := h.actor(ctx)

	if qerr != nil {
		return nil, qerr
	}

	var req updateOfferArgs

	if qerr := decodeArgs(args, &req); qerr != nil {
		return nil, qerr
	}

	o, err := h.offers.Update(ctx, actor, req.ID, req.UpdateOfferRequest)

	if err != nil {
		return nil, offerQueryError(err)
	}

	return o, nil
}

func (h *QueryHandler) deleteOffer(ctx context.Context, args json.RawMessage) (interface{}, *queryError) {
	actor, qerr := h.actor(ctx)

	if qerr != nil {
		return nil, qerr
	}

	var req offerArgs

	if qerr := decodeArgs(args, &req); qerr != nil {
		return nil, qerr
	}

	if err := h.offers.Delete(ctx, actor, req.ID); err != nil {
		return nil, offerQueryError(err)
	}

	return gin.H{"message": "Offer deleted"}, nil
}

func (h *QueryHandler) pay(ctx context.Context, args json.RawMessage) (interface{}, *queryError) {
	var req transaction.PayRequest

	if qerr := decodeArgs(args, &req); qerr != nil {
		return nil, qerr
	}

	t, err := h.payments.Pay(ctx, req)

	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			return nil, &queryError{Code: "upstream_failed", Message: "Charge was declined"}
		}

		return nil, internalQueryError()
	}

	return t, nil
}

func offerQueryError(err error) *queryError {
	switch {
	case errors.Is(err, service.ErrEmptyUpdate):
		return &queryError{Code: "invalid_request", Message: "Update requires at least one field"}
	case errors.Is(err, offer.ErrNotFound):
		return &queryError{Code: "not_found", Message: "Offer not found"}
	case errors.Is(err, offer.ErrForbidden):
		return &queryError{Code: "forbidden", Message: "Offer belongs to another user"}
	case errors.Is(err, service.ErrUpstream):
		return &queryError{Code: "upstream_failed", Message: "Picture upload failed"}
	default:
		return internalQueryError()
	}
}

func internalQueryError() *queryError {
	return &queryError{Code: "internal_error", Message: "Something went wrong"}
}
