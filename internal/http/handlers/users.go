package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nkoudou/brocante/internal/config"
	"github.com/nkoudou/brocante/internal/domain/user"
)

// Keep this small interface so tests can fake it easily.
type Credentials interface {
	Signup(ctx context.Context, req user.SignupRequest) (user.User, error)
	Login(ctx context.Context, email, password string) (user.User, error)
}

type UsersHandler struct {
	credentials Credentials
}

func NewUsersHandler(credentials Credentials) *UsersHandler {
	return &UsersHandler{credentials: credentials}
}

// userResponse is what both signup and login hand back: the id, the bearer
// token for later authenticated calls, and the public account profile.
// Never the hash or salt.
type userResponse struct {
	ID      string       `json:"id"`
	Token   string       `json:"token"`
	Account user.Account `json:"account"`
}

func (h *UsersHandler) SignUp(ctx *gin.Context) {
	var req user.SignupRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)

	defer cancel()

	u, err := h.credentials.Signup(cctx, req)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "A user is already registered with this email.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusOK, userResponse{
		ID:      u.ID,
		Token:   u.Token,
		Account: u.Account,
	})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.credentials.Login(cctx, req.Email, req.Password)

	if err != nil {
		// unknown email and bad password are distinct outcomes here
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User unknown")
			return
		}

		if errors.Is(err, user.ErrInvalidCredentials) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Password is incorrect.")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, userResponse{
		ID:      u.ID,
		Token:   u.Token,
		Account: u.Account,
	})
}
