package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkoudou/brocante/internal/domain/user"
	"github.com/nkoudou/brocante/internal/security"
)

const avatarFolder = "brocante/avatars"

type CredentialService struct {
	users  UserStore
	images ImageStore
	log    *slog.Logger
}

func NewCredentialService(users UserStore, images ImageStore, log *slog.Logger) *CredentialService {
	return &CredentialService{users: users, images: images, log: log}
}

// Signup registers a new user: uniqueness check, fresh salt and token,
// salted hash, persist. The optional avatar upload is best-effort and never
// fails the signup.
func (s *CredentialService) Signup(ctx context.Context, req user.SignupRequest) (user.User, error) {
	// pre-check; the store's unique constraint closes the remaining race
	_, err := s.users.GetByEmail(ctx, req.Email)

	if err == nil {
		return user.User{}, user.ErrEmailTaken
	}

	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}

	salt, err := security.NewSalt()

	if err != nil {
		return user.User{}, err
	}

	token, err := security.NewToken()

	if err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:    uuid.NewString(),
		Email: req.Email,
		Account: user.Account{
			Username: req.Username,
			Phone:    req.Phone,
		},
		Token:     token,
		Salt:      salt,
		Hash:      security.HashPassword(req.Password, salt),
		CreatedAt: now,
		UpdatedAt: now,
	}

	u, err = s.users.Create(ctx, u)

	if err != nil {
		return user.User{}, err
	}

	if req.Avatar != "" {
		s.uploadAvatar(ctx, &u, req.Avatar)
	}

	return u, nil
}

// uploadAvatar is deliberately non-fatal: the user already exists, a failed
// upload just leaves the account without an avatar.
func (s *CredentialService) uploadAvatar(ctx context.Context, u *user.User, source string) {
	if s.images == nil {
		return
	}

	ref, err := s.images.Upload(ctx, source, u.ID, avatarFolder)

	if err != nil {
		s.log.Warn("avatar upload failed", "user_id", u.ID, "err", err)
		return
	}

	if err := s.users.SetAvatar(ctx, u.ID, ref); err != nil {
		s.log.Warn("avatar save failed", "user_id", u.ID, "err", err)
		return
	}

	u.Account.Avatar = &ref
}

// Login verifies the credentials and returns the matching user. Unknown
// email and bad password stay distinguishable.
func (s *CredentialService) Login(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		return user.User{}, err
	}

	if !security.VerifyPassword(u.Hash, password, u.Salt) {
		return user.User{}, user.ErrInvalidCredentials
	}

	return u, nil
}

// Authenticate resolves a bearer token to its user by exact match.
func (s *CredentialService) Authenticate(ctx context.Context, bearer string) (user.User, error) {
	token := strings.TrimSpace(bearer)

	if token == "" {
		return user.User{}, user.ErrInvalidCredentials
	}

	u, err := s.users.GetByToken(ctx, token)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, user.ErrInvalidCredentials
		}

		return user.User{}, err
	}

	return u, nil
}
