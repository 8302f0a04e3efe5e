package memory

import (
	"context"
	"sync"

	"github.com/nkoudou/brocante/internal/domain/user"
)

// UsersRepo is an in-memory stand-in for the postgres repo, used by tests.
type UsersRepo struct {
	mu    sync.RWMutex
	users map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{users: make(map[string]user.User)}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByToken(_ context.Context, token string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Token == token {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) SetAvatar(_ context.Context, userID string, ref user.ImageRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]

	if !ok {
		return user.ErrNotFound
	}

	u.Account.Avatar = &user.ImageRef{PublicID: ref.PublicID, URL: ref.URL}
	r.users[userID] = u

	return nil
}
