package actorctx

import (
	"context"

	"github.com/nkoudou/brocante/internal/domain/user"
)

type ctxKey string

const keyUser ctxKey = "actor.user"

func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, keyUser, u)
}

func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(keyUser).(user.User)

	return u, ok && u.ID != ""
}
