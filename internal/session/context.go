package session

import (
	"context"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
)

type userContextKey struct{}

// WithUser кладёт текущего пользователя в контекст запроса.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext возвращает пользователя, положенного WithUser.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*domain.User)
	return user, ok && user != nil
}
