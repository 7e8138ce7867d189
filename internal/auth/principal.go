package auth

import (
	"context"

	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/gdg-garage/ecopoints-api/internal/services"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the caller resolved by the middleware.
type Principal struct {
	User models.User
	// Via is "bearer" or "api_key".
	Via string
}

func (p Principal) Viewer() services.Viewer {
	return services.Viewer{UserID: p.User.ID, Admin: p.User.IsAdmin()}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
