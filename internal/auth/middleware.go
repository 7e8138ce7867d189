package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/ecopoints-api/internal/services"
)

const APIKeyHeader = "X-API-KEY"

// Middleware resolves the caller of every huma operation and enforces the
// access level the policy assigns to it. Credentials come from a bearer
// access token or, failing that, an API key.
func (h *AuthHandler) Middleware(api huma.API, policy Policy) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		access := policy.For(ctx.Operation().OperationID)
		if access == Public {
			next(ctx)
			return
		}

		var (
			userID uint
			via    string
		)
		if bearer := bearerToken(ctx.Header("Authorization")); bearer != "" {
			id, err := h.tokens.Parse(bearer, TokenTypeAccess)
			if err != nil {
				huma.WriteErr(api, ctx, http.StatusUnauthorized, "Unauthorized: invalid token")
				return
			}
			userID, via = id, "bearer"
		} else if key := ctx.Header(APIKeyHeader); key != "" {
			id, err := h.apiKeys.Resolve(ctx.Context(), key)
			if err != nil {
				huma.WriteErr(api, ctx, http.StatusUnauthorized, "Unauthorized: "+err.Error())
				return
			}
			userID, via = id, "api_key"
		} else {
			huma.WriteErr(api, ctx, http.StatusUnauthorized, "Unauthorized: no credentials")
			return
		}

		user, err := h.identity.Get(ctx.Context(), userID)
		if err != nil {
			var nf *services.NotFoundError
			if errors.As(err, &nf) {
				huma.WriteErr(api, ctx, http.StatusUnauthorized, "Unauthorized: unknown user")
				return
			}
			h.log.WithError(err).Error("failed to load principal")
			huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal error")
			return
		}
		if !user.Active {
			huma.WriteErr(api, ctx, http.StatusForbidden, "Forbidden: account is disabled")
			return
		}
		if access == AdminOnly && !user.IsAdmin() {
			huma.WriteErr(api, ctx, http.StatusForbidden, "Forbidden: administrators only")
			return
		}

		next(huma.WithContext(ctx, WithPrincipal(ctx.Context(), Principal{User: *user, Via: via})))
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
