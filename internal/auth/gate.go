package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskhub/internal/cache"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

const userCacheTTL = 5 * time.Minute

const (
	contextUserKey  = "auth_user"
	contextTokenKey = "auth_token"
)

// VerifiedToken is what the signature pre-check stores in the request
// context before the gate runs. Raw is kept because logout must revoke
// exactly the token that was presented.
type VerifiedToken struct {
	Claims *Claims
	Raw    string
}

// Gate authorizes requests whose token already passed signature
// verification. It resolves the user behind the claims and confirms the
// literal token string is still a member of that user's token set, which is
// what makes revocation immediate regardless of signature validity.
// Every failure collapses to a bare 401.
type Gate struct {
	users repository.UserRepository
	cache *cache.Client
}

// NewGate creates the authorization gate.
func NewGate(users repository.UserRepository, cache *cache.Client) *Gate {
	return &Gate{users: users, cache: cache}
}

// Middleware returns the Echo middleware enforcing the gate. It expects a
// *VerifiedToken under the jwt middleware's context key.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			verified, ok := c.Get("user").(*VerifiedToken)
			if !ok {
				return echo.ErrUnauthorized
			}

			ctx := c.Request().Context()
			user, err := g.resolveUser(ctx, verified.Claims.UserID)
			if err != nil {
				return echo.ErrUnauthorized
			}

			// Membership is always checked against the store, never the
			// cache, so a revoked token dies on the next request.
			member, err := g.users.HasToken(ctx, user.ID, verified.Raw)
			if err != nil || !member {
				return echo.ErrUnauthorized
			}

			c.Set(contextUserKey, user)
			c.Set(contextTokenKey, verified.Raw)
			return next(c)
		}
	}
}

func (g *Gate) resolveUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := userCacheKey(id)
	if data, _ := g.cache.Get(ctx, key); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := g.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = g.cache.Set(ctx, key, payload, userCacheTTL)
	}
	return user, nil
}

func userCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

// CurrentUser returns the identity the gate resolved for this request, or
// nil on an unguarded route.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(contextUserKey).(*model.User)
	return user
}

// PresentedToken returns the raw token string the gate accepted for this
// request.
func PresentedToken(c echo.Context) string {
	token, _ := c.Get(contextTokenKey).(string)
	return token
}
