package auth

import (
	"context"
	"fmt"

	"expense-ledger/internal/models"
)

// UserFinder looks users up by id.
type UserFinder interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Guard resolves bearer tokens to users.
type Guard struct {
	tokens *TokenService
	users  UserFinder
}

// NewGuard creates a Guard.
func NewGuard(tokens *TokenService, users UserFinder) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate verifies an access token and loads its subject. Every failure,
// including an unknown subject, wraps ErrUnauthorized.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := g.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %d: %v", ErrUnauthorized, userID, err)
	}
	return user, nil
}
