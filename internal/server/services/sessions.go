package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/auth"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Capability is a predicate a resolved user must satisfy.
type Capability func(*models.User) error

// RequireActive rejects disabled accounts.
func RequireActive(u *models.User) error {
	if !u.IsActive {
		return common.ErrInactiveUser
	}
	return nil
}

// RequireAdmin rejects disabled accounts and non-admins.
func RequireAdmin(u *models.User) error {
	if err := RequireActive(u); err != nil {
		return err
	}
	if !u.IsAdmin {
		return common.ErrForbidden
	}
	return nil
}

// RequireOwnerOrAdmin admits admins and the user with id owner.
func RequireOwnerOrAdmin(owner uuid.UUID) Capability {
	return func(u *models.User) error {
		if u.IsAdmin || u.ID == owner {
			return nil
		}
		return common.ErrForbidden
	}
}

// SessionResolver turns a bearer token into a user.
type SessionResolver struct {
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
}

func NewSessionResolver(m repomanager.RepositoryManager, c *auth.Codec) *SessionResolver {
	return &SessionResolver{repomanager: m, codec: c}
}

// Resolve decodes token, loads its user and checks caps in order.
// Failures match common.ErrNotAuthenticated, common.ErrCouldNotValidate or
// whatever a capability returns.
func (r *SessionResolver) Resolve(ctx context.Context, token string, caps ...Capability) (*models.User, error) {
	if token == "" {
		return nil, common.ErrNotAuthenticated
	}

	data, err := r.codec.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCouldNotValidate, err)
	}

	user, err := r.repomanager.Users(r.repomanager.Conn()).GetByID(ctx, data.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", common.ErrCouldNotValidate)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	for _, c := range caps {
		if err := c(user); err != nil {
			return nil, err
		}
	}
	return user, nil
}
