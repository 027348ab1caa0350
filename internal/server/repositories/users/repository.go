// Package users provides persistence for registered users.
package users

import (
	"context"

	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// List returns users ordered by name.
	List(ctx context.Context, skip, limit int) ([]*models.User, error)
	// Update persists name, password hash, flags and modified_at.
	Update(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	// UpdateVotes persists the user's upvote and downvote sets.
	UpdateVotes(ctx context.Context, user *models.User) error
	// RemoveIdeaVotes drops ideaID from every user's vote sets.
	RemoveIdeaVotes(ctx context.Context, ideaID uuid.UUID) error
}
