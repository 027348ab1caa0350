// Package ideas provides persistence for ideas and their vote sets.
package ideas

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/google/uuid"
)

// SortOrder selects the ordering of idea listings.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortName   SortOrder = "name"
	// SortTop orders by upvotes minus downvotes, newest first on ties.
	SortTop SortOrder = "top"
)

// ParseSort validates s. An empty string selects SortNewest.
func ParseSort(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortName, SortTop:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

type ListOptions struct {
	Skip  int
	Limit int
	Sort  SortOrder
}

type Repository interface {
	Create(ctx context.Context, idea *models.Idea) (*models.Idea, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Idea, error)
	List(ctx context.Context, opts ListOptions) ([]*models.Idea, error)
	Count(ctx context.Context) (int, error)
	// ListByCreator and ListByIDs return ideas ordered by name.
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Idea, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Idea, error)
	// Update persists name, description and modified_at.
	Update(ctx context.Context, idea *models.Idea) error
	UpdateVotes(ctx context.Context, idea *models.Idea) error
	Delete(ctx context.Context, id uuid.UUID) error
}
