package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/dbx"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/ideas"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type IdeaCreate struct {
	Name        string
	Description string
}

// IdeaPatch holds the editable idea fields. Nil fields are left as they are.
type IdeaPatch struct {
	Name        *string
	Description *string
}

type IdeaService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewIdeaService(m repomanager.RepositoryManager) *IdeaService {
	return &IdeaService{repomanager: m, now: time.Now}
}

func (s *IdeaService) repo() ideas.Repository {
	return s.repomanager.Ideas(s.repomanager.Conn())
}

func (s *IdeaService) Create(ctx context.Context, user *models.User, in IdeaCreate) (*models.Idea, error) {
	return s.repo().Create(ctx, &models.Idea{
		Name:        in.Name,
		Description: in.Description,
		CreatorID:   user.ID,
	})
}

func (s *IdeaService) List(ctx context.Context, opts ideas.ListOptions) ([]*models.Idea, error) {
	opts.Skip, opts.Limit = Page(opts.Skip, opts.Limit)
	if opts.Sort == "" {
		opts.Sort = ideas.SortNewest
	}
	return s.repo().List(ctx, opts)
}

func (s *IdeaService) Count(ctx context.Context) (int, error) {
	return s.repo().Count(ctx)
}

func (s *IdeaService) Get(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	return s.repo().GetByID(ctx, id)
}

// Update edits an idea. Only its creator or an admin may do so.
func (s *IdeaService) Update(ctx context.Context, user *models.User, id uuid.UUID, patch IdeaPatch) (*models.Idea, error) {
	repo := s.repo()

	idea, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireOwnerOrAdmin(idea.CreatorID)(user); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		idea.Name = *patch.Name
	}
	if patch.Description != nil {
		idea.Description = *patch.Description
	}
	idea.ModifiedAt = s.now().UTC()

	if err := repo.Update(ctx, idea); err != nil {
		return nil, err
	}
	return idea, nil
}

// Delete removes an idea and every vote cast on it.
func (s *IdeaService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Ideas(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Users(tx).RemoveIdeaVotes(ctx, id)
	})
}

func (s *IdeaService) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Idea, error) {
	return s.repo().ListByIDs(ctx, ids)
}

func (s *IdeaService) ListByCreator(ctx context.Context, creator uuid.UUID) ([]*models.Idea, error) {
	return s.repo().ListByCreator(ctx, creator)
}
