package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/ideas"
	"github.com/google/uuid"
)

type IdeasRepository struct {
	s *Store
}

func (r *IdeasRepository) Create(ctx context.Context, idea *models.Idea) (*models.Idea, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if idea.ID == uuid.Nil {
		idea.ID = uuid.New()
	}
	if idea.CreatedAt.IsZero() {
		idea.CreatedAt = time.Now().UTC()
	}
	if idea.ModifiedAt.IsZero() {
		idea.ModifiedAt = idea.CreatedAt
	}
	if idea.UpvotedBy == nil {
		idea.UpvotedBy = models.IDSet{}
	}
	if idea.DownvotedBy == nil {
		idea.DownvotedBy = models.IDSet{}
	}

	r.s.saveIdea(ctx, idea.ID)
	r.s.ideas[idea.ID] = cloneIdea(idea)
	return idea, nil
}

func (r *IdeasRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i, ok := r.s.ideas[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneIdea(i), nil
}

func (r *IdeasRepository) List(ctx context.Context, opts ideas.ListOptions) ([]*models.Idea, error) {
	all := r.filter(func(*models.Idea) bool { return true })
	slices.SortFunc(all, compareFor(opts.Sort))
	return page(all, opts.Skip, opts.Limit), nil
}

func (r *IdeasRepository) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.ideas), nil
}

func (r *IdeasRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Idea, error) {
	res := r.filter(func(i *models.Idea) bool { return i.CreatorID == creatorID })
	slices.SortFunc(res, compareFor(ideas.SortName))
	return res, nil
}

func (r *IdeasRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Idea, error) {
	set := models.IDSet(ids)
	res := r.filter(func(i *models.Idea) bool { return set.Has(i.ID) })
	slices.SortFunc(res, compareFor(ideas.SortName))
	return res, nil
}

func (r *IdeasRepository) Update(ctx context.Context, idea *models.Idea) error {
	return r.modify(ctx, idea.ID, func(i *models.Idea) {
		i.Name = idea.Name
		i.Description = idea.Description
		i.ModifiedAt = idea.ModifiedAt
	})
}

func (r *IdeasRepository) UpdateVotes(ctx context.Context, idea *models.Idea) error {
	return r.modify(ctx, idea.ID, func(i *models.Idea) {
		i.UpvotedBy = idea.UpvotedBy.Clone()
		i.DownvotedBy = idea.DownvotedBy.Clone()
	})
}

func (r *IdeasRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.ideas[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.saveIdea(ctx, id)
	delete(r.s.ideas, id)
	return nil
}

func (r *IdeasRepository) filter(keep func(*models.Idea) bool) []*models.Idea {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make([]*models.Idea, 0)
	for _, i := range r.s.ideas {
		if keep(i) {
			res = append(res, cloneIdea(i))
		}
	}
	return res
}

func (r *IdeasRepository) modify(ctx context.Context, id uuid.UUID, edit func(i *models.Idea)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i, ok := r.s.ideas[id]
	if !ok {
		return common.ErrorNotFound
	}
	c := cloneIdea(i)
	edit(c)
	r.s.saveIdea(ctx, id)
	r.s.ideas[id] = c
	return nil
}

func compareFor(order ideas.SortOrder) func(a, b *models.Idea) int {
	byID := func(a, b *models.Idea) int { return cmp.Compare(a.ID.String(), b.ID.String()) }

	switch order {
	case ideas.SortOldest:
		return func(a, b *models.Idea) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), byID(a, b))
		}
	case ideas.SortName:
		return func(a, b *models.Idea) int {
			return cmp.Or(cmp.Compare(a.Name, b.Name), byID(a, b))
		}
	case ideas.SortTop:
		return func(a, b *models.Idea) int {
			return cmp.Or(cmp.Compare(b.Score(), a.Score()), b.CreatedAt.Compare(a.CreatedAt), byID(a, b))
		}
	default:
		return func(a, b *models.Idea) int {
			return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), byID(a, b))
		}
	}
}
