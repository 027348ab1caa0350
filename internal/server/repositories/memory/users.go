package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/google/uuid"
)

type UsersRepository struct {
	s *Store
}

func (r *UsersRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, common.ErrorAlreadyExists
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.ModifiedAt.IsZero() {
		user.ModifiedAt = user.CreatedAt
	}
	if user.Upvotes == nil {
		user.Upvotes = models.IDSet{}
	}
	if user.Downvotes == nil {
		user.Downvotes = models.IDSet{}
	}

	r.s.saveUser(ctx, user.ID)
	r.s.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	r.s.mu.RLock()
	all := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, cloneUser(u))
	}
	r.s.mu.RUnlock()

	slices.SortFunc(all, func(a, b *models.User) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return page(all, skip, limit), nil
}

func (r *UsersRepository) Update(ctx context.Context, user *models.User) error {
	return r.modify(ctx, user.ID, func(u *models.User) {
		u.Name = user.Name
		u.HashedPassword = user.HashedPassword
		u.IsActive = user.IsActive
		u.IsAdmin = user.IsAdmin
		u.ModifiedAt = user.ModifiedAt
	})
}

func (r *UsersRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.modify(ctx, id, func(u *models.User) {
		u.HashedPassword = hash
	})
}

func (r *UsersRepository) UpdateVotes(ctx context.Context, user *models.User) error {
	return r.modify(ctx, user.ID, func(u *models.User) {
		u.Upvotes = user.Upvotes.Clone()
		u.Downvotes = user.Downvotes.Clone()
	})
}

func (r *UsersRepository) RemoveIdeaVotes(ctx context.Context, ideaID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, u := range r.s.users {
		if !u.Upvotes.Has(ideaID) && !u.Downvotes.Has(ideaID) {
			continue
		}
		c := cloneUser(u)
		c.Upvotes.Remove(ideaID)
		c.Downvotes.Remove(ideaID)
		r.s.saveUser(ctx, id)
		r.s.users[id] = c
	}
	return nil
}

// modify replaces the stored row with an edited copy, so the undo log of
// an open transaction keeps the old value.
func (r *UsersRepository) modify(ctx context.Context, id uuid.UUID, edit func(u *models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	c := cloneUser(u)
	edit(c)
	r.s.saveUser(ctx, id)
	r.s.users[id] = c
	return nil
}
