// Package memory implements the user and idea repositories in process
// memory. It backs development runs without a database and handler tests.
package memory

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/ideaboard/internal/dbx"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/google/uuid"
)

// Store holds all rows. Repositories copy values in and out, so callers
// never share memory with the store.
type Store struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	users map[uuid.UUID]*models.User
	ideas map[uuid.UUID]*models.Idea
}

func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]*models.User),
		ideas: make(map[uuid.UUID]*models.Idea),
	}
}

// txKey marks a context as running inside a transaction of s.
type txKey struct{ s *Store }

// undoLog keeps the value every row had before the transaction first
// wrote it. A nil value marks a row the transaction created.
type undoLog struct {
	users map[uuid.UUID]*models.User
	ideas map[uuid.UUID]*models.Idea
}

// WithTx runs fn with transactions serialised. Writes made through the
// context passed to fn are undone if fn fails; writes from outside the
// transaction are left alone.
func (s *Store) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	log := &undoLog{
		users: make(map[uuid.UUID]*models.User),
		ideas: make(map[uuid.UUID]*models.Idea),
	}

	if err := fn(context.WithValue(ctx, txKey{s}, log), nil); err != nil {
		s.rollback(log)
		return err
	}
	return nil
}

func (s *Store) rollback(log *undoLog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range log.users {
		if u == nil {
			delete(s.users, id)
		} else {
			s.users[id] = u
		}
	}
	for id, i := range log.ideas {
		if i == nil {
			delete(s.ideas, id)
		} else {
			s.ideas[id] = i
		}
	}
}

func (s *Store) undo(ctx context.Context) *undoLog {
	log, _ := ctx.Value(txKey{s}).(*undoLog)
	return log
}

// saveUser records the current row for rollback. s.mu must be held.
func (s *Store) saveUser(ctx context.Context, id uuid.UUID) {
	log := s.undo(ctx)
	if log == nil {
		return
	}
	if _, ok := log.users[id]; !ok {
		log.users[id] = s.users[id]
	}
}

// saveIdea records the current row for rollback. s.mu must be held.
func (s *Store) saveIdea(ctx context.Context, id uuid.UUID) {
	log := s.undo(ctx)
	if log == nil {
		return
	}
	if _, ok := log.ideas[id]; !ok {
		log.ideas[id] = s.ideas[id]
	}
}

func (s *Store) Users() *UsersRepository {
	return &UsersRepository{s: s}
}

func (s *Store) Ideas() *IdeasRepository {
	return &IdeasRepository{s: s}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Upvotes = u.Upvotes.Clone()
	c.Downvotes = u.Downvotes.Clone()
	return &c
}

func cloneIdea(i *models.Idea) *models.Idea {
	c := *i
	c.UpvotedBy = i.UpvotedBy.Clone()
	c.DownvotedBy = i.DownvotedBy.Clone()
	return &c
}

func page[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
