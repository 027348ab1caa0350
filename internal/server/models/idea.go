package models

import (
	"time"

	"github.com/google/uuid"
)

type Idea struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	ModifiedAt  time.Time
	Name        string
	Description string
	UpvotedBy   IDSet
	DownvotedBy IDSet
	CreatorID   uuid.UUID
}

// Score is the number of upvotes minus the number of downvotes.
func (i *Idea) Score() int {
	return len(i.UpvotedBy) - len(i.DownvotedBy)
}
