package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered principal. HashedPassword is an opaque PHC or bcrypt
// string whose format identifies the hashing scheme.
type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	ModifiedAt     time.Time
	Username       string
	Name           string
	HashedPassword string
	IsActive       bool
	IsAdmin        bool
	Upvotes        IDSet
	Downvotes      IDSet
}
