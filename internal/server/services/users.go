package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/auth"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// Page clamps listing parameters: a non-positive limit becomes
// DefaultPageLimit and limits above MaxPageLimit are capped.
func Page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return skip, min(limit, MaxPageLimit)
}

type UserCreate struct {
	Username string
	Name     string
	Password string
	IsAdmin  bool
}

// AdminUserPatch holds the fields an admin may change. Nil fields are
// left as they are.
type AdminUserPatch struct {
	Name        *string
	NewPassword *string
	IsActive    *bool
	IsAdmin     *bool
}

// UserPatch holds the fields users may change on themselves. A new
// password needs the current one in OldPassword.
type UserPatch struct {
	Name        *string
	OldPassword *string
	NewPassword *string
}

// UserIdeas lists the ideas a user created.
type UserIdeas struct {
	Username string
	Ideas    []*models.Idea
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	credentials *CredentialService
	now         func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, h *auth.Hasher, c *CredentialService) *UserService {
	return &UserService{repomanager: m, hasher: h, credentials: c, now: time.Now}
}

// Register creates an active non-admin user and logs it in.
func (s *UserService) Register(ctx context.Context, in UserCreate) (*LoginData, error) {
	in.IsAdmin = false
	user, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.credentials.Login(user)
}

// CreateByAdmin creates an active user, optionally with admin rights.
func (s *UserService) CreateByAdmin(ctx context.Context, in UserCreate) (*models.User, error) {
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in UserCreate) (*models.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:       in.Username,
		Name:           in.Name,
		HashedPassword: hash,
		IsActive:       true,
		IsAdmin:        in.IsAdmin,
	}

	u, err := s.repomanager.Users(s.repomanager.Conn()).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	skip, limit = Page(skip, limit)
	return s.repomanager.Users(s.repomanager.Conn()).List(ctx, skip, limit)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, id)
}

func (s *UserService) AdminUpdate(ctx context.Context, id uuid.UUID, patch AdminUserPatch) (*models.User, error) {
	repo := s.repomanager.Users(s.repomanager.Conn())

	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.NewPassword != nil {
		if user.HashedPassword, err = s.hasher.Hash(*patch.NewPassword); err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.IsAdmin != nil {
		user.IsAdmin = *patch.IsAdmin
	}

	return s.save(ctx, user)
}

// UpdateMe applies patch to user. A wrong or missing old password yields
// common.ErrInvalidPassword.
func (s *UserService) UpdateMe(ctx context.Context, user *models.User, patch UserPatch) (*models.User, error) {
	updated := *user

	if patch.NewPassword != nil {
		if patch.OldPassword == nil || !s.hasher.Verify(*patch.OldPassword, user.HashedPassword) {
			return nil, common.ErrInvalidPassword
		}
		hash, err := s.hasher.Hash(*patch.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		updated.HashedPassword = hash
	}
	if patch.Name != nil {
		updated.Name = *patch.Name
	}

	return s.save(ctx, &updated)
}

func (s *UserService) save(ctx context.Context, user *models.User) (*models.User, error) {
	user.ModifiedAt = s.now().UTC()
	if err := s.repomanager.Users(s.repomanager.Conn()).Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IdeasOf returns the ideas created by the user with the given id.
func (s *UserService) IdeasOf(ctx context.Context, id uuid.UUID) (*UserIdeas, error) {
	db := s.repomanager.Conn()

	user, err := s.repomanager.Users(db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	list, err := s.repomanager.Ideas(db).ListByCreator(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &UserIdeas{Username: user.Username, Ideas: list}, nil
}
