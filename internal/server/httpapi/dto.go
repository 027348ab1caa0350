package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/services"
	"github.com/google/uuid"
)

// normalizer is implemented by request bodies that trim their input
// before validation.
type normalizer interface {
	normalize()
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type userCreateRequest struct {
	Username string `json:"username" binding:"required,min=1,max=255"`
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Password string `json:"password" binding:"required,min=8,max=255"`
	IsAdmin  bool   `json:"is_admin"`
}

func (r *userCreateRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Name = strings.TrimSpace(r.Name)
}

func (r *userCreateRequest) toService() services.UserCreate {
	return services.UserCreate{Username: r.Username, Name: r.Name, Password: r.Password, IsAdmin: r.IsAdmin}
}

type adminUserPatchRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	NewPassword *string `json:"new_password" binding:"omitempty,min=8,max=255"`
	IsActive    *bool   `json:"is_active"`
	IsAdmin     *bool   `json:"is_admin"`
}

func (r *adminUserPatchRequest) normalize() { trimPtr(r.Name) }

type userPatchRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	OldPassword *string `json:"old_password" binding:"omitempty,max=255"`
	NewPassword *string `json:"new_password" binding:"omitempty,min=8,max=255"`
}

func (r *userPatchRequest) normalize() { trimPtr(r.Name) }

type ideaCreateRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=5000"`
}

func (r *ideaCreateRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

type ideaPatchRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
}

func (r *ideaPatchRequest) normalize() {
	trimPtr(r.Name)
	trimPtr(r.Description)
}

type voteRequest struct {
	IdeaID string `json:"idea_id" binding:"required"`
}

func (r *voteRequest) normalize() { r.IdeaID = strings.TrimSpace(r.IdeaID) }

type userResponse struct {
	ID         uuid.UUID   `json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	ModifiedAt time.Time   `json:"modified_at"`
	Username   string      `json:"username"`
	Name       string      `json:"name"`
	IsActive   bool        `json:"is_active"`
	IsAdmin    bool        `json:"is_admin"`
	Upvotes    []uuid.UUID `json:"upvotes"`
	Downvotes  []uuid.UUID `json:"downvotes"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		CreatedAt:  u.CreatedAt,
		ModifiedAt: u.ModifiedAt,
		Username:   u.Username,
		Name:       u.Name,
		IsActive:   u.IsActive,
		IsAdmin:    u.IsAdmin,
		Upvotes:    orEmpty(u.Upvotes),
		Downvotes:  orEmpty(u.Downvotes),
	}
}

type ideaResponse struct {
	ID          uuid.UUID   `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	ModifiedAt  time.Time   `json:"modified_at"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	UpvotedBy   []uuid.UUID `json:"upvoted_by"`
	DownvotedBy []uuid.UUID `json:"downvoted_by"`
	CreatorID   uuid.UUID   `json:"creator_id"`
}

func newIdeaResponse(i *models.Idea) ideaResponse {
	return ideaResponse{
		ID:          i.ID,
		CreatedAt:   i.CreatedAt,
		ModifiedAt:  i.ModifiedAt,
		Name:        i.Name,
		Description: i.Description,
		UpvotedBy:   orEmpty(i.UpvotedBy),
		DownvotedBy: orEmpty(i.DownvotedBy),
		CreatorID:   i.CreatorID,
	}
}

func newIdeaList(list []*models.Idea) []ideaResponse {
	res := make([]ideaResponse, 0, len(list))
	for _, i := range list {
		res = append(res, newIdeaResponse(i))
	}
	return res
}

type loginResponse struct {
	UserData userResponse         `json:"user_data"`
	Token    services.AccessToken `json:"token"`
}

type ideaListResponse struct {
	Data  []ideaResponse `json:"data"`
	Count int            `json:"count"`
}

type userIdeasResponse struct {
	Username string         `json:"username"`
	Data     []ideaResponse `json:"data"`
	Count    int            `json:"count"`
}

func orEmpty(s models.IDSet) []uuid.UUID {
	if s == nil {
		return []uuid.UUID{}
	}
	return s
}
