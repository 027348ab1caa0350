package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	detailUserNotFound = "User not found"
	detailUserExists   = "Username already registered"
)

func userErr(err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return withDetail(err, detailUserNotFound)
	case errors.Is(err, common.ErrorAlreadyExists):
		return withDetail(err, detailUserExists)
	}
	return err
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, invalid(key + " must be a non-negative integer")
	}
	return n, nil
}

func pageParams(c *gin.Context) (int, int, error) {
	skip, err := queryInt(c, "skip")
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	return skip, limit, nil
}

func (a *API) handleRegister(c *gin.Context) {
	var req userCreateRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	data, err := a.users.Register(c.Request.Context(), req.toService())
	if err != nil {
		writeError(c, userErr(err))
		return
	}
	loggerFrom(c).Info(c.Request.Context(), "user registered", "user_id", data.User.ID)
	a.writeLogin(c, http.StatusCreated, data)
}

func (a *API) handleCreateUser(c *gin.Context) {
	var req userCreateRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	u, err := a.users.CreateByAdmin(c.Request.Context(), req.toService())
	if err != nil {
		writeError(c, userErr(err))
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(u))
}

func (a *API) handleListUsers(c *gin.Context) {
	skip, limit, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}

	list, err := a.users.List(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	res := make([]userResponse, 0, len(list))
	for _, u := range list {
		res = append(res, newUserResponse(u))
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) handleGetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	u, err := a.users.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, userErr(err))
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (a *API) handlePatchUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req adminUserPatchRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	u, err := a.users.AdminUpdate(c.Request.Context(), id, services.AdminUserPatch{
		Name:        req.Name,
		NewPassword: req.NewPassword,
		IsActive:    req.IsActive,
		IsAdmin:     req.IsAdmin,
	})
	if err != nil {
		writeError(c, userErr(err))
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (a *API) handleUserIdeas(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := a.users.IdeasOf(c.Request.Context(), id)
	if err != nil {
		writeError(c, userErr(err))
		return
	}
	c.JSON(http.StatusOK, userIdeasResponse{
		Username: res.Username,
		Data:     newIdeaList(res.Ideas),
		Count:    len(res.Ideas),
	})
}

func (a *API) handleGetMe(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(currentUser(c)))
}

func (a *API) handlePatchMe(c *gin.Context) {
	var req userPatchRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	u, err := a.users.UpdateMe(c.Request.Context(), currentUser(c), services.UserPatch{
		Name:        req.Name,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (a *API) handleMyIdeas(c *gin.Context) {
	list, err := a.ideas.ListByCreator(c.Request.Context(), currentUser(c).ID)
	a.writeIdeaList(c, list, err)
}

func (a *API) handleMyUpvotes(c *gin.Context) {
	a.writeVotedIdeas(c, currentUser(c).Upvotes)
}

func (a *API) handleMyDownvotes(c *gin.Context) {
	a.writeVotedIdeas(c, currentUser(c).Downvotes)
}

func (a *API) writeVotedIdeas(c *gin.Context, ids models.IDSet) {
	list, err := a.ideas.ListByIDs(c.Request.Context(), []uuid.UUID(ids))
	a.writeIdeaList(c, list, err)
}

func (a *API) writeIdeaList(c *gin.Context, list []*models.Idea, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ideaListResponse{Data: newIdeaList(list), Count: len(list)})
}
