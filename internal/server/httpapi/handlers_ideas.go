package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/ideas"
	"github.com/dmitrijs2005/ideaboard/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const detailIdeaNotFound = "Idea not found"

func ideaErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return withDetail(err, detailIdeaNotFound)
	}
	return err
}

func (a *API) handleCreateIdea(c *gin.Context) {
	var req ideaCreateRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	idea, err := a.ideas.Create(c.Request.Context(), currentUser(c), services.IdeaCreate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newIdeaResponse(idea))
}

func (a *API) handleListIdeas(c *gin.Context) {
	skip, limit, err := pageParams(c)
	if err != nil {
		writeError(c, err)
		return
	}
	sort, err := ideas.ParseSort(c.Query("sort"))
	if err != nil {
		writeError(c, invalid(err.Error()))
		return
	}

	ctx := c.Request.Context()
	list, err := a.ideas.List(ctx, ideas.ListOptions{Skip: skip, Limit: limit, Sort: sort})
	if err != nil {
		writeError(c, err)
		return
	}
	total, err := a.ideas.Count(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ideaListResponse{Data: newIdeaList(list), Count: total})
}

func (a *API) handleCountIdeas(c *gin.Context) {
	n, err := a.ideas.Count(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (a *API) handleGetIdea(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	idea, err := a.ideas.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, ideaErr(err))
		return
	}
	c.JSON(http.StatusOK, newIdeaResponse(idea))
}

func (a *API) handlePatchIdea(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req ideaPatchRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	idea, err := a.ideas.Update(c.Request.Context(), currentUser(c), id, services.IdeaPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, ideaErr(err))
		return
	}
	c.JSON(http.StatusOK, newIdeaResponse(idea))
}

func (a *API) handleDeleteIdea(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := a.ideas.Delete(c.Request.Context(), id); err != nil {
		writeError(c, ideaErr(err))
		return
	}
	loggerFrom(c).Info(c.Request.Context(), "idea deleted", "idea_id", id, "by", currentUser(c).ID)
	c.JSON(http.StatusOK, gin.H{"message": "Idea deleted successfully"})
}

func (a *API) handleUpvote(c *gin.Context) {
	a.handleVote(c, models.VoteUp)
}

func (a *API) handleDownvote(c *gin.Context) {
	a.handleVote(c, models.VoteDown)
}

// handleVote requires the body idea_id to repeat the path id.
func (a *API) handleVote(c *gin.Context, dir models.VoteDirection) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req voteRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	bodyID, err := uuid.Parse(req.IdeaID)
	if err != nil || bodyID != id {
		writeError(c, invalid("idea_id does not match the path"))
		return
	}

	idea, err := a.votes.Vote(c.Request.Context(), currentUser(c), id, dir)
	if err != nil {
		writeError(c, ideaErr(err))
		return
	}
	c.JSON(http.StatusOK, newIdeaResponse(idea))
}
