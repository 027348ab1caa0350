package services

import (
	"context"

	"github.com/dmitrijs2005/ideaboard/internal/dbx"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type VoteService struct {
	repomanager repomanager.RepositoryManager
}

func NewVoteService(m repomanager.RepositoryManager) *VoteService {
	return &VoteService{repomanager: m}
}

// Vote records user's vote on an idea and returns the updated idea.
// Voting the same way twice writes nothing.
func (s *VoteService) Vote(ctx context.Context, user *models.User, ideaID uuid.UUID, dir models.VoteDirection) (*models.Idea, error) {
	var idea *models.Idea

	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		ideasRepo := s.repomanager.Ideas(tx)
		usersRepo := s.repomanager.Users(tx)

		var err error
		if idea, err = ideasRepo.GetByID(ctx, ideaID); err != nil {
			return err
		}
		voter, err := usersRepo.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}

		if !models.ApplyVote(voter, idea, dir) {
			return nil
		}

		if err := ideasRepo.UpdateVotes(ctx, idea); err != nil {
			return err
		}
		if err := usersRepo.UpdateVotes(ctx, voter); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idea, nil
}
