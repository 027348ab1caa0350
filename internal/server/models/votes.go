package models

import "fmt"

// VoteDirection selects which vote set a vote goes to.
type VoteDirection int

const (
	VoteUp VoteDirection = iota + 1
	VoteDown
)

func (d VoteDirection) String() string {
	switch d {
	case VoteUp:
		return "upvote"
	case VoteDown:
		return "downvote"
	}
	return fmt.Sprintf("VoteDirection(%d)", int(d))
}

// sets returns the same-direction and opposite vote sets of user and idea.
func (d VoteDirection) sets(user *User, idea *Idea) (userSame, userOpp, ideaSame, ideaOpp *IDSet) {
	if d == VoteDown {
		return &user.Downvotes, &user.Upvotes, &idea.DownvotedBy, &idea.UpvotedBy
	}
	return &user.Upvotes, &user.Downvotes, &idea.UpvotedBy, &idea.DownvotedBy
}

// ApplyVote records user's vote on idea in both directions of the relation
// and reports whether anything changed. A repeated vote in the same
// direction changes nothing. A vote in the opposite direction moves the
// user from one set to the other.
func ApplyVote(user *User, idea *Idea, dir VoteDirection) bool {
	userSame, userOpp, ideaSame, ideaOpp := dir.sets(user, idea)

	if ideaSame.Has(user.ID) && userSame.Has(idea.ID) {
		return false
	}

	ideaOpp.Remove(user.ID)
	userOpp.Remove(idea.ID)
	ideaSame.Add(user.ID)
	userSame.Add(idea.ID)

	return true
}
