package adminctl

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/auth"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ideaboard/internal/server/services"
)

// SeedPassword is the password of every seeded user.
const SeedPassword = "password"

var (
	firstNames = []string{"Ada", "Alan", "Barbara", "Dennis", "Edsger", "Frances", "Grace", "Ken", "Linus", "Margaret", "Niklaus", "Radia", "Rob", "Tony"}
	lastNames  = []string{"Lovelace", "Turing", "Liskov", "Ritchie", "Dijkstra", "Allen", "Hopper", "Thompson", "Torvalds", "Hamilton", "Wirth", "Perlman", "Pike", "Hoare"}
	words      = []string{
		"shared", "calendar", "dark", "mode", "export", "offline", "sync", "faster", "search", "weekly",
		"digest", "team", "board", "mobile", "widget", "keyboard", "shortcuts", "public", "roadmap", "voting",
		"comments", "tags", "archive", "better", "onboarding", "reports", "api", "webhooks", "import", "themes",
	}
)

type SeedOptions struct {
	Users int
	Ideas int
	Seed  uint64
}

type SeedResult struct {
	Users int
	Ideas int
	Votes int
}

// Seed fills the database with sample users, ideas and votes.
func (a *App) Seed(ctx context.Context, args []string) error {
	fs, dsn := a.flagSet("seed")
	nUsers := fs.Int("users", 10, "number of users")
	nIdeas := fs.Int("ideas", 20, "number of ideas")
	seed := fs.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rm, svc, err := a.open(ctx, *dsn)
	if err != nil {
		return err
	}
	defer rm.Close()

	s := &seeder{
		repomanager: rm,
		ideas:       svc.Ideas,
		votes:       svc.Votes,
		bcryptCost:  a.bcryptCost,
	}
	res, err := s.run(ctx, SeedOptions{Users: *nUsers, Ideas: *nIdeas, Seed: *seed})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Database seeded: %d users, %d ideas, %d votes\n", res.Users, res.Ideas, res.Votes)
	return nil
}

type seeder struct {
	repomanager repomanager.RepositoryManager
	ideas       *services.IdeaService
	votes       *services.VoteService
	bcryptCost  int
	rnd         *rand.Rand
}

func (s *seeder) run(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	if opts.Users <= 0 {
		return nil, errors.New("seed needs at least one user")
	}
	if opts.Ideas < 0 {
		return nil, errors.New("number of ideas must not be negative")
	}
	s.rnd = rand.New(rand.NewPCG(opts.Seed, opts.Seed>>1|1))

	// Seeded users keep a bcrypt hash so their first login upgrades it.
	hash, err := auth.HashBcrypt(SeedPassword, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing seed password: %w", err)
	}

	users := make([]*models.User, 0, opts.Users)
	for i := range opts.Users {
		u, err := s.user(ctx, i+1, hash)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	res := &SeedResult{Users: len(users)}
	for range opts.Ideas {
		creator := users[s.rnd.IntN(len(users))]
		idea, err := s.ideas.Create(ctx, creator, services.IdeaCreate{
			Name:        s.sentence(3, 6),
			Description: s.paragraph(2, 5),
		})
		if err != nil {
			return nil, fmt.Errorf("error creating idea: %w", err)
		}
		res.Ideas++

		for _, voter := range users {
			if voter.ID == creator.ID {
				continue
			}
			var dir models.VoteDirection
			switch s.rnd.IntN(3) {
			case 0:
				dir = models.VoteUp
			case 1:
				dir = models.VoteDown
			default:
				continue
			}
			if _, err := s.votes.Vote(ctx, voter, idea.ID, dir); err != nil {
				return nil, fmt.Errorf("error voting: %w", err)
			}
			res.Votes++
		}
	}
	return res, nil
}

// user creates the n-th seed user or returns it when a previous run did.
func (s *seeder) user(ctx context.Context, n int, hash string) (*models.User, error) {
	repo := s.repomanager.Users(s.repomanager.Conn())
	username := fmt.Sprintf("user%d", n)

	u, err := repo.Create(ctx, &models.User{
		Username:       username,
		Name:           firstNames[s.rnd.IntN(len(firstNames))] + " " + lastNames[s.rnd.IntN(len(lastNames))],
		HashedPassword: hash,
		IsActive:       true,
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return repo.GetByUsername(ctx, username)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating user %s: %w", username, err)
	}
	return u, nil
}

func (s *seeder) sentence(minWords, maxWords int) string {
	n := minWords + s.rnd.IntN(maxWords-minWords+1)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[s.rnd.IntN(len(words))]
	}
	out := strings.Join(parts, " ")
	return strings.ToUpper(out[:1]) + out[1:]
}

func (s *seeder) paragraph(minSentences, maxSentences int) string {
	n := minSentences + s.rnd.IntN(maxSentences-minSentences+1)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s.sentence(4, 10) + "."
	}
	return strings.Join(parts, " ")
}
