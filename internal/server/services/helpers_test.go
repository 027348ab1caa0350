package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/dbx"
	"github.com/dmitrijs2005/ideaboard/internal/server/auth"
	"github.com/dmitrijs2005/ideaboard/internal/server/config"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/ideas"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testParams = auth.Argon2Params{Memory: 64, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type testEnv struct {
	rm          *countingManager
	hasher      *auth.Hasher
	codec       *auth.Codec
	cfg         *config.Config
	credentials *CredentialService
	sessions    *SessionResolver
	users       *UserService
	ideas       *IdeaService
	votes       *VoteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	h, err := auth.NewHasher(testParams)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"

	rm := &countingManager{RepositoryManager: repomanager.NewInMemoryRepositoryManager()}
	codec := auth.NewCodec(cfg)
	creds := NewCredentialService(rm, h, codec, cfg)

	return &testEnv{
		rm:          rm,
		hasher:      h,
		codec:       codec,
		cfg:         cfg,
		credentials: creds,
		sessions:    NewSessionResolver(rm, codec),
		users:       NewUserService(rm, h, creds),
		ideas:       NewIdeaService(rm),
		votes:       NewVoteService(rm),
	}
}

// addUser stores a user directly, bypassing the services.
func (e *testEnv) addUser(t *testing.T, u *models.User) *models.User {
	t.Helper()
	created, err := e.rm.Users(nil).Create(context.Background(), u)
	require.NoError(t, err)
	return created
}

func (e *testEnv) addIdea(t *testing.T, name string, creator uuid.UUID) *models.Idea {
	t.Helper()
	created, err := e.rm.Ideas(nil).Create(context.Background(), &models.Idea{Name: name, CreatorID: creator})
	require.NoError(t, err)
	return created
}

func (e *testEnv) token(t *testing.T, id uuid.UUID) string {
	t.Helper()
	tok, err := e.codec.Encode(map[string]any{"sub": id.String()}, time.Now().Add(time.Minute))
	require.NoError(t, err)
	return tok
}

func bcryptHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := auth.HashBcrypt(plain, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

// countingManager counts vote and password writes and can inject
// failures into them.
type countingManager struct {
	repomanager.RepositoryManager
	voteWrites   int
	hashWrites   int
	hashWriteErr error
}

func (m *countingManager) Users(db dbx.DBTX) users.Repository {
	return &countingUsers{Repository: m.RepositoryManager.Users(db), m: m}
}

func (m *countingManager) Ideas(db dbx.DBTX) ideas.Repository {
	return &countingIdeas{Repository: m.RepositoryManager.Ideas(db), m: m}
}

type countingUsers struct {
	users.Repository
	m *countingManager
}

func (r *countingUsers) UpdateVotes(ctx context.Context, u *models.User) error {
	r.m.voteWrites++
	return r.Repository.UpdateVotes(ctx, u)
}

func (r *countingUsers) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	r.m.hashWrites++
	if r.m.hashWriteErr != nil {
		return r.m.hashWriteErr
	}
	return r.Repository.UpdatePasswordHash(ctx, id, hash)
}

type countingIdeas struct {
	ideas.Repository
	m *countingManager
}

func (r *countingIdeas) UpdateVotes(ctx context.Context, i *models.Idea) error {
	r.m.voteWrites++
	return r.Repository.UpdateVotes(ctx, i)
}

var errBoom = errors.New("boom")
