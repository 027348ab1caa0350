package auth

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rotatingSecret struct {
	mu sync.Mutex
	s  []byte
}

func (r *rotatingSecret) Secret() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s
}

func (r *rotatingSecret) set(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s = []byte(s)
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	c := NewCodec(StaticSecret("super-secret"))
	id := uuid.New()

	tok, err := c.Encode(map[string]any{"sub": id.String()}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	got, err := c.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestCodec_ExpOverridesPayload(t *testing.T) {
	t.Parallel()

	c := NewCodec(StaticSecret("k"))
	tok, err := c.Encode(map[string]any{"sub": uuid.NewString(), "exp": time.Now().Add(-time.Hour).Unix()}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = c.Decode(tok)
	assert.NoError(t, err)
}

func TestCodec_Expired(t *testing.T) {
	t.Parallel()

	c := NewCodec(StaticSecret("k"))
	now := time.Now()
	tok, err := c.Encode(map[string]any{"sub": uuid.NewString()}, now.Add(time.Minute))
	require.NoError(t, err)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }

	_, err = c.Decode(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewCodec(StaticSecret("right")).Encode(map[string]any{"sub": uuid.NewString()}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = NewCodec(StaticSecret("wrong")).Decode(tok)
	require.ErrorIs(t, err, ErrTokenSignature)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCodec_SecretRotation(t *testing.T) {
	t.Parallel()

	secret := &rotatingSecret{}
	secret.set("first")
	c := NewCodec(secret)

	tok, err := c.Encode(map[string]any{"sub": uuid.NewString()}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = c.Decode(tok)
	require.NoError(t, err)

	secret.set("second")
	_, err = c.Decode(tok)
	require.ErrorIs(t, err, ErrTokenSignature)

	tok2, err := c.Encode(map[string]any{"sub": uuid.NewString()}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = c.Decode(tok2)
	require.NoError(t, err)
}

func TestCodec_MissingSubject(t *testing.T) {
	t.Parallel()

	c := NewCodec(StaticSecret("k"))
	tok, err := c.Encode(map[string]any{"name": "alice"}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = c.Decode(tok)
	require.ErrorIs(t, err, ErrTokenMissingSubject)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCodec_Malformed(t *testing.T) {
	t.Parallel()

	c := NewCodec(StaticSecret("k"))

	nonUUID, err := c.Encode(map[string]any{"sub": "user-123"}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	numericSub, err := c.Encode(map[string]any{"sub": 42}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.NewString()}).SignedString([]byte("k"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":     "not.a.jwt",
		"empty":       "",
		"non uuid":    nonUUID,
		"numeric sub": numericSub,
		"no exp":      noExp,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode(tok)
			require.ErrorIs(t, err, common.ErrInvalidToken)
			require.False(t, errors.Is(err, ErrTokenExpired))
		})
	}
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewCodec(StaticSecret("k")).Decode(tok)
	require.ErrorIs(t, err, ErrTokenSignature)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewCodec(StaticSecret("k")).Decode(unsigned)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCodec_EmptySecret(t *testing.T) {
	t.Parallel()

	c := NewCodec(StaticSecret(""))
	_, err := c.Encode(map[string]any{"sub": uuid.NewString()}, time.Now().Add(time.Hour))
	require.Error(t, err)

	_, err = c.Decode("a.b.c")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCodec_TokenShape(t *testing.T) {
	t.Parallel()

	tok, err := NewCodec(StaticSecret("k")).Encode(map[string]any{"sub": uuid.NewString()}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)
}
