// Package auth implements the credential primitives of the server:
// password hashing with scheme migration, the signed bearer token codec
// and the refresh token cookie.
package auth

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Decode failure reasons. All of them match common.ErrInvalidToken, so
// callers that do not care about the reason only check that one.
var (
	ErrTokenSignature      = fmt.Errorf("%w: signature mismatch", common.ErrInvalidToken)
	ErrTokenMalformed      = fmt.Errorf("%w: malformed", common.ErrInvalidToken)
	ErrTokenMissingSubject = fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	ErrTokenExpired        = fmt.Errorf("%w: expired", common.ErrInvalidToken)
)

var errEmptySecret = errors.New("token signing secret is empty")

// SecretSource supplies the signing secret. It is consulted on every
// Encode and Decode, so the secret may change between calls.
type SecretSource interface {
	Secret() []byte
}

// StaticSecret is a SecretSource that never changes.
type StaticSecret []byte

func (s StaticSecret) Secret() []byte { return s }

// TokenData is the validated content of a decoded token.
type TokenData struct {
	ID uuid.UUID
}

// Codec encodes and decodes HS256 JWTs whose "sub" claim is a user id.
type Codec struct {
	secret SecretSource
	now    func() time.Time
}

func NewCodec(secret SecretSource) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// Encode signs payload as JWT claims with exp set to expiresAt.
// An "exp" key in payload is overridden.
func (c *Codec) Encode(payload map[string]any, expiresAt time.Time) (string, error) {
	secret := c.secret.Secret()
	if len(secret) == 0 {
		return "", errEmptySecret
	}

	claims := make(jwt.MapClaims, len(payload)+1)
	maps.Copy(claims, payload)
	claims["exp"] = jwt.NewNumericDate(expiresAt)

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Decode verifies the token and extracts its subject. It fails with one of
// ErrTokenSignature, ErrTokenMalformed, ErrTokenMissingSubject or
// ErrTokenExpired and never returns partial data.
func (c *Codec) Decode(token string) (*TokenData, error) {
	secret := c.secret.Secret()
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrTokenSignature, errEmptySecret)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrTokenSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if sub == "" {
		return nil, ErrTokenMissingSubject
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not an id", ErrTokenMalformed)
	}

	return &TokenData{ID: id}, nil
}
