// Package services contains the server-side business logic: credential
// checks and token issuing, session resolution, users, ideas and votes.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/server/auth"
	"github.com/dmitrijs2005/ideaboard/internal/server/config"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token together with their expiry times.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshTTL       time.Duration
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessToken is the token part of a login or refresh response.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginData is the result of a successful login or registration.
// Tokens.RefreshToken goes into a cookie, never into a response body.
type LoginData struct {
	User   *models.User
	Token  AccessToken
	Tokens *TokenPair
}

// CredentialService checks passwords and issues and refreshes tokens.
type CredentialService struct {
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	codec       *auth.Codec
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

func NewCredentialService(m repomanager.RepositoryManager, h *auth.Hasher, c *auth.Codec, cfg *config.Config) *CredentialService {
	return &CredentialService{
		repomanager: m,
		hasher:      h,
		codec:       c,
		accessTTL:   cfg.AccessTokenValidityDuration,
		refreshTTL:  cfg.RefreshTokenValidityDuration,
		now:         time.Now,
	}
}

// Authenticate returns the user whose username and password match.
// A verified legacy hash is replaced with a preferred one before returning.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.repomanager.Conn())

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, newHash := s.hasher.VerifyAndUpdate(password, user.HashedPassword)
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	if newHash != "" {
		if err := repo.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
			return nil, fmt.Errorf("error upgrading password hash: %w", err)
		}
		user.HashedPassword = newHash
	}

	return user, nil
}

// CreateTokens mints an access and a refresh token for subject.
func (s *CredentialService) CreateTokens(subject uuid.UUID) (*TokenPair, error) {
	if s.refreshTTL <= s.accessTTL {
		return nil, common.ErrInvalidTokenPolicy
	}

	now := s.now()
	payload := map[string]any{"sub": subject.String()}

	accessExp := now.Add(s.accessTTL)
	access, err := s.codec.Encode(payload, accessExp)
	if err != nil {
		return nil, fmt.Errorf("error creating access token: %w", err)
	}

	refreshExp := now.Add(s.refreshTTL)
	refresh, err := s.codec.Encode(payload, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("error creating refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshTTL:       s.refreshTTL,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Login issues tokens for an already authenticated user.
func (s *CredentialService) Login(user *models.User) (*LoginData, error) {
	pair, err := s.CreateTokens(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginData{
		User:   user,
		Token:  AccessToken{AccessToken: pair.AccessToken, TokenType: common.TokenTypeBearer},
		Tokens: pair,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *CredentialService) Refresh(ctx context.Context, refreshToken string) (*AccessToken, error) {
	data, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCouldNotValidate, err)
	}

	if _, err := s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, data.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrCouldNotValidate
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	access, err := s.codec.Encode(map[string]any{"sub": data.ID.String()}, s.now().Add(s.accessTTL))
	if err != nil {
		return nil, fmt.Errorf("error creating access token: %w", err)
	}

	return &AccessToken{AccessToken: access, TokenType: common.TokenTypeBearer}, nil
}
