package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-cms/internal/common/apperror"
	"go-cms/internal/config"
	"go-cms/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Usernames that would collide with the storage route layout
var reservedUsernames = map[string]bool{
	"files":      true,
	"sessions":   true,
	"groups":     true,
	"temp":       true,
	"thumbnails": true,
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, username string) (*User, error)
}

type AuthServiceImpl struct {
	Credentials CredentialRepository
	Users       UserRepository
	cost        int
	logger      *zap.Logger
}

func NewAuthService(credentials CredentialRepository, users UserRepository, cfg *config.Config, logger *zap.Logger) AuthService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthServiceImpl{
		Credentials: credentials,
		Users:       users,
		cost:        cost,
		logger:      logger,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if reservedUsernames[strings.ToLower(req.Username)] {
		return nil, apperror.ErrDuplicateUsername
	}

	existing, err := s.Credentials.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateEmail
	}
	if _, err := s.Users.FindByUsername(ctx, req.Username); err == nil {
		return nil, apperror.ErrDuplicateUsername
	} else if !errors.Is(err, apperror.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apperror.Creation("failed to hash password", err)
	}

	now := time.Now()
	cred := &Credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.Credentials.Create(ctx, cred); err != nil {
		return nil, err
	}

	user := &User{
		CredentialID: cred.ID,
		Username:     req.Username,
		Email:        email,
		Image:        req.Image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if delErr := s.Credentials.Delete(ctx, cred.ID); delErr != nil {
			s.logger.Error("Failed to remove orphaned credential",
				zap.String("credentialId", cred.ID),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	token, err := utils.GenerateToken(cred.ID, user.Username, user.Email)
	if err != nil {
		return nil, apperror.Creation("failed to issue token", err)
	}

	s.logger.Info("User registered", zap.String("username", user.Username))
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	cred, err := s.Credentials.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	user, err := s.Users.FindByEmail(ctx, cred.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrUserNotFound) {
			return nil, apperror.Read("credential has no profile", err)
		}
		return nil, err
	}

	if err := s.Credentials.TouchLastLogin(ctx, cred.ID, time.Now()); err != nil {
		s.logger.Warn("Failed to record login", zap.String("credentialId", cred.ID), zap.Error(err))
	}

	token, err := utils.GenerateToken(cred.ID, user.Username, user.Email)
	if err != nil {
		return nil, apperror.Creation("failed to issue token", err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *AuthServiceImpl) Me(ctx context.Context, username string) (*User, error) {
	return s.Users.FindByUsername(ctx, username)
}
