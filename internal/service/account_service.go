package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"estate-listings/internal/domain"
	"estate-listings/pkg/utils"
)

var (
	ErrPasswordMismatch   = domain.Validation("passwords do not match")
	ErrPasswordTooLong    = domain.Validation("password must be at most 72 bytes")
	ErrInvalidCredentials = domain.Unauthorized("invalid username or password")
)

type AccountService struct {
	repo domain.AccountRepository
	log  *zap.Logger
}

func NewAccountService(repo domain.AccountRepository, log *zap.Logger) *AccountService {
	return &AccountService{repo: repo, log: log}
}

// Register creates an ordinary account. The username is trimmed; nothing is
// written when validation fails or the username is taken.
func (s *AccountService) Register(ctx context.Context, username, password, confirm string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.Validation("username and password are required")
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	// bcrypt only hashes the first 72 bytes and refuses longer input.
	if len(password) > utils.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, domain.Internal("register failed", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateUsername
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, domain.Internal("hash password", err)
	}
	a := &domain.Account{Username: username, PasswordHash: hash, Role: domain.RoleUser}
	if err := s.repo.Create(ctx, a); err != nil {
		if domain.KindOf(err) == domain.KindValidation {
			return nil, err
		}
		return nil, domain.Internal("register failed", err)
	}
	s.log.Info("account registered", zap.String("username", username))
	return a, nil
}

// Login returns the account iff the stored hash verifies. Unknown users and
// wrong passwords fail with the same error.
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.Account, error) {
	a, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, domain.Internal("login failed", err)
	}
	if a == nil || !utils.CheckPassword(password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// Lookup returns (nil, nil) for an unknown username.
func (s *AccountService) Lookup(ctx context.Context, username string) (*domain.Account, error) {
	if username == "" {
		return nil, nil
	}
	a, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, domain.Internal("lookup account", err)
	}
	return a, nil
}

func (s *AccountService) SetRole(ctx context.Context, username string, role domain.Role) error {
	if !role.Valid() {
		return domain.Validation("role must be user or admin")
	}
	ok, err := s.repo.UpdateRole(ctx, username, role)
	if err != nil {
		return domain.Internal("update role", err)
	}
	if !ok {
		return domain.NotFound("account " + username + " not found")
	}
	s.log.Info("account role changed", zap.String("username", username), zap.String("role", string(role)))
	return nil
}

func (s *AccountService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
