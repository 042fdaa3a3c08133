package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/auth"
	"github.com/sakif/notekeep/internal/model"
	"github.com/sakif/notekeep/internal/repository"
)

// PasswordHasher is the part of auth.PasswordService the auth flow uses.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
	VerifyDummy(plaintext string)
}

// AuthService owns registration, login and token issuance.
//
//	AuthHandler → AuthService → UserRepository
//	                          ↘ TokenService, PasswordService
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords PasswordHasher
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords PasswordHasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AuthResult is what a successful register or login hands back to the
// client: the account and a freshly signed token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an account and signs the user in.
//
// Email is trimmed but otherwise stored as given; lookups are exact, so
// addresses differing only in case are different accounts. The password is
// hashed as given.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	creds := Credentials{Email: strings.TrimSpace(email), Password: password}
	if strings.TrimSpace(password) == "" {
		creds.Password = ""
	}
	if err := validateStruct(creds); err != nil {
		return nil, err
	}

	_, err := s.users.GetUserByEmail(ctx, creds.Email)
	switch {
	case err == nil:
		return nil, apperror.DuplicateUser()
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(creds.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("Password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:        creds.Email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	// The store's unique index settles a race between two registrations
	// that both passed the check above.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return s.issue(user)
}

// Login checks the password and issues a new token. An unknown email and a
// wrong password produce the same InvalidCredentials error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	creds := Credentials{Email: strings.TrimSpace(email), Password: password}
	if strings.TrimSpace(password) == "" {
		creds.Password = ""
	}
	if err := validateStruct(creds); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(creds.Password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	// Accounts created through GitHub have no password and cannot log in here.
	if user.PasswordHash == "" {
		s.passwords.VerifyDummy(creds.Password)
		return nil, apperror.InvalidCredentials()
	}
	if err := s.passwords.Verify(user.PasswordHash, creds.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: verifying password for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return s.issue(user)
}

// LoginWithGitHub signs in the account whose email matches the GitHub
// profile, creating a password-less account on first use.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	email := ghUser.AccountEmail()

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		user = &model.User{Email: email, CreatedAt: s.now()}
		err = s.users.CreateUser(ctx, user)
		if errors.Is(err, apperror.ErrConflict) {
			user, err = s.users.GetUserByEmail(ctx, email)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: resolving GitHub user %s: %w", ghUser.Login, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("user_id", user.ID),
		slog.String("login", ghUser.Login),
	)
	return s.issue(user)
}

// GetUserByID returns the user for a verified token subject. It satisfies
// auth.UserLookup.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.NotFound("user", id)
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
