package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
	"github.com/vasiliy-maslov/marketplace/internal/auth"
)

const resetTokenTTL = 24 * time.Hour

type RegisterInput struct {
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      auth.Role `json:"role"`
}

type UpdateInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// ResetMailer delivers the password-reset token to the user. Delivery
// failures are logged and swallowed.
type ResetMailer interface {
	PasswordReset(ctx context.Context, email, token string)
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, email, password string) (token string, u *User, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type service struct {
	repo   Repository
	tokens *auth.TokenManager
	mailer ResetMailer
}

func NewService(repo Repository, tokens *auth.TokenManager, mailer ResetMailer) Service {
	return &service{repo: repo, tokens: tokens, mailer: mailer}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" {
		return nil, fmt.Errorf("%w: email is required", apperr.ErrInvalidArgument)
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: password is required", apperr.ErrInvalidArgument)
	}
	if input.Role == "" {
		input.Role = auth.RoleCustomer
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidArgument, input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate user id: %w", err)
	}

	u := &User{
		ID:           id,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrEmailExists) {
			return nil, apperr.ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user")
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Same error as a wrong password so callers cannot probe
			// which emails are registered.
			return "", nil, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthenticated)
		}
		log.Error().Err(err).Msg("service: failed to look up user for login")
		return "", nil, fmt.Errorf("service: failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthenticated)
	}

	now := time.Now().UTC()
	if err := s.repo.StampLastLogin(ctx, u.ID, now); err != nil {
		// The login itself succeeded; a failed stamp is not worth a 500.
		log.Warn().Err(err).Stringer("user_id", u.ID).Msg("service: failed to stamp last login")
	} else {
		u.LastLogin = &now
	}

	token, err := s.tokens.Issue(u.ID.String(), u.Role)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to issue token")
		return "", nil, fmt.Errorf("service: failed to issue token: %w", err)
	}

	return token, u, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to get user by id")
		return nil, fmt.Errorf("service: failed to get user by id: %w", err)
	}

	return u, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != "" {
		u.FirstName = input.FirstName
	}
	if input.LastName != "" {
		u.LastName = input.LastName
	}
	if input.Email != "" {
		u.Email = strings.TrimSpace(strings.ToLower(input.Email))
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("service: failed to hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrEmailExists) || errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to update user")
		return nil, fmt.Errorf("service: failed to update user: %w", err)
	}

	return u, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("service: failed to generate reset token: %w", err)
	}

	err = s.repo.SetResetToken(ctx, email, token, time.Now().UTC().Add(resetTokenTTL))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Pretend success for unknown emails; the caller learns
			// nothing about which accounts exist.
			return nil
		}
		log.Error().Err(err).Msg("service: failed to store reset token")
		return fmt.Errorf("service: failed to store reset token: %w", err)
	}

	s.mailer.PasswordReset(ctx, email, token)

	return nil
}

func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", apperr.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("service: failed to hash password: %w", err)
	}

	if err := s.repo.ConsumeResetToken(ctx, token, string(hash)); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: reset token is invalid or expired", apperr.ErrNotFound)
		}
		log.Error().Err(err).Msg("service: failed to consume reset token")
		return fmt.Errorf("service: failed to consume reset token: %w", err)
	}

	return nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
