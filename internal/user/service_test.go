package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
	"github.com/vasiliy-maslov/marketplace/internal/auth"
	"github.com/vasiliy-maslov/marketplace/internal/user"
)

type mockRepository struct {
	createFunc            func(ctx context.Context, u *user.User) error
	getByIDFunc           func(ctx context.Context, id uuid.UUID) (*user.User, error)
	getByEmailFunc        func(ctx context.Context, email string) (*user.User, error)
	updateFunc            func(ctx context.Context, u *user.User) error
	stampLastLoginFunc    func(ctx context.Context, id uuid.UUID, at time.Time) error
	setResetTokenFunc     func(ctx context.Context, email, token string, expires time.Time) error
	consumeResetTokenFunc func(ctx context.Context, token, newPasswordHash string) error
}

func (m *mockRepository) Create(ctx context.Context, u *user.User) error { return m.createFunc(ctx, u) }
func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return m.getByIDFunc(ctx, id)
}
func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.getByEmailFunc(ctx, email)
}
func (m *mockRepository) Update(ctx context.Context, u *user.User) error { return m.updateFunc(ctx, u) }
func (m *mockRepository) StampLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.stampLastLoginFunc(ctx, id, at)
}
func (m *mockRepository) SetResetToken(ctx context.Context, email, token string, expires time.Time) error {
	return m.setResetTokenFunc(ctx, email, token, expires)
}
func (m *mockRepository) ConsumeResetToken(ctx context.Context, token, newPasswordHash string) error {
	return m.consumeResetTokenFunc(ctx, token, newPasswordHash)
}

type recordingMailer struct {
	resetCalls int
	lastEmail  string
	lastToken  string
}

func (m *recordingMailer) PasswordReset(ctx context.Context, email, token string) {
	m.resetCalls++
	m.lastEmail = email
	m.lastToken = token
}

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name      string
		input     user.RegisterInput
		createErr error
		wantErrIs error
		wantRole  auth.Role
	}{
		{
			name:     "customer_by_default",
			input:    user.RegisterInput{Email: "A@Example.com", Password: "hunter22"},
			wantRole: auth.RoleCustomer,
		},
		{
			name:     "supplier",
			input:    user.RegisterInput{Email: "s@example.com", Password: "hunter22", Role: auth.RoleSupplier},
			wantRole: auth.RoleSupplier,
		},
		{
			name:      "missing_email",
			input:     user.RegisterInput{Password: "hunter22"},
			wantErrIs: apperr.ErrInvalidArgument,
		},
		{
			name:      "missing_password",
			input:     user.RegisterInput{Email: "a@example.com"},
			wantErrIs: apperr.ErrInvalidArgument,
		},
		{
			name:      "unknown_role",
			input:     user.RegisterInput{Email: "a@example.com", Password: "hunter22", Role: auth.Role("admin")},
			wantErrIs: apperr.ErrInvalidArgument,
		},
		{
			name:      "duplicate_email",
			input:     user.RegisterInput{Email: "a@example.com", Password: "hunter22"},
			createErr: apperr.ErrEmailExists,
			wantErrIs: apperr.ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				createFunc: func(ctx context.Context, u *user.User) error { return tt.createErr },
			}
			svc := user.NewService(repo, testTokens(), &recordingMailer{})

			u, err := svc.Register(context.Background(), tt.input)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, u.Role)
			assert.Equal(t, "a@example.com", u.Email, "email must be lower-cased")
			assert.NotEqual(t, tt.input.Password, u.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(tt.input.Password)))
		})
	}
}

func TestService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	require.NoError(t, err)

	stored := &user.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "a@example.com",
		PasswordHash: string(hash),
		Role:         auth.RoleCustomer,
	}

	t.Run("success_stamps_last_login_and_issues_token", func(t *testing.T) {
		stamped := false
		repo := &mockRepository{
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				assert.Equal(t, "a@example.com", email)
				copy := *stored
				return &copy, nil
			},
			stampLastLoginFunc: func(ctx context.Context, id uuid.UUID, at time.Time) error {
				stamped = true
				assert.Equal(t, stored.ID, id)
				return nil
			},
		}
		svc := user.NewService(repo, testTokens(), &recordingMailer{})

		token, u, err := svc.Login(context.Background(), "A@Example.com ", "hunter22")
		require.NoError(t, err)
		assert.True(t, stamped)
		require.NotNil(t, u.LastLogin)

		identity, err := testTokens().Verify(token)
		require.NoError(t, err)
		assert.Equal(t, stored.ID.String(), identity.ID)
		assert.Equal(t, auth.RoleCustomer, identity.Role)
	})

	t.Run("wrong_password", func(t *testing.T) {
		repo := &mockRepository{
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				copy := *stored
				return &copy, nil
			},
		}
		svc := user.NewService(repo, testTokens(), &recordingMailer{})

		_, _, err := svc.Login(context.Background(), "a@example.com", "wrong")
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("unknown_email_reads_like_wrong_password", func(t *testing.T) {
		repo := &mockRepository{
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				return nil, apperr.ErrNotFound
			},
		}
		svc := user.NewService(repo, testTokens(), &recordingMailer{})

		_, _, err := svc.Login(context.Background(), "nobody@example.com", "hunter22")
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
		assert.NotErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestService_ForgotPassword(t *testing.T) {
	t.Run("known_email_stores_token_and_mails_it", func(t *testing.T) {
		var storedToken string
		repo := &mockRepository{
			setResetTokenFunc: func(ctx context.Context, email, token string, expires time.Time) error {
				storedToken = token
				assert.Equal(t, "a@example.com", email)
				assert.True(t, expires.After(time.Now().Add(23*time.Hour)))
				return nil
			},
		}
		mailer := &recordingMailer{}
		svc := user.NewService(repo, testTokens(), mailer)

		require.NoError(t, svc.ForgotPassword(context.Background(), "a@example.com"))
		assert.Equal(t, 1, mailer.resetCalls)
		assert.Equal(t, storedToken, mailer.lastToken)
		assert.NotEmpty(t, storedToken)
	})

	t.Run("unknown_email_pretends_success", func(t *testing.T) {
		repo := &mockRepository{
			setResetTokenFunc: func(ctx context.Context, email, token string, expires time.Time) error {
				return apperr.ErrNotFound
			},
		}
		mailer := &recordingMailer{}
		svc := user.NewService(repo, testTokens(), mailer)

		assert.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com"))
		assert.Zero(t, mailer.resetCalls)
	})
}

func TestService_ResetPassword(t *testing.T) {
	t.Run("consumes_token_with_new_hash", func(t *testing.T) {
		repo := &mockRepository{
			consumeResetTokenFunc: func(ctx context.Context, token, newPasswordHash string) error {
				assert.Equal(t, "tok-1", token)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newPasswordHash), []byte("newpass")))
				return nil
			},
		}
		svc := user.NewService(repo, testTokens(), &recordingMailer{})

		assert.NoError(t, svc.ResetPassword(context.Background(), "tok-1", "newpass"))
	})

	t.Run("expired_or_unknown_token", func(t *testing.T) {
		repo := &mockRepository{
			consumeResetTokenFunc: func(ctx context.Context, token, newPasswordHash string) error {
				return apperr.ErrNotFound
			},
		}
		svc := user.NewService(repo, testTokens(), &recordingMailer{})

		assert.ErrorIs(t, svc.ResetPassword(context.Background(), "tok-x", "newpass"), apperr.ErrNotFound)
	})

	t.Run("missing_fields", func(t *testing.T) {
		svc := user.NewService(&mockRepository{}, testTokens(), &recordingMailer{})
		assert.ErrorIs(t, svc.ResetPassword(context.Background(), "", "x"), apperr.ErrInvalidArgument)
		assert.ErrorIs(t, svc.ResetPassword(context.Background(), "tok", ""), apperr.ErrInvalidArgument)
	})
}
