package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
)

func TestRegister_HashesPasswordAndStripsIt(t *testing.T) {
	var created *models.User
	repo := &fakeUserRepo{
		createFn: func(ctx context.Context, user *models.User) error {
			user.ID = 1
			created = user
			return nil
		},
	}
	svc := NewAuthService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash)

	require.NotNil(t, created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct horse")))
}

func TestRegister_Validation(t *testing.T) {
	svc := NewAuthService(&fakeUserRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "", Email: "a@b.c", Password: "longenough"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	repo := &fakeUserRepo{
		createFn: func(ctx context.Context, user *models.User) error {
			return repositories.ErrUserEmailConflict
		},
	}
	svc := NewAuthService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "taken@example.com",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestLogin_RecordsLastLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	var lastLoginUserID int
	repo := &fakeUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 7, Email: email, PasswordHash: string(hash)}, nil
		},
		updateLastLoginFn: func(ctx context.Context, id int, at time.Time) error {
			lastLoginUserID = id
			return nil
		},
	}
	svc := NewAuthService(repo)

	user, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)

	assert.Equal(t, 7, lastLoginUserID)
	assert.NotNil(t, user.LastLoginAt)
	assert.Empty(t, user.PasswordHash)
}

func TestLogin_BadCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			if email == "alice@example.com" {
				return &models.User{ID: 7, Email: email, PasswordHash: string(hash)}, nil
			}
			return nil, repositories.ErrUserNotFound
		},
	}
	svc := NewAuthService(repo)

	// Unknown email and wrong password read identically to the caller.
	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}
