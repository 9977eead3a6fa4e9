package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
)

type mockUserRepo struct {
	users map[string]*models.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockUserRepo{users: map[string]*models.User{
		"2021-0001": {ID: "2021-0001", Email: "student@example.com", PasswordHash: string(hash), Role: models.RoleStudent, Active: true},
		"admin-1":   {ID: "admin-1", Email: "admin@example.com", PasswordHash: string(hash), Role: models.RoleAdmin, Active: true},
		"inactive":  {ID: "inactive", PasswordHash: string(hash), Role: models.RoleStudent, Active: false},
	}}
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "class-enroll-api",
	})
	return svc, repo
}

func TestLoginSuccess(t *testing.T) {
	svc, _ := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{UserID: "2021-0001", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, models.RoleStudent, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "2021-0001", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{UserID: "2021-0001", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{UserID: "ghost", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{UserID: "inactive", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestLoginRoleMismatch(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{UserID: "admin-1", Password: "secret123", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	svc, repo := newAuthFixture(t)

	other := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Hour,
	})
	res, err := other.Login(context.Background(), models.LoginRequest{UserID: "2021-0001", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.AccessToken)
	require.Error(t, err)
}
