package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lesson-plan-api/internal/models"
	"github.com/noah-isme/lesson-plan-api/internal/repository"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
	"github.com/noah-isme/lesson-plan-api/pkg/validation"
)

type mockCredentialRepo struct {
	users map[string]*models.Credential
	err   error
}

func (m *mockCredentialRepo) FindByUsername(ctx context.Context, username string) (*models.Credential, error) {
	if m.err != nil {
		return nil, m.err
	}
	cred, ok := m.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *cred
	return &copied, nil
}

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockCredentialRepo{users: map[string]*models.Credential{
		"Mohamed": {Username: "Mohamed", PasswordHash: string(hash), Role: models.RoleAdmin, Sections: models.Sections, Language: models.LanguageFrench},
		"Abas":    {Username: "Abas", Password: "abas123", Role: models.RoleTeacher, Sections: []models.Section{models.SectionBoys}, Language: models.LanguageArabic},
	}}
	return NewAuthService(repo, validation.New(), nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "lesson-plan-api"})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc := newTestAuthService(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: " Abas ", Password: "abas123", Section: "garcons"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Abas", res.Username)
	assert.Equal(t, models.RoleTeacher, res.Role)
	assert.Equal(t, models.SectionBoys, res.Section)
	assert.Equal(t, models.LanguageArabic, res.Language)
	assert.NotEmpty(t, res.AccessToken)
	assert.EqualValues(t, 3600, res.ExpiresIn)
}

func TestAuthServiceLoginDefaultsToFirstSection(t *testing.T) {
	svc := newTestAuthService(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "Abas", Password: "abas123"})
	require.NoError(t, err)
	assert.Equal(t, models.SectionBoys, res.Section)
}

func TestAuthServiceLoginBcryptAdminAnySection(t *testing.T) {
	svc := newTestAuthService(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "Mohamed", Password: "s3cret", Section: "girls"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)
	assert.Equal(t, models.SectionGirls, res.Section)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "Abas", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "Ghost", Password: "abas123"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "abas", Password: "abas123"})
	assert.Error(t, err)
}

func TestAuthServiceLoginSectionRules(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "Abas", Password: "abas123", Section: "girls"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "Abas", Password: "abas123", Section: "staff"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "  "})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Fields, "username")
	assert.Contains(t, appErr.Fields, "password")
}

func TestAuthServiceLoginRepositoryFailure(t *testing.T) {
	svc := NewAuthService(&mockCredentialRepo{err: errors.New("boom")}, nil, nil, nil, AuthConfig{AccessTokenSecret: "secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "Abas", Password: "abas123"})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(t)
	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "Abas", Password: "abas123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Abas", claims.Username)
	assert.Equal(t, models.SectionBoys, claims.Section)
	assert.Equal(t, []models.Section{models.SectionBoys}, claims.Sections)
	assert.Equal(t, "lesson-plan-api", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejectsForgedTokens(t *testing.T) {
	svc := newTestAuthService(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		Username:         "Mohamed",
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		Username:         "Abas",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	signed, err = expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
