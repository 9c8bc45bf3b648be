package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lesson-plan-api/internal/models"
	"github.com/noah-isme/lesson-plan-api/internal/repository"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
	"github.com/noah-isme/lesson-plan-api/pkg/validation"
)

type credentialRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Credential, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService authenticates users against the static credential table and issues access tokens.
type AuthService struct {
	repo      credentialRepository
	validator *validation.Validator
	metrics   *MetricsService
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo credentialRepository, validate *validation.Validator, metrics *MetricsService, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{repo: repo, validator: validate, metrics: metrics, logger: logger, config: config}
}

// Login checks the credentials and the requested section, then issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req, "invalid login payload"); err != nil {
		return nil, err
	}

	cred, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.RecordLogin("invalid_credentials")
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !passwordMatches(cred, req.Password) {
		s.metrics.RecordLogin("invalid_credentials")
		s.logger.Warn("login rejected", zap.String("username", req.Username), zap.String("ip", req.IP))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}

	section, err := s.resolveSection(cred, req.Section)
	if err != nil {
		s.metrics.RecordLogin("forbidden_section")
		return nil, err
	}

	token, err := s.generateAccessToken(cred, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.metrics.RecordLogin("success")
	s.logger.Info("user logged in", zap.String("username", cred.Username), zap.String("section", string(section)))

	return &models.LoginResponse{
		Success:     true,
		Username:    cred.Username,
		Role:        cred.Role,
		Section:     section,
		Sections:    cred.Sections,
		Language:    cred.Language,
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
	}, nil
}

func passwordMatches(cred *models.Credential, password string) bool {
	if cred.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(cred.Password), []byte(password)) == 1
}

// resolveSection picks the section the session works in. Teachers must be on
// the roster of the requested section; without a request their first section is used.
func (s *AuthService) resolveSection(cred *models.Credential, requested string) (models.Section, error) {
	if strings.TrimSpace(requested) == "" {
		if len(cred.Sections) == 0 {
			return "", appErrors.Clone(appErrors.ErrForbidden, "user is not registered in any section")
		}
		return cred.Sections[0], nil
	}

	section, err := models.ParseSection(requested)
	if err != nil {
		return "", appErrors.WithFields(
			appErrors.Clone(appErrors.ErrValidation, "invalid login payload"),
			map[string]string{"section": "section must be one of boys, girls"},
		)
	}
	if cred.Role == models.RoleAdmin || cred.AllowsSection(section) {
		return section, nil
	}
	return "", appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("user %s is not registered in section %s", cred.Username, section))
}

// ValidateToken parses and validates a JWT token string.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(cred *models.Credential, section models.Section) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		Username: cred.Username,
		Role:     cred.Role,
		Section:  section,
		Sections: cred.Sections,
		Language: cred.Language,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   cred.Username,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
