package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/lesson-plan-api/internal/models"
	"github.com/noah-isme/lesson-plan-api/pkg/config"
)

// ErrUserNotFound is returned when a username is absent from the credential table.
var ErrUserNotFound = errors.New("user not found")

// CredentialRepository serves the static credential table loaded at startup.
type CredentialRepository struct {
	users map[string]models.Credential
}

// NewCredentialRepository validates the configured entries and indexes them by username.
func NewCredentialRepository(entries []config.UserEntry) (*CredentialRepository, error) {
	users := make(map[string]models.Credential, len(entries))
	for _, entry := range entries {
		role := models.UserRole(strings.ToUpper(strings.TrimSpace(entry.Role)))
		if role == "" {
			role = models.RoleTeacher
		}
		if !role.Valid() {
			return nil, fmt.Errorf("user %q: unknown role %q", entry.Username, entry.Role)
		}

		sections := make([]models.Section, 0, len(entry.Sections))
		for _, raw := range entry.Sections {
			section, err := models.ParseSection(raw)
			if err != nil {
				return nil, fmt.Errorf("user %q: %w", entry.Username, err)
			}
			sections = append(sections, section)
		}
		if role == models.RoleAdmin && len(sections) == 0 {
			sections = append(sections, models.Sections...)
		}

		language := models.Language(strings.ToLower(strings.TrimSpace(entry.Language)))
		switch language {
		case models.LanguageArabic, models.LanguageEnglish, models.LanguageFrench:
		default:
			language = models.LanguageFrench
		}

		users[entry.Username] = models.Credential{
			Username:     entry.Username,
			Password:     entry.Password,
			PasswordHash: entry.PasswordHash,
			Role:         role,
			Sections:     sections,
			Language:     language,
		}
	}
	return &CredentialRepository{users: users}, nil
}

// FindByUsername looks up a credential by exact username.
func (r *CredentialRepository) FindByUsername(_ context.Context, username string) (*models.Credential, error) {
	cred, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &cred, nil
}

// Count returns the number of known users.
func (r *CredentialRepository) Count() int {
	return len(r.users)
}
