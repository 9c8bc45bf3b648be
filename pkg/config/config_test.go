package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 48, cfg.Plans.WeekCount)
	assert.Equal(t, []string{"PEI1", "PEI2", "PEI3", "PEI4", "PEI5", "DP1", "DP2"}, cfg.Plans.ClassOrder)
	assert.Equal(t, time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC), cfg.Plans.AcademicYearStart)
	assert.Equal(t, 5*time.Minute, cfg.Plans.CacheTTL)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.LoginAttempts)
}

func TestParseHelpersFallback(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("nope", time.Second))
	fallback := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, fallback, parseDate("31/08/2025", fallback))
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}

func TestLoadUsers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	content := `users:
  - username: Mohamed
    password: Mohamed
    role: ADMIN
    language: fr
  - username: Kamel
    password_hash: "$2a$10$abcdefghijklmnopqrstuv"
    role: TEACHER
    sections: [boys]
    language: en
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	users, err := LoadUsers(path)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Mohamed", users[0].Username)
	assert.Equal(t, "ADMIN", users[0].Role)
	assert.Equal(t, []string{"boys"}, users[1].Sections)
	assert.NotEmpty(t, users[1].PasswordHash)
}

func TestLoadUsersRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	content := `users:
  - username: Sami
    password: Sami
  - username: Sami
    password: other
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadUsers(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
