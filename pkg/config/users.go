package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// UserEntry is one row of the static credential table.
type UserEntry struct {
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	PasswordHash string   `mapstructure:"password_hash"`
	Role         string   `mapstructure:"role"`
	Sections     []string `mapstructure:"sections"`
	Language     string   `mapstructure:"language"`
}

// LoadUsers reads the credential table from a YAML (or JSON/TOML) file.
func LoadUsers(path string) ([]UserEntry, error) {
	if path == "" {
		return nil, fmt.Errorf("users file path is empty")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read users file %s: %w", path, err)
	}

	var entries []UserEntry
	if err := v.UnmarshalKey("users", &entries); err != nil {
		return nil, fmt.Errorf("decode users file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		entries[i].Username = strings.TrimSpace(entries[i].Username)
		if entries[i].Username == "" {
			return nil, fmt.Errorf("users file %s: entry %d has no username", path, i)
		}
		if entries[i].Password == "" && entries[i].PasswordHash == "" {
			return nil, fmt.Errorf("users file %s: user %q has no password", path, entries[i].Username)
		}
		if _, dup := seen[entries[i].Username]; dup {
			return nil, fmt.Errorf("users file %s: duplicate user %q", path, entries[i].Username)
		}
		seen[entries[i].Username] = struct{}{}
	}

	return entries, nil
}
