package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// Language is the UI language preferred by a user.
type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

// Credential is a row of the static user table loaded at startup.
type Credential struct {
	Username     string
	PasswordHash string
	Password     string
	Role         UserRole
	Sections     []Section
	Language     Language
}

// AllowsSection reports whether the user may work in the given section.
func (c *Credential) AllowsSection(section Section) bool {
	for _, s := range c.Sections {
		if s == section {
			return true
		}
	}
	return false
}
