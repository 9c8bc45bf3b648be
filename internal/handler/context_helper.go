package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-plan-api/internal/middleware"
	"github.com/noah-isme/lesson-plan-api/internal/models"
	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// currentUser converts the token claims into the actor passed to services.
func currentUser(c *gin.Context) (models.UserInfo, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.UserInfo{}, appErrors.ErrUnauthorized
	}
	return models.UserInfo{
		Username: claims.Username,
		Role:     claims.Role,
		Section:  claims.Section,
		Sections: claims.Sections,
		Language: claims.Language,
	}, nil
}

// sectionOrDefault falls back to the section chosen at login.
func sectionOrDefault(section models.Section, user models.UserInfo) models.Section {
	if section == "" {
		return user.Section
	}
	return section
}

// sectionQuery reads ?section=, accepting legacy spellings.
func sectionQuery(c *gin.Context, user models.UserInfo) (models.Section, error) {
	raw := strings.TrimSpace(c.Query("section"))
	if raw == "" {
		return user.Section, nil
	}
	section, err := models.ParseSection(raw)
	if err != nil {
		return "", appErrors.WithFields(
			appErrors.Clone(appErrors.ErrValidation, "invalid section"),
			map[string]string{"section": "section must be one of boys, girls"},
		)
	}
	return section, nil
}

func weekParam(c *gin.Context) (int, error) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		return 0, appErrors.WithFields(
			appErrors.Clone(appErrors.ErrValidation, "invalid week"),
			map[string]string{"week": "week must be a number"},
		)
	}
	return week, nil
}

func bindError(err error, message string) error {
	return appErrors.WithFields(
		appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message),
		map[string]string{"body": err.Error()},
	)
}
