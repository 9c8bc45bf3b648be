package validation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lesson-plan-api/pkg/errors"
)

type sample struct {
	Week    int    `json:"week" validate:"min=1,max=48"`
	Section string `json:"section" validate:"required"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Struct(sample{Week: 60}, "invalid payload")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "invalid payload", appErr.Message)
	assert.Contains(t, appErr.Fields, "week")
	assert.Contains(t, appErr.Fields, "section")
	assert.Contains(t, appErr.Fields["section"], "required")
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, New().Struct(sample{Week: 5, Section: "boys"}, ""))
}
