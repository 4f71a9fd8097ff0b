package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05/03/2021", FormatDate(time.Date(2021, time.March, 5, 14, 0, 0, 0, time.UTC)))
	assert.Empty(t, FormatDate(time.Time{}))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "7", FormatCount(7))
	assert.Equal(t, "12,345", FormatCount(12345))
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"2 eggs", "100g flour", "milk"}, Lines("2 eggs\r\n\n  100g flour  \nmilk"))
	assert.Nil(t, Lines("   \n\n"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "recipe", Pluralize(1, "recipe", "recipes"))
	assert.Equal(t, "recipes", Pluralize(0, "recipe", "recipes"))
	assert.Equal(t, "recipes", Pluralize(3, "recipe", "recipes"))
}

func TestFormatRelativeTime(t *testing.T) {
	assert.NotEmpty(t, FormatRelativeTime(time.Now().Add(-72*time.Hour)))
}
