package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "jose-rizal", Slugify("  José  Rizal ", 0))
	assert.Equal(t, "dr-j-santos", Slugify("Dr. J. Santos", 0))
	assert.Equal(t, "item", Slugify("--", 0))
	assert.Equal(t, "abc", Slugify("abc-def", 4))

	_, ok := TrySlugify(" -- ", 0)
	assert.False(t, ok)
}
