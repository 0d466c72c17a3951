package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	InitBinaryVersion()

	out := String()
	assert.Contains(t, out, Version)
	assert.Contains(t, out, "commit: ")
	assert.Contains(t, out, "built: ")
	assert.NotEmpty(t, Commit)
	assert.NotEmpty(t, Date)
}
