package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryBump(t *testing.T) {
	h := History{}
	h.Bump("wifi")
	h.Bump("wifi")
	h.Bump("balcony")
	h.Bump("")

	assert.Equal(t, 2, h["wifi"])
	assert.Equal(t, 1, h["balcony"])
	assert.Len(t, h, 2, "empty terms are ignored")
}

func TestHistoryTop(t *testing.T) {
	h := History{"wifi": 5, "balcony": 2, "ruiru": 2, "garden": 1}

	top := h.Top(3)
	assert.Equal(t, []string{"wifi", "balcony", "ruiru"}, top, "frequency first, ties alphabetical")

	assert.Equal(t, []string{"wifi"}, h.Top(1))
	assert.Nil(t, h.Top(0))
	assert.Nil(t, History{}.Top(3))
}
