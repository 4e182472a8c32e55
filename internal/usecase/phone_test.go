package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"050-123-4567":     "972501234567",
		"(050) 123 4567":   "972501234567",
		"+972-50-123-4567": "972501234567",
		"972501234567":     "972501234567",
		"03 555 1234":      "97235551234",
		"  054 000 0000  ": "972540000000",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestLooksLikePhone(t *testing.T) {
	assert.True(t, looksLikePhone("050-1234"))
	assert.True(t, looksLikePhone("+972 50"))
	assert.False(t, looksLikePhone("avi"))
	assert.False(t, looksLikePhone("avi@example.com"))
	assert.False(t, looksLikePhone(""))
}
