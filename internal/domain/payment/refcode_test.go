package payment

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRefCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z0-9]{20}$`)

	seen := make(map[string]struct{})
	for range 1000 {
		code := NewRefCode()
		assert.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}

	assert.Len(t, seen, 1000, "codes must not repeat over a small sample")
}
