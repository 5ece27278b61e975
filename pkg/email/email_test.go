package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"sophia.garcia@mergington.edu": "Sophia Garcia",
		"michael@mergington.edu":       "Michael",
		"john_doe-smith@example.com":   "John Doe Smith",
		"a+tag@example.com":            "A Tag",
		"noatsign":                     "Noatsign",
		"@example.com":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, DisplayName(in), in)
	}
}
