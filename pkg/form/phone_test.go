package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"6", "(6"},
		{"612", "(612"},
		{"6125", "(612) 5"},
		{"61255", "(612) 55"},
		{"612555", "(612) 555"},
		{"6125551", "(612) 555-1"},
		{"6125551234", "(612) 555-1234"},
		{"61255512345678", "(612) 555-1234"},
		{"612-555-1234", "(612) 555-1234"},
		{"(612) 555-1234", "(612) 555-1234"},
		{"abc612def5551234", "(612) 555-1234"},
		{"++--..", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPhone(tt.input))
		})
	}
}
