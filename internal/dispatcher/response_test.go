package dispatcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatResponse(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		result   any
		err      error
		expected string
	}{
		{
			name:     "string array",
			command:  ":VERSION:",
			result:   []string{"1.1.0", "2026-02-01"},
			expected: `["ok",":VERSION:",["1.1.0","2026-02-01"]]`,
		},
		{
			name:     "nil result",
			command:  ":NEW:SAVE:",
			expected: `["ok",":NEW:SAVE:"]`,
		},
		{
			name:     "error",
			command:  ":BOMB:SPAWN:",
			err:      errors.New("profile not found"),
			expected: `["error",":BOMB:SPAWN:","profile not found"]`,
		},
		{
			name:     "int",
			command:  ":RF:BROADCAST:",
			result:   3,
			expected: `["ok",":RF:BROADCAST:",3]`,
		},
		{
			name:     "quotes are escaped",
			command:  ":X:",
			err:      errors.New(`bad "arg"`),
			expected: `["error",":X:","bad \"arg\""]`,
		},
		{
			name:     "unencodable result",
			command:  ":X:",
			result:   make(chan int),
			expected: `["error",":X:","encode result: json: unsupported type: chan int"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatResponse(tt.command, tt.result, tt.err))
		})
	}
}
