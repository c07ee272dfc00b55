package util

import (
	"testing"

	"github.com/bombtrucks/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no quotes", "hello", "hello"},
		{"double quoted", `"hello"`, "hello"},
		{"single quotes only", "'hello'", "'hello'"},
		{"quotes in middle", `he"llo`, `he"llo`},
		{"only quotes", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TrimQuotes(tt.input))
		})
	}
}

func TestFixEscapeQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no escaped quotes", "hello", "hello"},
		{"single escaped quote", `he""llo`, `he"llo`},
		{"consecutive escaped", `a""""b`, `a""b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FixEscapeQuotes(tt.input))
		})
	}
}

func TestArg(t *testing.T) {
	args := []string{` "Nuke" `, "7"}

	v, err := Arg(args, 0)
	require.NoError(t, err)
	assert.Equal(t, "Nuke", v)

	_, err = Arg(args, 2)
	assert.EqualError(t, err, "missing argument 2 (have 2)")
}

func TestParseEntityID(t *testing.T) {
	id, err := ParseEntityID(`"1042"`)
	require.NoError(t, err)
	assert.Equal(t, core.EntityID(1042), id)

	_, err = ParseEntityID("-1")
	assert.Error(t, err)
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{"42.0", 42, false},
		{`"7"`, 7, false},
		{"4.5", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInt(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVec3(t *testing.T) {
	v, err := ParseVec3("[1.5, 20,-3]")
	require.NoError(t, err)
	assert.Equal(t, core.Vec3{X: 1.5, Y: 20, Z: -3}, v)

	for _, bad := range []string{"", "1,2,3", "[1,2]", "[1,x,3]"} {
		_, err := ParseVec3(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatVec3_RoundTrip(t *testing.T) {
	v := core.Vec3{X: 0.25, Y: -10, Z: 3000.5}

	got, err := ParseVec3(FormatVec3(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}
