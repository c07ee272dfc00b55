// Package util parses the string arguments the host passes with commands.
package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bombtrucks/extension/pkg/core"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// Clean trims whitespace and quotes and unescapes inner quotes.
func Clean(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// Arg returns args[i] cleaned, or an error naming the missing position.
func Arg(args []string, i int) (string, error) {
	if i < 0 || i >= len(args) {
		return "", fmt.Errorf("missing argument %d (have %d)", i, len(args))
	}
	return Clean(args[i]), nil
}

// ParseEntityID parses a decimal entity id.
func ParseEntityID(s string) (core.EntityID, error) {
	v, err := strconv.ParseUint(Clean(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entity id %q: %w", s, err)
	}
	return core.EntityID(v), nil
}

// ParseInt parses a decimal integer. Host numbers may arrive as floats
// ("42.0"); integral floats are accepted.
func ParseInt(s string) (int, error) {
	s = Clean(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}

// ParseFloat parses a float.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(Clean(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

// ParseVec3 parses a position array: [x,y,z].
func ParseVec3(s string) (core.Vec3, error) {
	s = Clean(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return core.Vec3{}, fmt.Errorf("invalid position %q: not an array", s)
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 3 {
		return core.Vec3{}, fmt.Errorf("invalid position %q: want 3 components, got %d", s, len(parts))
	}

	var xyz [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("invalid position %q: component %d: %w", s, i, err)
		}
		xyz[i] = v
	}
	return core.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// FormatVec3 is the inverse of ParseVec3.
func FormatVec3(v core.Vec3) string {
	return "[" + strconv.FormatFloat(v.X, 'f', -1, 64) + "," +
		strconv.FormatFloat(v.Y, 'f', -1, 64) + "," +
		strconv.FormatFloat(v.Z, 'f', -1, 64) + "]"
}
