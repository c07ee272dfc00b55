package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simState stands in for the coordinator's LogContext.
type simState struct {
	activeRuns, watched int
}

func (s *simState) LogContext() []slog.Attr {
	return []slog.Attr{
		slog.Int("activeRuns", s.activeRuns),
		slog.Int("watched", s.watched),
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec), "line %q", line)
		out = append(out, rec)
	}
	return out
}

func TestContextHandler_NestsSimState(t *testing.T) {
	var buf bytes.Buffer
	state := &simState{activeRuns: 2, watched: 5}
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil), state))

	log.Info("Vehicle spawned", "activeRuns", "call-site")
	state.activeRuns = 0
	log.Info("Run finished")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "call-site", recs[0]["activeRuns"], "call-site keys are not shadowed")
	assert.Equal(t, map[string]any{"activeRuns": float64(2), "watched": float64(5)}, recs[0][SimGroup])
	assert.Equal(t, float64(0), recs[1][SimGroup].(map[string]any)["activeRuns"], "read at log time")
}

func TestContextHandler_EmptySourceAddsNoGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil), ContextFunc(func() []slog.Attr { return nil })))
	log.Info("boot")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.NotContains(t, recs[0], SimGroup)
}

func TestContextHandler_KeepsDerivedAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewJSONHandler(&buf, nil), &simState{watched: 1})
	slog.New(h).With("component", "monitor").Info("attached")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "monitor", recs[0]["component"])
	assert.Contains(t, recs[0], SimGroup)
}

func TestContextFunc_Nil(t *testing.T) {
	var f ContextFunc
	assert.Nil(t, f.LogContext())
}

func TestLateSource(t *testing.T) {
	var late LateSource
	assert.Nil(t, late.LogContext(), "unbound")

	late.Bind(&simState{activeRuns: 4})
	attrs := late.LogContext()
	require.Len(t, attrs, 2)
	assert.Equal(t, int64(4), attrs[0].Value.Int64())

	late.Bind(nil)
	assert.Nil(t, late.LogContext(), "unbound again")
}
