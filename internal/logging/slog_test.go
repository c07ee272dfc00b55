package logging

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// captureStdout points the console output at a pipe until the returned
// function is called, which restores it and returns what was written.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	r, w, err := osPipe()
	require.NoError(t, err)
	orig := osStdout
	osStdout = w

	return func() string {
		w.Close()
		osStdout = orig
		var buf bytes.Buffer
		buf.ReadFrom(r)
		r.Close()
		return buf.String()
	}
}

// bodies records the body of every exported OTel log record.
type bodies struct {
	mu  sync.Mutex
	got []string
}

func (b *bodies) Export(_ context.Context, records []sdklog.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range records {
		b.got = append(b.got, r.Body().AsString())
	}
	return nil
}

func (b *bodies) Shutdown(context.Context) error   { return nil }
func (b *bodies) ForceFlush(context.Context) error { return nil }

func (b *bodies) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.got...)
}

func TestSetup_FileReplacesConsole(t *testing.T) {
	done := captureStdout(t)

	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", nil)
	m.Logger().Info("Ledger loaded", "owners", 3)

	assert.Empty(t, done())
	assert.Contains(t, file.String(), "Logging initialized")
	assert.Contains(t, file.String(), "owners=3")
}

func TestSetup_ConsoleWithoutFile(t *testing.T) {
	done := captureStdout(t)

	m := NewSlogManager()
	m.Setup(nil, "info", nil)
	m.Logger().Info("Simulation started")

	assert.Contains(t, done(), "Simulation started")
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "INFO", wantInfo: true},
		{level: "warn"},
		{level: "bogus", wantInfo: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var file bytes.Buffer
			m := NewSlogManager()
			m.Setup(&file, tt.level, nil)
			m.Logger().Debug("event planned")
			m.Logger().Info("run finished")

			assert.Equal(t, tt.wantDebug, bytes.Contains(file.Bytes(), []byte("event planned")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(file.Bytes(), []byte("run finished")))
		})
	}
}

func TestSetup_TimeIsRFC3339UTC(t *testing.T) {
	var extra bytes.Buffer
	m := NewSlogManager()
	m.Setup(io.Discard, "info", nil, WithJSONWriter(&extra))

	recs := decodeLines(t, &extra)
	require.NotEmpty(t, recs)
	ts, ok := recs[0][slog.TimeKey].(string)
	require.True(t, ok)
	parsed, err := time.Parse(time.RFC3339, ts)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, parsed.Location())
}

func TestSetup_ContextSourceOnEveryOutput(t *testing.T) {
	var file, extra bytes.Buffer
	state := &simState{activeRuns: 1, watched: 2}
	m := NewSlogManager()
	m.Setup(&file, "info", nil, WithContextSource(state), WithJSONWriter(&extra))

	m.Logger().Info("Trigger fired", "frequency", 4760)

	assert.Contains(t, file.String(), "sim.activeRuns=1 sim.watched=2")
	recs := decodeLines(t, &extra)
	last := recs[len(recs)-1]
	assert.Equal(t, float64(4760), last["frequency"])
	assert.Equal(t, map[string]any{"activeRuns": float64(1), "watched": float64(2)}, last[SimGroup])
}

func TestSetup_GelfFanout(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	w, err := NewGelfWriter(conn.LocalAddr().String(), InstrumentationName)
	require.NoError(t, err)
	defer w.Close()

	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "warn", nil, WithJSONWriter(w), WithJSONWriter(nil))
	m.Logger().Warn("Spawn refused", "owner", "76561190000000000", "reason", "cooldown")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	packet := make([]byte, 64*1024)
	n, _, err := conn.ReadFrom(packet)
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(packet[:n]))
	require.NoError(t, err)
	var msg struct {
		Short    string `json:"short_message"`
		Facility string `json:"facility"`
	}
	require.NoError(t, json.NewDecoder(zr).Decode(&msg))
	assert.Equal(t, InstrumentationName, msg.Facility)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.Short), &rec))
	assert.Equal(t, "Spawn refused", rec["msg"])
	assert.Equal(t, "cooldown", rec["reason"])
	assert.Contains(t, file.String(), "reason=cooldown")
}

func TestSetup_OTelReceivesRecords(t *testing.T) {
	exp := &bodies{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	defer provider.Shutdown(context.Background())

	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", provider)
	m.Logger().Info("Vehicle destroyed", "path", "killed")
	require.NoError(t, m.Flush(context.Background()))

	assert.Contains(t, exp.all(), "Vehicle destroyed")
	assert.Contains(t, file.String(), "path=killed")
}

func TestSetup_ReplacesOutputs(t *testing.T) {
	var first, second bytes.Buffer
	m := NewSlogManager()

	m.Setup(&first, "info", nil)
	m.Logger().Info("before reload")
	m.Setup(&second, "info", nil)
	m.Logger().Info("after reload")

	assert.NotContains(t, first.String(), "after reload")
	assert.Contains(t, second.String(), "after reload")
}

func TestSlogManager_Defaults(t *testing.T) {
	assert.Equal(t, slog.Default(), NewSlogManager().Logger())
	assert.NoError(t, NewSlogManager().Flush(context.Background()))

	var nilManager *SlogManager
	assert.Equal(t, slog.Default(), nilManager.Logger())
}

func TestNewGelfWriter_BadAddress(t *testing.T) {
	_, err := NewGelfWriter("not an address", InstrumentationName)
	assert.ErrorContains(t, err, "GELF writer")
}
