package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bombtrucks/extension/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		dir     string
		cmd     string
		rest    []string
		wantErr bool
	}{
		{name: "empty", args: nil, dir: "."},
		{name: "command only", args: []string{"PROFILES"}, dir: ".", cmd: "profiles", rest: []string{}},
		{name: "config separate", args: []string{"--config", "/etc/bt", "plan", "Nuke"}, dir: "/etc/bt", cmd: "plan", rest: []string{"Nuke"}},
		{name: "config inline", args: []string{"--config=cfg", "simulate"}, dir: "cfg", cmd: "simulate", rest: []string{}},
		{name: "config without value", args: []string{"--config"}, wantErr: true},
		{name: "unknown flag", args: []string{"--verbose", "profiles"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, cmd, rest, err := parseArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dir, dir)
			assert.Equal(t, tt.cmd, cmd)
			if tt.rest != nil {
				assert.Equal(t, tt.rest, rest)
			}
		})
	}
}

func setupConfig(t *testing.T) string {
	t.Helper()
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	_, err := config.Load(dir)
	require.NoError(t, err)
	return dir
}

func TestPrintProfiles_DefaultFirst(t *testing.T) {
	setupConfig(t)

	var buf bytes.Buffer
	require.NoError(t, printProfiles(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "PROFILE"))
	assert.True(t, strings.HasPrefix(lines[1], "default"))
}

func TestPrintPlan(t *testing.T) {
	setupConfig(t)

	var buf bytes.Buffer
	require.NoError(t, printPlan(&buf, "DEFAULT"))
	assert.Contains(t, buf.String(), "default: ")
	assert.Contains(t, buf.String(), "STEP")

	err := printPlan(&buf, "ghost")
	assert.Error(t, err)
}

func TestPrintLedger_Empty(t *testing.T) {
	setupConfig(t)
	viper.Set("storage.type", "file")
	viper.Set("storage.file.path", filepath.Join(t.TempDir(), "ledger.json"))

	var buf bytes.Buffer
	require.NoError(t, printLedger(&buf))
	assert.Contains(t, buf.String(), "0 owners, 0 records")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"explode"}, &stdout, &stderr)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "Usage:")
}

func TestRun_ProfilesWithConfigDir(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"--config", dir, "profiles"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "default")
	assert.Contains(t, stderr.String(), "created")
}

func TestSimulate_DefaultProfile(t *testing.T) {
	setupConfig(t)
	viper.Set("logsDir", t.TempDir())

	var buf bytes.Buffer
	require.NoError(t, simulate(&buf, ""))

	out := buf.String()
	assert.Contains(t, out, `["ok",":BOMB:SPAWN:",`)
	assert.Contains(t, out, `["ok",":RF:BROADCAST:",1]`)
	assert.Contains(t, out, "fired ")
	assert.Contains(t, out, "observers left on vehicle ")
	assert.Contains(t, out, `"activeRuns":0`)
}
