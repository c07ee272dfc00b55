package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeConfig(t, dir, `{
		"logLevel": "debug",
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	_, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeConfig(t, dir, `{}`)

	_, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./bombtrucks_logs", viper.GetString("logsDir"))
	assert.Equal(t, "file", viper.GetString("storage.type"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "bombtrucks", viper.GetString("otel.serviceName"))
	assert.Equal(t, "v2.0.0", viper.GetString("spawner.minVersion"))
	assert.Equal(t, true, viper.GetBool("noEscape.canSpawnWhileRaidBlocked"))
}

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	status, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "profiles")

	// A second load finds every key in place.
	status, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, status)
}

func TestLoad_MalformedFileRecovers(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeConfig(t, dir, `{"logLevel": "debug",`)

	status, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, StatusRecovered, status)
	assert.Equal(t, "info", viper.GetString("logLevel"))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestLoad_MissingKeysAreMergedAndSaved(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeConfig(t, dir, `{"logLevel": "warn"}`)

	status, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, status)
	assert.Equal(t, "warn", viper.GetString("logLevel"))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "warn", doc["loglevel"])
	assert.Contains(t, doc, "storage")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeConfig(t, dir, `{
		"storage": {
			"type": "sqlite",
			"sqlite": { "path": "/tmp/ledger.db" }
		}
	}`)
	_, err := Load(dir)
	require.NoError(t, err)

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/ledger.db", sc.SQLite.Path)
	assert.Equal(t, "./bombtrucks_data/ledger.json", sc.File.Path)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeConfig(t, dir, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4318",
			"insecure": false
		}
	}`)
	_, err := Load(dir)
	require.NoError(t, err)

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4318", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetInfluxConfig_ServerURL(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeConfig(t, dir, `{"influx": {"enabled": true, "host": "metrics", "port": "9999", "protocol": "https"}}`)
	_, err := Load(dir)
	require.NoError(t, err)

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "https://metrics:9999", ic.ServerURL())
	assert.Equal(t, "bombtrucks", ic.Bucket)
}

func TestGetProfiles_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	_, err := Load(dir)
	require.NoError(t, err)

	profiles, err := GetProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "default", profiles[0].Name)
	assert.Equal(t, 5.0, profiles[0].ExplosionSettings.Radius)
	assert.Equal(t, "Nuke", profiles[1].Name)
	assert.Len(t, profiles[1].Modules, 3)
}

func TestGetProfiles_PartialEntriesKeepDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	writeConfig(t, dir, `{
		"profiles": [
			{
				"name": "mini",
				"enginePartsTier": 7,
				"modules": ["vehicle.1mod.cockpit.with.engine"],
				"explosionSettings": { "radius": "3" }
			},
			{ "cooldownSeconds": 10 }
		]
	}`)
	_, err := Load(dir)
	require.NoError(t, err)

	profiles, err := GetProfiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile 1")

	require.Len(t, profiles, 1)
	p := profiles[0]
	assert.Equal(t, "mini", p.Name)
	assert.Equal(t, 3, p.EnginePartsTier)
	assert.Equal(t, 1, p.SpawnLimitPerPlayer)
	assert.True(t, p.AttachReceiver)
	assert.Equal(t, []string{"vehicle.1mod.cockpit.with.engine"}, p.Modules)
	assert.Equal(t, 3.0, p.ExplosionSettings.Radius)
	assert.Equal(t, 10.0, p.ExplosionSettings.Speed)
	assert.Equal(t, 2.0, p.ExplosionSettings.DensityExponent)
}
