package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bombtrucks/extension/pkg/core"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "bombtrucks.cfg.json"

// Status reports what Load had to do to produce a usable configuration.
type Status int

const (
	// StatusLoaded means the file was read and already had every key.
	StatusLoaded Status = iota
	// StatusCreated means no file existed and the defaults were written.
	StatusCreated
	// StatusRecovered means the file could not be parsed; defaults were written over it.
	StatusRecovered
	// StatusUpdated means keys were missing and the merged result was written back.
	StatusUpdated
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusCreated:
		return "created"
	case StatusRecovered:
		return "recovered"
	case StatusUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// StorageConfig selects and configures the ledger storage backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	File   FileConfig   `json:"file" mapstructure:"file"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// FileConfig holds JSON document storage settings
type FileConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// SQLiteConfig holds SQLite storage settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// NoEscapeConfig controls spawning while the anti-grief add-on blocks a player.
type NoEscapeConfig struct {
	CanSpawnWhileRaidBlocked   bool `json:"canSpawnWhileRaidBlocked" mapstructure:"canSpawnWhileRaidBlocked"`
	CanSpawnWhileCombatBlocked bool `json:"canSpawnWhileCombatBlocked" mapstructure:"canSpawnWhileCombatBlocked"`
}

// InfluxConfig holds InfluxDB sink settings
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// ServerURL joins protocol, host and port.
func (c InfluxConfig) ServerURL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// StreamConfig holds websocket event stream settings
type StreamConfig struct {
	Enabled bool
	URL     string
	Secret  string
}

func defaults() map[string]any {
	return map[string]any{
		"logLevel": "info",
		"logsDir":  "./bombtrucks_logs",

		"storage.type":        "file",
		"storage.file.path":   "./bombtrucks_data/ledger.json",
		"storage.sqlite.path": "./bombtrucks_data/ledger.db",

		"db.host":     "localhost",
		"db.port":     "5432",
		"db.username": "postgres",
		"db.password": "postgres",
		"db.database": "bombtrucks",

		"otel.enabled":      false,
		"otel.serviceName":  "bombtrucks",
		"otel.batchTimeout": "5s",
		"otel.endpoint":     "",
		"otel.insecure":     true,

		"graylog.enabled": false,
		"graylog.address": "localhost:12201",

		"influx.enabled":  false,
		"influx.host":     "localhost",
		"influx.port":     "8086",
		"influx.protocol": "http",
		"influx.token":    "supersecrettoken",
		"influx.org":      "bombtrucks",
		"influx.bucket":   "bombtrucks",

		"stream.enabled": false,
		"stream.url":     "ws://localhost:5000/api/v1/bombtrucks/ws",
		"stream.secret":  "",

		"spawner.minVersion": "v2.0.0",

		"noEscape.canSpawnWhileRaidBlocked":   true,
		"noEscape.canSpawnWhileCombatBlocked": true,

		"profiles": rawProfiles(core.DefaultProfiles()),
	}
}

// rawProfiles converts profiles into the generic shape viper stores, so the
// written file lists them with their JSON field names.
func rawProfiles(profiles []core.Profile) []any {
	data, err := json.Marshal(profiles)
	if err != nil {
		panic(fmt.Sprintf("config: marshal default profiles: %v", err))
	}
	var out []any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("config: unmarshal default profiles: %v", err))
	}
	return out
}

// Load reads configuration from the JSON file in configDir, registering
// defaults first. A missing or unparseable file is replaced by the defaults;
// a file lacking keys is merged with the defaults and written back.
func Load(configDir string) (Status, error) {
	defs := defaults()
	for key, value := range defs {
		viper.SetDefault(key, value)
	}

	path := filepath.Join(configDir, FileName)
	viper.SetConfigFile(path)
	viper.SetConfigType("json")

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path); err != nil {
			return StatusCreated, err
		}
		return StatusCreated, nil
	}

	if err := viper.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if !errors.As(err, &parseErr) {
			return StatusLoaded, fmt.Errorf("error reading config file: %w", err)
		}
		if err := write(path); err != nil {
			return StatusRecovered, err
		}
		return StatusRecovered, nil
	}

	if missing := MissingKeys(defs); len(missing) > 0 {
		if err := write(path); err != nil {
			return StatusUpdated, err
		}
		return StatusUpdated, nil
	}

	return StatusLoaded, nil
}

// MissingKeys lists the keys of defs not present in the loaded file.
func MissingKeys(defs map[string]any) []string {
	var missing []string
	for key := range defs {
		if !viper.InConfig(key) {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		File: FileConfig{
			Path: viper.GetString("storage.file.path"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetNoEscapeConfig returns the anti-grief spawn settings.
func GetNoEscapeConfig() NoEscapeConfig {
	return NoEscapeConfig{
		CanSpawnWhileRaidBlocked:   viper.GetBool("noEscape.canSpawnWhileRaidBlocked"),
		CanSpawnWhileCombatBlocked: viper.GetBool("noEscape.canSpawnWhileCombatBlocked"),
	}
}

func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

func GetStreamConfig() StreamConfig {
	return StreamConfig{
		Enabled: viper.GetBool("stream.enabled"),
		URL:     viper.GetString("stream.url"),
		Secret:  viper.GetString("stream.secret"),
	}
}

// GetSpawnerMinVersion returns the lowest spawner add-on version accepted.
func GetSpawnerMinVersion() string {
	return viper.GetString("spawner.minVersion")
}

// GetProfiles decodes the configured profiles. Each entry is decoded over
// BaseProfile so omitted fields keep their defaults. Entries that fail to
// decode or have no name are skipped and reported in the returned error.
func GetProfiles() ([]core.Profile, error) {
	raw, ok := viper.Get("profiles").([]any)
	if !ok {
		return nil, fmt.Errorf("profiles: expected a list, got %T", viper.Get("profiles"))
	}

	profiles := make([]core.Profile, 0, len(raw))
	var errs []error
	for i, item := range raw {
		p, err := decodeProfile(item)
		if err != nil {
			errs = append(errs, fmt.Errorf("profile %d: %w", i, err))
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, errors.Join(errs...)
}

func decodeProfile(item any) (core.Profile, error) {
	p := core.BaseProfile()

	fields, ok := item.(map[string]any)
	if !ok {
		return p, fmt.Errorf("expected an object, got %T", item)
	}
	// A configured module list replaces the default one instead of
	// overwriting it element by element.
	for key := range fields {
		if strings.EqualFold(key, "modules") {
			p.Modules = nil
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           &p,
	})
	if err != nil {
		return p, err
	}
	if err := decoder.Decode(fields); err != nil {
		return p, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return p, errors.New("missing name")
	}

	p.Normalize()
	return p, nil
}
