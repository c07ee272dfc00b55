// Command bombtrucks inspects bomb vehicle profiles and ledgers and runs
// detonations against the in-memory world.
//
// Usage:
//
//	bombtrucks [--config <dir>] profiles
//	bombtrucks [--config <dir>] plan <profile>
//	bombtrucks ledger <dir>
//	bombtrucks [--config <dir>] simulate [profile]
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	ExtensionName string = "bombtrucks"
)

func usage(w io.Writer) {
	fmt.Fprintf(w, "%s %s (built %s)\n\n", ExtensionName, CurrentExtensionVersion, BuildDate)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  bombtrucks [--config <dir>] profiles")
	fmt.Fprintln(w, "  bombtrucks [--config <dir>] plan <profile>")
	fmt.Fprintln(w, "  bombtrucks ledger <dir>")
	fmt.Fprintln(w, "  bombtrucks [--config <dir>] simulate [profile]")
}

// parseArgs splits a leading --config flag from the command and its
// arguments.
func parseArgs(args []string) (configDir string, cmd string, rest []string, err error) {
	configDir = "."
	for len(args) > 0 && strings.HasPrefix(args[0], "--") {
		flag, value, hasValue := strings.Cut(args[0], "=")
		switch flag {
		case "--config":
			if !hasValue {
				if len(args) < 2 {
					return "", "", nil, fmt.Errorf("%s needs a directory", flag)
				}
				value = args[1]
				args = args[1:]
			}
			configDir = value
			args = args[1:]
		default:
			return "", "", nil, fmt.Errorf("unknown flag %s", flag)
		}
	}
	if len(args) == 0 {
		return configDir, "", nil, nil
	}
	return configDir, strings.ToLower(args[0]), args[1:], nil
}

func run(args []string, stdout, stderr io.Writer) error {
	configDir, cmd, rest, err := parseArgs(args)
	if err != nil {
		usage(stderr)
		return err
	}

	switch cmd {
	case "profiles":
		if err := loadConfig(configDir, stderr); err != nil {
			return err
		}
		return printProfiles(stdout)

	case "plan":
		if len(rest) == 0 {
			return fmt.Errorf("plan: no profile provided")
		}
		if err := loadConfig(configDir, stderr); err != nil {
			return err
		}
		return printPlan(stdout, rest[0])

	case "ledger":
		if len(rest) > 0 {
			configDir = rest[0]
		}
		if err := loadConfig(configDir, stderr); err != nil {
			return err
		}
		return printLedger(stdout)

	case "simulate":
		if err := loadConfig(configDir, stderr); err != nil {
			return err
		}
		profile := ""
		if len(rest) > 0 {
			profile = rest[0]
		}
		return simulate(stdout, profile)

	case "", "help":
		usage(stdout)
		return nil

	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
