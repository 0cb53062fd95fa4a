package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestBuildDefaults(t *testing.T) {
	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if cfg.InFormat != "csv" || cfg.OutFormat != "camt053" {
		t.Errorf("formats = %q/%q, want csv/camt053", cfg.InFormat, cfg.OutFormat)
	}
	if cfg.CSVLayout != "simple" || cfg.LogLevel != "info" {
		t.Errorf("layout/level = %q/%q, want simple/info", cfg.CSVLayout, cfg.LogLevel)
	}
}

func TestBuildFromFile(t *testing.T) {
	content := `in-format: mt940
out-format: csv
log-level: debug
dialect-profile: dialects/halyk.yaml
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Build(path, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if cfg.InFormat != "mt940" || cfg.OutFormat != "csv" {
		t.Errorf("formats = %q/%q, want mt940/csv", cfg.InFormat, cfg.OutFormat)
	}
	if cfg.LogLevel != "debug" || cfg.DialectProfile != "dialects/halyk.yaml" {
		t.Errorf("level/profile = %q/%q", cfg.LogLevel, cfg.DialectProfile)
	}
}

func TestBuildMissingConfigFile(t *testing.T) {
	if _, err := Build(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("expected error for explicitly named missing config file")
	}
}

func TestBuildEnvOverride(t *testing.T) {
	t.Setenv("LEDGER_BRIDGE_OUT_FORMAT", "mt940")

	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.OutFormat != "mt940" {
		t.Errorf("out format = %q, want mt940 from environment", cfg.OutFormat)
	}
}

func TestBuildFlagOverride(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("in-format", "", "")
	if err := flags.Set("in-format", "camt053"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Build("", flags)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.InFormat != "camt053" {
		t.Errorf("in format = %q, want camt053 from flag", cfg.InFormat)
	}
}
