package command

import (
	"flag"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "stmctl" {
		t.Errorf("Name = %q, want stmctl", app.Name)
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"bank", "array", "soak", "inspect", "config", "version"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	names := make(map[string]bool)
	for _, f := range globalFlags() {
		names[f.Names()[0]] = true
	}
	for _, want := range []string{"config", "log-level", "log-format", "output", "wide", "workers"} {
		if !names[want] {
			t.Errorf("missing flag %q", want)
		}
	}
}

func newFlagContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	app := &cli.App{Name: "test", Flags: globalFlags()}
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatal(err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(app, set, nil)
}

func TestParseGlobalFlags(t *testing.T) {
	c := newFlagContext(t, "--config", "/tmp/stm.yaml", "-o", "json", "--wide", "--workers", "3", "--log-level", "debug")
	got := ParseGlobalFlags(c)
	want := GlobalFlags{
		Config:   "/tmp/stm.yaml",
		LogLevel: "debug",
		Output:   "json",
		Wide:     true,
		Workers:  3,
	}
	if *got != want {
		t.Errorf("ParseGlobalFlags() = %+v, want %+v", *got, want)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "engine:\n  workers: 2\n  queue_size: 9\nlog:\n  level: warn\n")
	t.Setenv("STM_ENGINE_QUEUE_SIZE", "11")

	c := newFlagContext(t, "--config", path, "--workers", "5")
	cfg, err := loadConfig(c)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Engine.Workers != 5 {
		t.Errorf("workers = %d, want flag value 5", cfg.Engine.Workers)
	}
	if cfg.Engine.QueueSize != 11 {
		t.Errorf("queue_size = %d, want env value 11", cfg.Engine.QueueSize)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want file value warn", cfg.Log.Level)
	}
	if cfg.Engine.Shards != 16 {
		t.Errorf("shards = %d, want default 16", cfg.Engine.Shards)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "engine:\n  shards: 3\n")
	_, err := loadConfig(newFlagContext(t, "--config", path))
	if err == nil || !strings.Contains(err.Error(), "engine.shards") {
		t.Errorf("loadConfig() error = %v, want engine.shards problem", err)
	}
}

func TestApp_BadOutputFormat(t *testing.T) {
	_, _, err := runApp(t, "-o", "xml", "version")
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("error = %v, want unknown format", err)
	}
}
