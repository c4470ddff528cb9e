package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"pilotmgr/process"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TickTimeout != time.Second || !cfg.PowerActions {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_OverridesAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
paths:
  params: /tmp/params.db
ntp_server: ""
tick_timeout: 250ms
power_actions: false
workers:
  - name: thermald
    exec: /usr/bin/thermald
  - name: camerad
    exec: /usr/bin/camerad
    run: onroad
    stop_timeout: 2s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.Params != "/tmp/params.db" {
		t.Errorf("params path = %q", cfg.Paths.Params)
	}
	if cfg.Paths.Crashes != Default().Paths.Crashes {
		t.Errorf("crashes path lost its default: %q", cfg.Paths.Crashes)
	}
	if cfg.NTPServer != "" || cfg.TickTimeout != 250*time.Millisecond || cfg.PowerActions {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Workers) != 2 {
		t.Fatalf("workers = %d, want 2", len(cfg.Workers))
	}
	if cfg.Workers[1].Run != process.RunOnroad || cfg.Workers[1].StopTimeout != 2*time.Second {
		t.Errorf("camerad spec = %+v", cfg.Workers[1])
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"duplicate worker": "workers:\n  - {name: a, exec: /a}\n  - {name: a, exec: /b}\n",
		"bad run":          "workers:\n  - {name: a, exec: /a, run: sometimes}\n",
		"zero tick":        "tick_timeout: 0s\n",
		"bad yaml":         "workers: [\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	vars := map[string]string{
		"PASSIVE": "0",
		"NOBOARD": "",
		"BLOCK":   "uploader, ,logcatd,",
	}
	env, err := FromEnv(func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if env.Passive == nil || *env.Passive {
		t.Errorf("Passive = %v, want false", env.Passive)
	}
	if !env.NoBoard || env.PrepareOnly || env.Release {
		t.Errorf("flags = %+v", env)
	}
	if !slices.Equal(env.Block, []string{"uploader", "logcatd"}) {
		t.Errorf("Block = %v", env.Block)
	}
}

func TestFromEnv_Empty(t *testing.T) {
	env, err := FromEnv(func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if env.Passive != nil || env.NoBoard || len(env.Block) != 0 {
		t.Fatalf("expected zero Env, got %+v", env)
	}
}

func TestFromEnv_InvalidPassive(t *testing.T) {
	_, err := FromEnv(func(k string) (string, bool) {
		if k == "PASSIVE" {
			return "yes", true
		}
		return "", false
	})
	if err == nil {
		t.Fatal("expected error for non-integer PASSIVE")
	}
}
