package paramscmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "paths:\n  params: " + filepath.Join(dir, "params.db") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := Cmd(&configPath)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParamsPutGet(t *testing.T) {
	cfg := writeConfig(t)

	if _, err := run(t, cfg, "put", "LanguageSetting", "main_de"); err != nil {
		t.Fatalf("put: %v", err)
	}
	out, err := run(t, cfg, "get", "LanguageSetting")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(out) != "main_de" {
		t.Fatalf("get output = %q, want main_de", out)
	}
}

func TestParamsClearCategory(t *testing.T) {
	cfg := writeConfig(t)
	for _, kv := range [][2]string{{"DoReboot", "1"}, {"DongleId", "abc"}} {
		if _, err := run(t, cfg, "put", kv[0], kv[1]); err != nil {
			t.Fatalf("put %s: %v", kv[0], err)
		}
	}

	if _, err := run(t, cfg, "clear", "manager-start"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := run(t, cfg, "get", "DoReboot"); err == nil {
		t.Fatal("DoReboot survived clear manager-start")
	}
	if out, err := run(t, cfg, "get", "DongleId"); err != nil || strings.TrimSpace(out) != "abc" {
		t.Fatalf("DongleId = %q, %v; want abc", out, err)
	}
}

func TestParamsRejectsUnknown(t *testing.T) {
	cfg := writeConfig(t)
	if _, err := run(t, cfg, "put", "NoSuchKey", "1"); err == nil {
		t.Fatal("put of unknown key succeeded")
	}
	if _, err := run(t, cfg, "clear", "persistent"); err == nil {
		t.Fatal("clear of unknown category succeeded")
	}
}
