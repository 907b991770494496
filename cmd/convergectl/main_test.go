package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/converge/internal/testutil/testlog"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeWorkspace(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	target := filepath.Join(dir, "etc", "app.conf")
	manifest := "[[components]]\n" +
		"name = \"conf\"\n" +
		"kind = \"file\"\n" +
		"events = [\"conf-changed\"]\n\n" +
		"[components.settings]\n" +
		"path = \"" + filepath.ToSlash(target) + "\"\n" +
		"content = \"port=80\"\n"
	if err := os.WriteFile(filepath.Join(dir, "manifest.toml"), []byte(manifest), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	cfgPath := filepath.Join(dir, "converge.toml")
	if err := os.WriteFile(cfgPath, []byte("id = \"converge.test\"\nmanifest = \"manifest.toml\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath, target
}

func TestInitWritesLoadableTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "converge.toml")
	out, err := execute(t, "init", path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "wrote agent template") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := execute(t, "init", path); err == nil {
		t.Fatalf("expected refusal without --force")
	}
	if _, err := execute(t, "init", "--force", "--kind", "manifest.yaml", path); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestValidateListsItemsAndEvents(t *testing.T) {
	testlog.Start(t)
	cfgPath, target := writeWorkspace(t)
	out, err := execute(t, "validate", "--config", cfgPath)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "agent: converge.test") || !strings.Contains(out, "conf deps=none") {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(out, "install,config-changed,update-status,conf-changed") {
		t.Fatalf("events missing from %q", out)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("validate must not apply components, stat err=%v", err)
	}
}

func TestOnceAppliesAndReportsActive(t *testing.T) {
	testlog.Start(t)
	cfgPath, target := writeWorkspace(t)
	out, err := execute(t, "once", "--config", cfgPath, "--strict")
	if err != nil {
		t.Fatalf("once: %v output=%q", err, out)
	}
	if !strings.Contains(out, "status: active") || !strings.Contains(out, "executed: conf") {
		t.Fatalf("unexpected output %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "port=80" {
		t.Fatalf("unexpected target %q err=%v", data, err)
	}
}

func TestMissingConfigFails(t *testing.T) {
	testlog.Start(t)
	if _, err := execute(t, "validate", "--config", filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Fatalf("expected missing config error")
	}
}
