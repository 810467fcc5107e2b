package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "simulation:\n  seed: 3\nlogging:\n  path: " + filepath.Join(t.TempDir(), "journal.jsonl") + "\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestSimulateIdlePool(t *testing.T) {
	out := execute(t, "simulate", "-c", writeConfig(t), "-n", "5")
	for _, want := range []string{
		"tick 5: 3 idle, 0 pending, 0 active",
		"cart cart-1: position (100, 100), status: idle, cargo: none",
		"cart cart-3: position (180, 100), status: idle, cargo: none",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestSimulateDeployAll(t *testing.T) {
	out := execute(t, "simulate", "-c", writeConfig(t), "-n", "10", "--deploy-all")
	if !strings.Contains(out, "tick 10: 0 idle, 0 pending, 3 active") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "status: moving") {
		t.Fatalf("expected moving carts:\n%s", out)
	}
	simDeployAll = false
}

func TestEquipmentLs(t *testing.T) {
	out := execute(t, "equipment", "ls", "-c", writeConfig(t))
	if !strings.Contains(out, "eq1") || !strings.Contains(out, "warehouse-3") {
		t.Fatalf("unexpected listing:\n%s", out)
	}
}

func TestJournalExportEmpty(t *testing.T) {
	out := execute(t, "journal", "export", "-c", writeConfig(t), "-f", "csv")
	if !strings.HasPrefix(out, "timestamp,kind,action") {
		t.Fatalf("unexpected export:\n%s", out)
	}
}
