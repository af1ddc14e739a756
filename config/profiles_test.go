package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/perflens/perflens/model"
)

func writeProfile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadProfilesDir(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "esports.yaml", `
name: Esports
workload_type: gaming
parameters:
  target_fps: 240
  vram_total_mb: 8192
threshold_overrides:
  cpu_high: 95
`)
	writeProfile(t, dir, "notes.txt", "not a profile")

	profiles, err := LoadProfilesDir(dir)
	if err != nil {
		t.Fatalf("LoadProfilesDir: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("got %d profiles, want 1", len(profiles))
	}
	p := profiles[0]
	if p.ID != "esports" {
		t.Errorf("ID = %q, want filename-derived esports", p.ID)
	}
	if p.Workload != model.WorkloadGaming {
		t.Errorf("workload = %q", p.Workload)
	}
	if fps, ok := p.FloatParam("target_fps"); !ok || fps != 240 {
		t.Errorf("target_fps = %v, %v", fps, ok)
	}
	if p.Overrides == nil || p.Overrides.CPUHigh == nil || *p.Overrides.CPUHigh != 95 {
		t.Errorf("overrides = %+v", p.Overrides)
	}
}

func TestLoadProfilesDirErrors(t *testing.T) {
	if got, err := LoadProfilesDir(filepath.Join(t.TempDir(), "missing")); err != nil || got != nil {
		t.Errorf("missing dir: %v, %v", got, err)
	}

	dir := t.TempDir()
	writeProfile(t, dir, "bad.yaml", "workload_type: quantum\n")
	if _, err := LoadProfilesDir(dir); err == nil {
		t.Error("unknown workload type accepted")
	}
}

func TestProfilesMerge(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "gaming.yaml", `
id: gaming
name: Custom Gaming
workload_type: gaming
`)

	profiles, err := Profiles(dir)
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	builtins := len(BuiltinProfiles())
	if len(profiles) != builtins {
		t.Errorf("got %d profiles, want %d (user entry replaces built-in)", len(profiles), builtins)
	}
	found := false
	for _, p := range profiles {
		if p.ID == "gaming" && p.Name == "Custom Gaming" {
			found = true
		}
	}
	if !found {
		t.Error("user gaming profile did not replace the built-in")
	}
}

func TestFindProfile(t *testing.T) {
	p, err := FindProfile("", "rendering")
	if err != nil || p == nil || p.Workload != model.WorkloadRendering {
		t.Errorf("rendering = %+v, %v", p, err)
	}

	if p, err := FindProfile("", ""); err != nil || p != nil {
		t.Errorf("empty id = %+v, %v", p, err)
	}

	if _, err := FindProfile("", "nope"); err == nil {
		t.Error("unknown profile id accepted")
	}
}
