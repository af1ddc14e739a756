package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/perflens/perflens/model"
)

// BuiltinProfiles returns the shipped workload presets, one per workload
// type, ordered by ID.
func BuiltinProfiles() []model.WorkloadProfile {
	return []model.WorkloadProfile{
		{ID: "ai", Name: "AI / ML", Workload: model.WorkloadAI},
		{ID: "gaming", Name: "Gaming", Workload: model.WorkloadGaming,
			Parameters: map[string]any{"target_fps": 60}},
		{ID: "general", Name: "General", Workload: model.WorkloadGeneral},
		{ID: "productivity", Name: "Productivity", Workload: model.WorkloadProductivity},
		{ID: "rendering", Name: "Rendering", Workload: model.WorkloadRendering},
	}
}

// LoadProfilesDir parses every .yaml/.yml file in dir as one profile.
// A missing dir is not an error; a malformed file is.
func LoadProfilesDir(dir string) ([]model.WorkloadProfile, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles dir: %w", err)
	}

	var profiles []model.WorkloadProfile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read profile %s: %w", path, err)
		}
		var p model.WorkloadProfile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse profile %s: %w", path, err)
		}
		if p.ID == "" {
			p.ID = strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		}
		if !p.Workload.Valid() {
			return nil, fmt.Errorf("profile %s: unknown workload type %q", path, p.Workload)
		}
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

// Profiles merges the built-in presets with the user's dir, user entries
// replacing built-ins with the same ID.
func Profiles(dir string) ([]model.WorkloadProfile, error) {
	byID := make(map[string]model.WorkloadProfile)
	for _, p := range BuiltinProfiles() {
		byID[p.ID] = p
	}
	if dir != "" {
		user, err := LoadProfilesDir(dir)
		if err != nil {
			return nil, err
		}
		for _, p := range user {
			byID[p.ID] = p
		}
	}
	out := make([]model.WorkloadProfile, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindProfile resolves a profile by ID. An empty id means no profile.
func FindProfile(dir, id string) (*model.WorkloadProfile, error) {
	if id == "" {
		return nil, nil
	}
	profiles, err := Profiles(dir)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].ID == id {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("unknown profile %q", id)
}
