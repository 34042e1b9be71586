package persona

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	profiles := Defaults()
	if len(profiles) != 3 {
		t.Fatalf("Defaults returned %d profiles, want 3", len(profiles))
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			t.Errorf("default profile %q invalid: %v", p.Name, err)
		}
		if len(p.Topics) == 0 {
			t.Errorf("default profile %q has no authoring topics", p.Name)
		}
	}

	general, err := Find(profiles, "general")
	if err != nil {
		t.Fatalf("Find(general): %v", err)
	}
	if len(general.FocusKeywords) != 0 {
		t.Error("general persona should have no focus keywords")
	}
}

func TestValidateRejectsBadProfiles(t *testing.T) {
	cases := []struct {
		name    string
		profile Profile
	}{
		{"empty name", Profile{}},
		{"negative quota", Profile{Name: "x", ReadQuota: -1}},
		{"probability above one", Profile{Name: "x", InteractionProbability: 1.5}},
		{"negative probability", Profile{Name: "x", AuthoringProbability: -0.1}},
	}
	for _, tc := range cases {
		if err := tc.profile.Validate(); err == nil {
			t.Errorf("%s: Validate accepted invalid profile", tc.name)
		}
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := `personas:
  - name: lurker
    display_name: 潜水Bot
    read_quota: 5
    interaction_probability: 0.1
    authoring_probability: 0
    focus_keywords: [golang, backend]
    topics: [每周总结]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	profiles, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("Load returned %d profiles, want 1", len(profiles))
	}
	p := profiles[0]
	if p.Name != "lurker" || p.ReadQuota != 5 {
		t.Errorf("unexpected profile: %+v", p)
	}
	if p.AuthoringProbability != 0 {
		t.Errorf("AuthoringProbability = %v, want 0", p.AuthoringProbability)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	profiles, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if len(profiles) != len(Defaults()) {
		t.Errorf("Load(\"\") returned %d profiles, want the defaults", len(profiles))
	}
}

func TestLoadRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := `personas:
  - name: a
    read_quota: 1
  - name: a
    read_quota: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted duplicate persona names")
	}
}

func TestFindMissing(t *testing.T) {
	if _, err := Find(Defaults(), "nobody"); err == nil {
		t.Error("Find should fail for an unknown persona")
	}
}
