// Package persona defines the declarative behavior profiles that drive
// each automated forum identity.
package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the immutable behavior configuration for one persona.
// One profile drives exactly one runner per scheduler cycle.
type Profile struct {
	// Name is the short identifier used for journal attribution.
	Name string `yaml:"name"`
	// DisplayName is the operator-facing label.
	DisplayName string `yaml:"display_name"`
	// ReadQuota caps how many content items the persona visits per cycle.
	ReadQuota int `yaml:"read_quota"`
	// InteractionProbability gates endorsement/commentary per visited item.
	InteractionProbability float64 `yaml:"interaction_probability"`
	// AuthoringProbability gates one new-post attempt per cycle.
	AuthoringProbability float64 `yaml:"authoring_probability"`
	// FocusKeywords bias content selection; empty means no topical focus.
	FocusKeywords []string `yaml:"focus_keywords"`
	// Topics are the title templates used when authoring a new post.
	Topics []string `yaml:"topics"`
}

// Validate checks the profile invariants.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("persona: name must not be empty")
	}
	if p.ReadQuota < 0 {
		return fmt.Errorf("persona %q: read_quota must not be negative", p.Name)
	}
	if p.InteractionProbability < 0 || p.InteractionProbability > 1 {
		return fmt.Errorf("persona %q: interaction_probability must be in [0,1]", p.Name)
	}
	if p.AuthoringProbability < 0 || p.AuthoringProbability > 1 {
		return fmt.Errorf("persona %q: authoring_probability must be in [0,1]", p.Name)
	}
	return nil
}

// Defaults returns the built-in persona set.
func Defaults() []Profile {
	return []Profile{
		{
			Name:                   "tech",
			DisplayName:            "技术学习Bot",
			ReadQuota:              20,
			InteractionProbability: 0.6,
			AuthoringProbability:   0.5,
			FocusKeywords:          []string{"code", "programming", "developer", "tech", "software", "AI", "data"},
			Topics:                 []string{"分享一个编程小技巧", "AI工具推荐", "开发心得"},
		},
		{
			Name:                   "study",
			DisplayName:            "学习交流Bot",
			ReadQuota:              20,
			InteractionProbability: 0.6,
			AuthoringProbability:   0.5,
			FocusKeywords:          []string{"learn", "study", "question", "help", "tutorial", "tips"},
			Topics:                 []string{"学习方法分享", "今日学习总结", "求助：学习问题"},
		},
		{
			Name:                   "general",
			DisplayName:            "综合Bot",
			ReadQuota:              20,
			InteractionProbability: 0.5,
			AuthoringProbability:   0.5,
			FocusKeywords:          nil,
			Topics:                 []string{"今日思考", "生活感悟", "综合分享"},
		},
	}
}

type profileFile struct {
	Personas []Profile `yaml:"personas"`
}

// Load reads a persona set from a YAML file. An empty path returns the
// built-in defaults.
func Load(path string) ([]Profile, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read %s: %w", path, err)
	}
	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("persona: parse %s: %w", path, err)
	}
	if len(pf.Personas) == 0 {
		return nil, fmt.Errorf("persona: %s defines no personas", path)
	}
	seen := make(map[string]bool, len(pf.Personas))
	for _, p := range pf.Personas {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("persona: duplicate name %q in %s", p.Name, path)
		}
		seen[p.Name] = true
	}
	return pf.Personas, nil
}

// Find returns the profile with the given name.
func Find(profiles []Profile, name string) (Profile, error) {
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("persona %q not found", name)
}

// Names lists the persona identifiers in order.
func Names(profiles []Profile) []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}
