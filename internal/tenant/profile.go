package tenant

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultProfiles []byte

// Profile is the identity block and asset selection of a tenant: the
// letterhead it prints on advices and the details it signs emails with.
type Profile struct {
	Name         string            `yaml:"name"`
	Address      []string          `yaml:"address"`
	Registration string            `yaml:"registration"`
	Email        string            `yaml:"email"`
	Phone        string            `yaml:"phone"`
	Template     string            `yaml:"template"`
	EmailSubject string            `yaml:"email_subject"`
	Images       map[string]string `yaml:"images"`
}

// Profiles is an exhaustive lookup table keyed by tenant.
type Profiles struct {
	byTenant map[Tenant]Profile
}

// Default returns the profiles bundled with the binary.
func Default() (*Profiles, error) {
	return ParseProfiles(defaultProfiles)
}

// LoadFile reads profiles from path, falling back to the bundled table when
// path is empty.
func LoadFile(path string) (*Profiles, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tenant profiles: %w", err)
	}

	return ParseProfiles(data)
}

// ParseProfiles decodes a YAML profile table. Every known tenant must have an entry
// and no entry may name a tenant the system does not know.
func ParseProfiles(data []byte) (*Profiles, error) {
	var raw map[string]Profile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding tenant profiles: %w", err)
	}

	byTenant := make(map[Tenant]Profile, len(raw))

	for key, p := range raw {
		t, err := Parse(key)
		if err != nil {
			return nil, err
		}

		if p.Template == "" {
			return nil, fmt.Errorf("tenant %s: template is required", t)
		}

		byTenant[t] = p
	}

	for _, t := range All {
		if _, ok := byTenant[t]; !ok {
			return nil, fmt.Errorf("tenant %s: no profile configured", t)
		}
	}

	return &Profiles{byTenant: byTenant}, nil
}

func (p *Profiles) Lookup(t Tenant) (Profile, error) {
	profile, ok := p.byTenant[t]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownTenant, string(t))
	}

	return profile, nil
}

// ImageNames returns the image placeholders of a profile in a stable order.
func (p Profile) ImageNames() []string {
	names := make([]string, 0, len(p.Images))
	for name := range p.Images {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
