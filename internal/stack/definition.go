// Package stack declares and operates the three-service composition:
// database, application server and reverse proxy, wired through named
// volumes, internal networks and an ordered bring-up.
package stack

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the declarative form of one stack.
type Definition struct {
	Name     string                `yaml:"name"`
	Services map[string]ServiceDef `yaml:"services"`
	Volumes  map[string]VolumeDef  `yaml:"volumes"`
	Networks map[string]NetworkDef `yaml:"networks"`
}

// ServiceDef declares one service of the stack. DependsOn is a start-order
// guarantee only: the dependency is started first, not known to be ready.
type ServiceDef struct {
	Image         string            `yaml:"image"`
	Env           map[string]string `yaml:"environment,omitempty"`
	Command       []string          `yaml:"command,omitempty"`
	InternalPort  int               `yaml:"internal_port,omitempty"`
	PublishedPort int               `yaml:"published_port,omitempty"`
	Volumes       []MountDef        `yaml:"volumes,omitempty"`
	Networks      []string          `yaml:"networks,omitempty"`
	DependsOn     []string          `yaml:"depends_on,omitempty"`
	Restart       string            `yaml:"restart,omitempty"`
}

// MountDef mounts a declared volume into a service.
type MountDef struct {
	Name     string `yaml:"name"`
	Target   string `yaml:"target"`
	ReadOnly bool   `yaml:"read_only,omitempty"`
}

// VolumeDef declares a named volume. A private volume may be mounted by
// exactly one service (the database storage volume is private; the static
// volume is not, its producer/consumer split is enforced by mount modes).
type VolumeDef struct {
	Private bool `yaml:"private,omitempty"`
}

// NetworkDef declares a service network. Internal networks are unreachable
// from outside the engine host.
type NetworkDef struct {
	Internal bool `yaml:"internal,omitempty"`
}

// Parse decodes a stack definition from YAML.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse stack definition: %w", err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("stack definition has no name")
	}
	return &def, nil
}

// Load reads and parses a stack definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stack definition: %w", err)
	}
	return Parse(data)
}
