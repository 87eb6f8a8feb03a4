package stack

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// composeManifest mirrors the docker-compose file shape so a stack can be
// inspected or run with standard tooling.
type composeManifest struct {
	Services map[string]composeService `yaml:"services"`
	Volumes  map[string]map[string]any `yaml:"volumes,omitempty"`
	Networks map[string]composeNetwork `yaml:"networks,omitempty"`
}

type composeService struct {
	Image       string   `yaml:"image"`
	Command     []string `yaml:"command,omitempty"`
	Restart     string   `yaml:"restart,omitempty"`
	Ports       []string `yaml:"ports,omitempty"`
	Expose      []string `yaml:"expose,omitempty"`
	Environment []string `yaml:"environment,omitempty"`
	Volumes     []string `yaml:"volumes,omitempty"`
	Networks    []string `yaml:"networks,omitempty"`
	DependsOn   []string `yaml:"depends_on,omitempty"`
}

type composeNetwork struct {
	Internal bool `yaml:"internal,omitempty"`
}

// RenderCompose serializes the definition as a compose manifest.
func (d *Definition) RenderCompose() ([]byte, error) {
	m := composeManifest{
		Services: make(map[string]composeService, len(d.Services)),
		Volumes:  make(map[string]map[string]any, len(d.Volumes)),
		Networks: make(map[string]composeNetwork, len(d.Networks)),
	}

	for name, svc := range d.Services {
		cs := composeService{
			Image:     svc.Image,
			Command:   svc.Command,
			Restart:   svc.Restart,
			Networks:  svc.Networks,
			DependsOn: svc.DependsOn,
		}
		if svc.PublishedPort != 0 {
			cs.Ports = []string{fmt.Sprintf("%d:%d", svc.PublishedPort, svc.InternalPort)}
		} else if svc.InternalPort != 0 {
			cs.Expose = []string{strconv.Itoa(svc.InternalPort)}
		}
		for _, k := range sortedKeys(svc.Env) {
			cs.Environment = append(cs.Environment, k+"="+svc.Env[k])
		}
		for _, vol := range svc.Volumes {
			entry := vol.Name + ":" + vol.Target
			if vol.ReadOnly {
				entry += ":ro"
			}
			cs.Volumes = append(cs.Volumes, entry)
		}
		m.Services[name] = cs
	}

	for name := range d.Volumes {
		m.Volumes[name] = nil
	}
	for name, net := range d.Networks {
		m.Networks[name] = composeNetwork{Internal: net.Internal}
	}

	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("render compose manifest: %w", err)
	}
	return out, nil
}
