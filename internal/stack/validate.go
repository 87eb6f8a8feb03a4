package stack

import "fmt"

// Validate checks the wiring invariants the deployer relies on:
//
//   - exactly one service publishes a port (the reverse proxy is the sole
//     external entry point);
//   - two services may share a network only if one depends on the other, so
//     the proxy can never reach the database directly;
//   - every volume has exactly one read-write mounter, and a private volume
//     exactly one mounter in total;
//   - every referenced volume, network and dependency is declared, and the
//     dependency graph is acyclic.
func (d *Definition) Validate() error {
	if len(d.Services) == 0 {
		return fmt.Errorf("stack %s declares no services", d.Name)
	}
	if _, err := d.StartOrder(); err != nil {
		return err
	}

	var published []string
	for _, name := range sortedKeys(d.Services) {
		svc := d.Services[name]
		if svc.Image == "" {
			return fmt.Errorf("service %s has no image", name)
		}
		if svc.PublishedPort != 0 {
			published = append(published, name)
		}
		for _, net := range svc.Networks {
			if _, ok := d.Networks[net]; !ok {
				return fmt.Errorf("service %s joins undeclared network %s", name, net)
			}
		}
		for _, m := range svc.Volumes {
			if _, ok := d.Volumes[m.Name]; !ok {
				return fmt.Errorf("service %s mounts undeclared volume %s", name, m.Name)
			}
		}
	}
	if len(published) != 1 {
		return fmt.Errorf("stack %s must publish exactly one port, got %d", d.Name, len(published))
	}

	if err := d.validateNetworks(); err != nil {
		return err
	}
	return d.validateVolumes()
}

// validateNetworks enforces the isolation invariant: co-membership on a
// network implies a dependency edge between the two services.
func (d *Definition) validateNetworks() error {
	members := make(map[string][]string)
	for _, name := range sortedKeys(d.Services) {
		for _, net := range d.Services[name].Networks {
			members[net] = append(members[net], name)
		}
	}
	for net, svcs := range members {
		for i := 0; i < len(svcs); i++ {
			for j := i + 1; j < len(svcs); j++ {
				if !d.dependsOn(svcs[i], svcs[j]) && !d.dependsOn(svcs[j], svcs[i]) {
					return fmt.Errorf("services %s and %s share network %s without a dependency between them",
						svcs[i], svcs[j], net)
				}
			}
		}
	}
	return nil
}

func (d *Definition) validateVolumes() error {
	writers := make(map[string][]string)
	mounters := make(map[string][]string)
	for _, name := range sortedKeys(d.Services) {
		for _, m := range d.Services[name].Volumes {
			mounters[m.Name] = append(mounters[m.Name], name)
			if !m.ReadOnly {
				writers[m.Name] = append(writers[m.Name], name)
			}
		}
	}
	for vol, def := range d.Volumes {
		if len(writers[vol]) != 1 {
			return fmt.Errorf("volume %s must have exactly one writer, got %d", vol, len(writers[vol]))
		}
		if def.Private && len(mounters[vol]) != 1 {
			return fmt.Errorf("private volume %s is mounted by %d services", vol, len(mounters[vol]))
		}
	}
	return nil
}

func (d *Definition) dependsOn(name, dep string) bool {
	for _, candidate := range d.Services[name].DependsOn {
		if candidate == dep {
			return true
		}
	}
	return false
}
