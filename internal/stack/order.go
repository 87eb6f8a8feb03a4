package stack

import (
	"fmt"
	"sort"
)

// StartOrder returns the service names in dependency order: every service
// appears after everything it depends on. Ties break alphabetically so the
// order is deterministic. Teardown uses the reverse.
func (d *Definition) StartOrder() ([]string, error) {
	indegree := make(map[string]int, len(d.Services))
	dependents := make(map[string][]string)

	for name, svc := range d.Services {
		if _, ok := indegree[name]; !ok {
			indegree[name] = 0
		}
		for _, dep := range svc.DependsOn {
			if _, ok := d.Services[dep]; !ok {
				return nil, fmt.Errorf("service %s depends on unknown service %s", name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(d.Services))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		next := dependents[name]
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(d.Services) {
		return nil, fmt.Errorf("dependency cycle in stack %s", d.Name)
	}
	return order, nil
}
