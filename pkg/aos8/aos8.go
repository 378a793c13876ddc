// Package aos8 defines the Alcatel-Lucent OmniSwitch AOS8 resource modules.
package aos8

import (
	"fmt"
	"sort"
	"strings"

	"aos8ctl/pkg/reconcile"
)

var modules = map[string]*reconcile.Module{
	Vlans.Name():        Vlans,
	L2Interfaces.Name(): L2Interfaces,
}

// Lookup returns the module for a resource name.
func Lookup(name string) (*reconcile.Module, error) {
	m, ok := modules[name]
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return m, nil
}

// Names lists the resource names, sorted.
func Names() []string {
	out := make([]string, 0, len(modules))
	for name := range modules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
