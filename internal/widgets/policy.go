// Package widgets rewrites the widget state stored in notebook metadata so
// renderers that expect metadata.widgets.state can display the notebook.
package widgets

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Policy selects how legacy widget metadata is repaired. The two policies
// leave different structures on disk, so callers must choose one explicitly.
type Policy int

const (
	// Restructure wraps legacy widget state under a "state" key.
	Restructure Policy = iota
	// Delete removes metadata.widgets entirely.
	Delete
)

var policyNames = map[Policy]string{
	Restructure: "restructure",
	Delete:      "delete",
}

var _ pflag.Value = (*Policy)(nil)

// PolicyNames lists the accepted policy names.
func PolicyNames() []string {
	return []string{policyNames[Restructure], policyNames[Delete]}
}

// ParsePolicy converts a policy name into a Policy.
func ParsePolicy(name string) (Policy, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for p, n := range policyNames {
		if n == normalized {
			return p, nil
		}
	}
	return Restructure, fmt.Errorf("unknown policy %q (want one of: %s)", name, strings.Join(PolicyNames(), ", "))
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Set implements pflag.Value.
func (p *Policy) Set(name string) error {
	parsed, err := ParsePolicy(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string {
	return "policy"
}
