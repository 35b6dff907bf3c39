package manifest

import (
	"sort"

	"cmdb-sync/core/state"
)

// ServiceRow declares one business service.
type ServiceRow struct {
	Name        string `yaml:"name"`
	Owner       string `yaml:"owner"`
	Impact      string `yaml:"impact"`
	Description string `yaml:"description"`
}

// ITServiceRow declares one IT service (a deployed software product).
type ITServiceRow struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Vendor  string `yaml:"vendor"`
	Owner   string `yaml:"owner"`
}

// DatabaseRow declares one database.
type DatabaseRow struct {
	Name        string `yaml:"name"`
	Engine      string `yaml:"engine"`
	SizeGB      string `yaml:"size_gb"`
	Instance    string `yaml:"instance"`
	Environment string `yaml:"environment"`
}

// Edge declares a directed relationship between two CIs or assets, by name.
type Edge struct {
	Source string `yaml:"source"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
}

// Document is one manifest file, already tabulated per section.
type Document struct {
	// Name identifies the document (file or object name) in skip reasons.
	Name             string         `yaml:"-"`
	BusinessServices []ServiceRow   `yaml:"business_services"`
	ITServices       []ITServiceRow `yaml:"it_services"`
	Databases        []DatabaseRow  `yaml:"databases"`
	Relationships    []Edge         `yaml:"relationships"`
}

// CI is a declared configuration item after aggregation. Name is unique
// within its kind.
type CI struct {
	Name   string            `json:"name"`
	Kind   state.Kind        `json:"kind"`
	Fields map[string]string `json:"fields"`
}

// Set is the aggregated output: deduplicated CIs by kind plus the merged
// edge list.
type Set struct {
	cis   map[state.Kind]map[string]CI
	Edges []Edge
}

// CIs returns the CIs of one kind, sorted by name.
func (s *Set) CIs(kind state.Kind) []CI {
	byName := s.cis[kind]
	out := make([]CI, 0, len(byName))
	for _, ci := range byName {
		out = append(out, ci)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// All returns every CI across kinds, ordered by kind then name.
func (s *Set) All() []CI {
	var out []CI
	for _, kind := range state.CIKinds {
		out = append(out, s.CIs(kind)...)
	}
	return out
}

// Len returns the total number of declared CIs.
func (s *Set) Len() int {
	n := 0
	for _, byName := range s.cis {
		n += len(byName)
	}
	return n
}
