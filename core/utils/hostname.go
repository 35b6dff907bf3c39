package utils

import "strings"

// NormalizeHostname lowers the case of a hostname and trims surrounding
// whitespace and trailing dots. This is the canonical key form for the
// correspondence store.
func NormalizeHostname(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.TrimSuffix(name, ".")
}

// ShortHostname returns the normalized hostname with any domain suffix
// stripped ("web01.corp.example.com" -> "web01").
func ShortHostname(name string) string {
	name = NormalizeHostname(name)
	if idx := strings.IndexByte(name, '.'); idx > 0 {
		return name[:idx]
	}
	return name
}

// HostnameVariants returns the lookup probes for a hostname, most specific
// first: the normalized fully-qualified form, then the short form. Fleet
// naming is inconsistent, so callers probe every variant against the store
// and the remote search.
func HostnameVariants(name string) []string {
	full := NormalizeHostname(name)
	short := ShortHostname(name)
	if short == full || short == "" {
		return []string{full}
	}
	return []string{full, short}
}
