package relsync

import "strings"

// RelType pairs a remote relationship type with the edge orientation.
// Reversed aliases swap source and target before submission, so "A hosts B"
// and "B runs on A" produce the same triple.
type RelType struct {
	TypeID   string
	Reversed bool
}

// aliasTable maps the phrasings accepted in manifests onto remote
// relationship types. Lookup is case-insensitive.
var aliasTable = map[string]RelType{
	"depends on":  {TypeID: "depends-on"},
	"used by":     {TypeID: "depends-on", Reversed: true},
	"runs on":     {TypeID: "hosted-on"},
	"hosted on":   {TypeID: "hosted-on"},
	"hosts":       {TypeID: "hosted-on", Reversed: true},
	"connects to": {TypeID: "connects-to"},
}

// ResolveAlias translates a manifest relationship phrase into its remote
// type. Unknown phrases return ok=false and the edge is skipped, never
// guessed.
func ResolveAlias(kind string) (RelType, bool) {
	rel, ok := aliasTable[strings.ToLower(strings.TrimSpace(kind))]
	return rel, ok
}
