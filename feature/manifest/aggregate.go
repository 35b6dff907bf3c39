package manifest

import (
	"strings"

	"cmdb-sync/core/state"

	"go.uber.org/zap"
)

// Aggregate merges documents into deduplicated CI and edge sets. Documents
// are applied in order, so a CI redeclared by a later document replaces the
// earlier declaration entirely. Rows with unresolved placeholder names are
// dropped with a logged reason; this is local-data noise, never fatal.
func Aggregate(docs []Document, log *zap.Logger) *Set {
	set := &Set{cis: make(map[state.Kind]map[string]CI)}
	seenEdges := make(map[string]struct{})

	for _, doc := range docs {
		for _, row := range doc.BusinessServices {
			set.put(doc, state.KindBusinessService, row.Name, map[string]string{
				"owner":       row.Owner,
				"impact":      row.Impact,
				"description": row.Description,
			}, log)
		}
		for _, row := range doc.ITServices {
			set.put(doc, state.KindITService, row.Name, map[string]string{
				"version": row.Version,
				"vendor":  row.Vendor,
				"owner":   row.Owner,
			}, log)
		}
		for _, row := range doc.Databases {
			set.put(doc, state.KindDatabase, row.Name, map[string]string{
				"engine":      row.Engine,
				"size_gb":     row.SizeGB,
				"instance":    row.Instance,
				"environment": row.Environment,
			}, log)
		}

		for _, edge := range doc.Relationships {
			edge.Source = strings.TrimSpace(edge.Source)
			edge.Kind = strings.TrimSpace(edge.Kind)
			edge.Target = strings.TrimSpace(edge.Target)
			if edge.Source == "" || edge.Target == "" || edge.Kind == "" {
				log.Warn("Dropping incomplete relationship row",
					zap.String("document", doc.Name),
					zap.String("source", edge.Source),
					zap.String("kind", edge.Kind),
					zap.String("target", edge.Target),
				)
				continue
			}
			key := strings.ToLower(edge.Source) + "|" + strings.ToLower(edge.Kind) + "|" + strings.ToLower(edge.Target)
			if _, dup := seenEdges[key]; dup {
				continue
			}
			seenEdges[key] = struct{}{}
			set.Edges = append(set.Edges, edge)
		}
	}

	return set
}

// put records one declaration row, filtering placeholders and applying
// last-write-wins per (kind, name).
func (s *Set) put(doc Document, kind state.Kind, name string, fields map[string]string, log *zap.Logger) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if IsPlaceholder(name) {
		log.Warn("Dropping CI with unresolved placeholder name",
			zap.String("document", doc.Name),
			zap.String("kind", string(kind)),
			zap.String("name", name),
		)
		return
	}

	// Drop empty field values so payloads stay minimal
	for key, value := range fields {
		if strings.TrimSpace(value) == "" {
			delete(fields, key)
		}
	}

	byName, ok := s.cis[kind]
	if !ok {
		byName = make(map[string]CI)
		s.cis[kind] = byName
	}
	byName[name] = CI{Name: name, Kind: kind, Fields: fields}
}

// IsPlaceholder reports whether a declared name still contains unresolved
// template markup.
func IsPlaceholder(name string) bool {
	return strings.Contains(name, "{{") || strings.Contains(name, "}}") ||
		strings.Contains(name, "${")
}
