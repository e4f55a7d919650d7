package schema

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keys that plausibly carry a table name or a field list. Matching is
// case-insensitive and ignores underscores/dashes.
var (
	nameKeys = map[string]bool{
		"name":      true,
		"table":     true,
		"tablename": true,
		"title":     true,
		"entity":    true,
	}
	fieldsKeys = map[string]bool{
		"fields":     true,
		"columns":    true,
		"attributes": true,
		"properties": true,
		"cols":       true,
	}
)

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	return key
}

func isNameKey(key string) bool   { return nameKeys[normalizeKey(key)] }
func isFieldsKey(key string) bool { return fieldsKeys[normalizeKey(key)] }

// candidate is a node that could be the root collection of tables: a sequence
// of mappings, or a mapping whose values are mappings.
type candidate struct {
	node  *yaml.Node
	depth int
	path  string
	order int
}

// rankedCandidate pairs a candidate with its raw and depth-adjusted scores.
type rankedCandidate struct {
	candidate
	tableCount int
	adjusted   float64
}

// scoreCandidate counts children that look like a table: a mapping exposing
// both a name-like key and a fields-like key. For mapping-shaped roots the
// child's own key serves as the name.
func scoreCandidate(node *yaml.Node) int {
	count := 0
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				continue
			}
			if hasKeyMatch(item, isNameKey) && hasKeyMatch(item, isFieldsKey) {
				count++
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			value := resolveAlias(node.Content[i+1])
			if value.Kind != yaml.MappingNode {
				continue
			}
			// The mapping key names the table; only a field list is required.
			if hasKeyMatch(value, isFieldsKey) {
				count++
			}
		}
	}
	return count
}

// rankCandidates orders candidates by adjusted score (raw table count minus a
// depth penalty), breaking ties by shallowness, then by traversal order. The
// result is a full ranked list so selection stays decoupled from traversal.
func rankCandidates(cands []candidate, depthPenalty float64) []rankedCandidate {
	ranked := make([]rankedCandidate, 0, len(cands))
	for _, c := range cands {
		score := scoreCandidate(c.node)
		if score == 0 {
			continue
		}
		ranked = append(ranked, rankedCandidate{
			candidate:  c,
			tableCount: score,
			adjusted:   float64(score) - depthPenalty*float64(c.depth),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].adjusted != ranked[j].adjusted {
			return ranked[i].adjusted > ranked[j].adjusted
		}
		if ranked[i].depth != ranked[j].depth {
			return ranked[i].depth < ranked[j].depth
		}
		return ranked[i].order < ranked[j].order
	})

	return ranked
}

func hasKeyMatch(mapping *yaml.Node, match func(string) bool) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if match(mapping.Content[i].Value) {
			return true
		}
	}
	return false
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	if node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		return node.Alias
	}
	return node
}
