package schema

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

// Format is the recognized schema upload format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatSQL  Format = "sql"
)

// DetectFormat maps a filename extension to a schema format.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".sql":
		return FormatSQL, nil
	default:
		return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, filename)
	}
}

// Normalizer locates table/field/relationship information inside
// arbitrarily-shaped structured documents. Structural inputs (JSON and YAML)
// are parsed through the yaml node API so traversal follows document key
// order, which keeps root selection deterministic.
type Normalizer struct {
	maxDepth     int
	depthPenalty float64
}

func NewNormalizer(maxDepth int, depthPenalty float64) *Normalizer {
	if maxDepth <= 0 {
		maxDepth = 8
	}
	if depthPenalty <= 0 {
		depthPenalty = 0.25
	}
	return &Normalizer{maxDepth: maxDepth, depthPenalty: depthPenalty}
}

// Normalize extracts an ordered table list from the uploaded content.
// Zero extracted tables is an error, never a silent empty document.
func (n *Normalizer) Normalize(content []byte, format Format) (*entity.SchemaDocument, error) {
	switch format {
	case FormatJSON, FormatYAML:
		return n.normalizeStructural(content)
	case FormatSQL:
		return n.normalizeSQL(string(content))
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedFormat, format)
	}
}

func (n *Normalizer) normalizeStructural(content []byte) (*entity.SchemaDocument, error) {
	// YAML is a superset of JSON, so one parser covers both formats.
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnsupportedFormat, err)
	}

	top := &root
	if top.Kind == yaml.DocumentNode {
		if len(top.Content) == 0 {
			return nil, entity.ErrEmptySchema
		}
		top = top.Content[0]
	}

	cands := n.collectCandidates(top)
	ranked := rankCandidates(cands, n.depthPenalty)
	if len(ranked) == 0 {
		return nil, entity.ErrEmptySchema
	}

	best := ranked[0]
	tables := extractTables(best.node)
	if len(tables) == 0 {
		return nil, entity.ErrEmptySchema
	}

	markResolved(tables)

	return &entity.SchemaDocument{
		Tables:   tables,
		RootPath: best.path,
	}, nil
}

// collectCandidates walks the tree depth-first in document order, recording
// every node shaped like a collection of mappings. Traversal is bounded so a
// pathological document cannot recurse forever.
func (n *Normalizer) collectCandidates(top *yaml.Node) []candidate {
	var cands []candidate
	order := 0

	var walk func(node *yaml.Node, depth int, path string)
	walk = func(node *yaml.Node, depth int, path string) {
		if node == nil || depth > n.maxDepth {
			return
		}
		node = resolveAlias(node)

		switch node.Kind {
		case yaml.SequenceNode:
			if sequenceOfMappings(node) {
				cands = append(cands, candidate{node: node, depth: depth, path: path, order: order})
				order++
			}
			for i, item := range node.Content {
				walk(item, depth+1, fmt.Sprintf("%s[%d]", path, i))
			}
		case yaml.MappingNode:
			if mappingOfMappings(node) {
				cands = append(cands, candidate{node: node, depth: depth, path: path, order: order})
				order++
			}
			for i := 0; i+1 < len(node.Content); i += 2 {
				key := node.Content[i].Value
				walk(node.Content[i+1], depth+1, path+"."+key)
			}
		}
	}

	walk(top, 0, "$")
	return cands
}

func sequenceOfMappings(node *yaml.Node) bool {
	if len(node.Content) == 0 {
		return false
	}
	for _, item := range node.Content {
		if resolveAlias(item).Kind != yaml.MappingNode {
			return false
		}
	}
	return true
}

func mappingOfMappings(node *yaml.Node) bool {
	if len(node.Content) == 0 {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if resolveAlias(node.Content[i+1]).Kind != yaml.MappingNode {
			return false
		}
	}
	return true
}

// extractTables normalizes each child of the chosen root. Children without a
// recognizable field list are kept with empty fields as long as they carry a
// name; the document may be partial.
func extractTables(root *yaml.Node) []entity.SchemaTable {
	var tables []entity.SchemaTable

	switch root.Kind {
	case yaml.SequenceNode:
		for _, item := range root.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				continue
			}
			name := mappingValue(item, isNameKey)
			if name == "" {
				continue
			}
			tables = append(tables, extractTable(name, item))
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			name := root.Content[i].Value
			value := resolveAlias(root.Content[i+1])
			if value.Kind != yaml.MappingNode || name == "" {
				continue
			}
			tables = append(tables, extractTable(name, value))
		}
	}

	return tables
}

func extractTable(name string, node *yaml.Node) entity.SchemaTable {
	table := entity.SchemaTable{Name: name}

	fieldsNode := mappingNode(node, isFieldsKey)
	if fieldsNode == nil {
		return table
	}

	switch fieldsNode.Kind {
	case yaml.SequenceNode:
		for _, item := range fieldsNode.Content {
			item = resolveAlias(item)
			if field, rel, ok := extractField(item); ok {
				table.Fields = append(table.Fields, field)
				if rel != nil {
					table.Relationships = append(table.Relationships, *rel)
				}
			}
		}
	case yaml.MappingNode:
		// {fieldName: type} or {fieldName: {type: ..., nullable: ...}} shapes
		for i := 0; i+1 < len(fieldsNode.Content); i += 2 {
			fieldName := fieldsNode.Content[i].Value
			value := resolveAlias(fieldsNode.Content[i+1])
			field, rel := fieldFromNamed(fieldName, value)
			table.Fields = append(table.Fields, field)
			if rel != nil {
				table.Relationships = append(table.Relationships, *rel)
			}
		}
	}

	return table
}

// extractField handles one entry of a fields sequence: a bare scalar name, or
// a mapping carrying name/type/nullable and optional foreign-key markers.
func extractField(node *yaml.Node) (entity.SchemaField, *entity.SchemaRelationship, bool) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return entity.SchemaField{}, nil, false
		}
		field := entity.SchemaField{Name: node.Value}
		return field, relationshipFromFieldName(node.Value), true
	case yaml.MappingNode:
		name := mappingValue(node, isNameKey)
		if name == "" {
			// {name: type} single-pair short form
			if len(node.Content) == 2 && node.Content[1].Kind == yaml.ScalarNode {
				field, rel := fieldFromNamed(node.Content[0].Value, node.Content[1])
				return field, rel, true
			}
			return entity.SchemaField{}, nil, false
		}

		field := entity.SchemaField{
			Name: name,
			Type: mappingValue(node, func(k string) bool { return normalizeKey(k) == "type" }),
		}
		if v := mappingValue(node, func(k string) bool { return normalizeKey(k) == "nullable" }); v != "" {
			nullable := strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
			field.Nullable = &nullable
		}
		if v := mappingValue(node, func(k string) bool {
			nk := normalizeKey(k)
			return nk == "primary" || nk == "primarykey" || nk == "pk"
		}); strings.EqualFold(v, "true") {
			field.PrimaryKey = true
		}

		if rel := explicitRelationship(node, name); rel != nil {
			return field, rel, true
		}
		return field, relationshipFromFieldName(name), true
	default:
		return entity.SchemaField{}, nil, false
	}
}

// fieldFromNamed builds a field from a known name and its value node, which
// may be a scalar type or a detailed mapping.
func fieldFromNamed(name string, value *yaml.Node) (entity.SchemaField, *entity.SchemaRelationship) {
	field := entity.SchemaField{Name: name}

	switch value.Kind {
	case yaml.ScalarNode:
		field.Type = value.Value
	case yaml.MappingNode:
		field.Type = mappingValue(value, func(k string) bool { return normalizeKey(k) == "type" })
		if v := mappingValue(value, func(k string) bool { return normalizeKey(k) == "nullable" }); v != "" {
			nullable := strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
			field.Nullable = &nullable
		}
		if rel := explicitRelationship(value, name); rel != nil {
			return field, rel
		}
	}

	return field, relationshipFromFieldName(name)
}

// explicitRelationship looks for references/foreignKey/ref markers. The value
// may be "orders", "orders.id" or a {table: ..., field: ...} mapping.
func explicitRelationship(node *yaml.Node, viaField string) *entity.SchemaRelationship {
	refKey := func(k string) bool {
		nk := normalizeKey(k)
		return nk == "references" || nk == "foreignkey" || nk == "ref" || nk == "fk"
	}

	refNode := mappingNode(node, refKey)
	if refNode == nil {
		return nil
	}

	var target string
	switch refNode.Kind {
	case yaml.ScalarNode:
		target = refNode.Value
		if idx := strings.IndexByte(target, '.'); idx > 0 {
			target = target[:idx]
		}
	case yaml.MappingNode:
		target = mappingValue(refNode, func(k string) bool {
			nk := normalizeKey(k)
			return nk == "table" || nk == "targettable" || nk == "target"
		})
	}

	if target == "" {
		return nil
	}
	return &entity.SchemaRelationship{TargetTable: target, ViaField: viaField}
}

// relationshipFromFieldName applies the <table>_id naming convention.
func relationshipFromFieldName(name string) *entity.SchemaRelationship {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, "_id") {
		return nil
	}
	target := name[:len(name)-len("_id")]
	if target == "" {
		return nil
	}
	return &entity.SchemaRelationship{TargetTable: target, ViaField: name}
}

// markResolved flags relationships whose target table exists in the document,
// tolerating a trailing plural "s" on either side. Unresolved links are kept.
func markResolved(tables []entity.SchemaTable) {
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[strings.ToLower(t.Name)] = true
	}

	for ti := range tables {
		for ri := range tables[ti].Relationships {
			rel := &tables[ti].Relationships[ri]
			target := strings.ToLower(rel.TargetTable)
			rel.Resolved = present[target] || present[target+"s"] || (strings.HasSuffix(target, "s") && present[strings.TrimSuffix(target, "s")])
		}
	}
}

func mappingValue(mapping *yaml.Node, match func(string) bool) string {
	node := mappingNode(mapping, match)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

func mappingNode(mapping *yaml.Node, match func(string) bool) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if match(mapping.Content[i].Value) {
			return resolveAlias(mapping.Content[i+1])
		}
	}
	return nil
}
