package schema

import (
	"fmt"
	"strings"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

// SerializedTable pairs one embedding-ready text blob with the metadata the
// index stores alongside it.
type SerializedTable struct {
	Text     string
	Metadata map[string]string
}

// Serialize renders one text blob per table, plus a relationship overview
// blob when any relationships exist. These blobs are what the embedding
// gateway consumes, not the raw upload.
func Serialize(doc *entity.SchemaDocument) []SerializedTable {
	out := make([]SerializedTable, 0, len(doc.Tables)+1)

	var allRels []string
	for _, table := range doc.Tables {
		out = append(out, SerializedTable{
			Text: serializeTable(table),
			Metadata: map[string]string{
				entity.MetaKind:          entity.KindSchemaTable,
				entity.MetaTableName:     table.Name,
				entity.MetaFieldCount:    fmt.Sprintf("%d", len(table.Fields)),
				entity.MetaRelationCount: fmt.Sprintf("%d", len(table.Relationships)),
			},
		})
		for _, rel := range table.Relationships {
			allRels = append(allRels, relationshipLine(table.Name, rel))
		}
	}

	if len(allRels) > 0 {
		var b strings.Builder
		b.WriteString("Table Relationships:\n")
		for _, line := range allRels {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		out = append(out, SerializedTable{
			Text: b.String(),
			Metadata: map[string]string{
				entity.MetaKind:          entity.KindSchemaRelation,
				entity.MetaRelationCount: fmt.Sprintf("%d", len(allRels)),
			},
		})
	}

	return out
}

func serializeTable(table entity.SchemaTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", table.Name)
	b.WriteString("Columns:\n")

	for _, f := range table.Fields {
		b.WriteString("- ")
		b.WriteString(f.Name)
		if f.Type != "" {
			fmt.Fprintf(&b, " (%s)", f.Type)
		}
		if f.PrimaryKey {
			b.WriteString(" [Primary Key]")
		}
		if f.Nullable != nil && !*f.Nullable {
			b.WriteString(" [Not Null]")
		}
		b.WriteByte('\n')
	}

	if len(table.Relationships) > 0 {
		b.WriteString("Relationships:\n")
		for _, rel := range table.Relationships {
			b.WriteString(relationshipLine(table.Name, rel))
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func relationshipLine(owner string, rel entity.SchemaRelationship) string {
	line := fmt.Sprintf("- %s.%s -> %s", owner, rel.ViaField, rel.TargetTable)
	if !rel.Resolved {
		line += " (unresolved)"
	}
	return line
}
