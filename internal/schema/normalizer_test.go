package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat("schema.json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	format, err = DetectFormat("schema.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, format)

	format, err = DetectFormat("schema.yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, format)

	format, err = DetectFormat("dump.sql")
	require.NoError(t, err)
	assert.Equal(t, FormatSQL, format)

	_, err = DetectFormat("schema.txt")
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}

func TestNormalize_JSONRootList(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte(`[
		{"name": "users", "fields": [
			{"name": "id", "type": "int", "primary_key": true},
			{"name": "email", "type": "text"}
		]},
		{"name": "orders", "fields": [
			{"name": "id", "type": "int", "primary_key": true},
			{"name": "user_id", "type": "int"}
		]}
	]`)

	doc, err := n.Normalize(content, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "$", doc.RootPath)
	require.Len(t, doc.Tables, 2)

	users := doc.Tables[0]
	assert.Equal(t, "users", users.Name)
	require.Len(t, users.Fields, 2)
	assert.Equal(t, "id", users.Fields[0].Name)
	assert.Equal(t, "int", users.Fields[0].Type)
	assert.True(t, users.Fields[0].PrimaryKey)
	assert.Empty(t, users.Relationships)

	// user_id resolves against the users table via the plural form
	orders := doc.Tables[1]
	assert.Equal(t, "orders", orders.Name)
	require.Len(t, orders.Relationships, 1)
	assert.Equal(t, "user", orders.Relationships[0].TargetTable)
	assert.Equal(t, "user_id", orders.Relationships[0].ViaField)
	assert.True(t, orders.Relationships[0].Resolved)
}

func TestNormalize_NestedTableList(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte(`{
		"version": "1.0",
		"database": {
			"engine": "postgres",
			"tables": [
				{"name": "orders", "columns": [{"name": "id", "type": "bigint"}]},
				{"name": "items", "columns": [{"name": "id", "type": "bigint"}, {"name": "order_id", "type": "bigint"}]}
			]
		}
	}`)

	doc, err := n.Normalize(content, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "$.database.tables", doc.RootPath)
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "orders", doc.Tables[0].Name)
	assert.Equal(t, "items", doc.Tables[1].Name)

	require.Len(t, doc.Tables[1].Relationships, 1)
	assert.Equal(t, "order", doc.Tables[1].Relationships[0].TargetTable)
	assert.True(t, doc.Tables[1].Relationships[0].Resolved)
}

func TestNormalize_YAMLMappingRoot(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte(`
tables:
  users:
    fields:
      id: integer
      name: text
  orders:
    fields:
      id: integer
      user_id: integer
      warehouse_id: integer
`)

	doc, err := n.Normalize(content, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "$.tables", doc.RootPath)
	require.Len(t, doc.Tables, 2)

	users := doc.Tables[0]
	assert.Equal(t, "users", users.Name)
	require.Len(t, users.Fields, 2)
	assert.Equal(t, "integer", users.Fields[0].Type)

	orders := doc.Tables[1]
	assert.Equal(t, "orders", orders.Name)
	require.Len(t, orders.Relationships, 2)

	assert.Equal(t, "user", orders.Relationships[0].TargetTable)
	assert.True(t, orders.Relationships[0].Resolved)

	// No warehouse table anywhere, so the link stays unresolved but kept
	assert.Equal(t, "warehouse", orders.Relationships[1].TargetTable)
	assert.False(t, orders.Relationships[1].Resolved)
}

func TestNormalize_ExplicitReferences(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte(`{
		"entities": [
			{"name": "posts", "fields": [
				{"name": "author", "type": "int", "references": "users.id"}
			]},
			{"name": "users", "fields": [{"name": "id", "type": "int"}]}
		]
	}`)

	doc, err := n.Normalize(content, FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)

	posts := doc.Tables[0]
	require.Len(t, posts.Relationships, 1)
	assert.Equal(t, "users", posts.Relationships[0].TargetTable)
	assert.Equal(t, "author", posts.Relationships[0].ViaField)
	assert.True(t, posts.Relationships[0].Resolved)
}

func TestNormalize_PicksBestCandidate(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	// A small decoy list sits shallower than the real table list. The
	// larger list wins despite the depth penalty.
	content := []byte(`{
		"changelog": [
			{"name": "v1", "fields": ["init"]}
		],
		"spec": {
			"schema": {
				"tables": [
					{"name": "a", "fields": ["id"]},
					{"name": "b", "fields": ["id"]},
					{"name": "c", "fields": ["id"]}
				]
			}
		}
	}`)

	doc, err := n.Normalize(content, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "$.spec.schema.tables", doc.RootPath)
	assert.Len(t, doc.Tables, 3)
}

func TestNormalize_NoTables(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	_, err := n.Normalize([]byte(`{}`), FormatJSON)
	assert.ErrorIs(t, err, entity.ErrEmptySchema)

	_, err = n.Normalize([]byte(`[1, 2, 3]`), FormatJSON)
	assert.ErrorIs(t, err, entity.ErrEmptySchema)

	_, err = n.Normalize([]byte(`{"settings": {"debug": true}}`), FormatJSON)
	assert.ErrorIs(t, err, entity.ErrEmptySchema)
}

func TestNormalize_MalformedInput(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	_, err := n.Normalize([]byte(`{"broken":`), FormatJSON)
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}

func TestNormalize_DeterministicRootSelection(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	// Two equally-scored candidates at the same depth: document order wins.
	content := []byte(`{
		"first": [{"name": "x", "fields": ["id"]}],
		"second": [{"name": "y", "fields": ["id"]}]
	}`)

	for i := 0; i < 5; i++ {
		doc, err := n.Normalize(content, FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, "$.first", doc.RootPath)
		require.Len(t, doc.Tables, 1)
		assert.Equal(t, "x", doc.Tables[0].Name)
	}
}
