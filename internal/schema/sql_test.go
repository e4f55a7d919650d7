package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
)

func TestNormalizeSQL_CreateTables(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte(`
-- user accounts
CREATE TABLE users (
    id SERIAL PRIMARY KEY,
    email VARCHAR(255) NOT NULL,
    balance DECIMAL(10,2)
);

CREATE TABLE IF NOT EXISTS orders (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id),
    total DECIMAL(10,2) NOT NULL
);
`)

	doc, err := n.Normalize(content, FormatSQL)
	require.NoError(t, err)
	assert.Equal(t, "sql", doc.RootPath)
	assert.Equal(t, 0, doc.SkippedStatements)
	require.Len(t, doc.Tables, 2)

	users := doc.Tables[0]
	assert.Equal(t, "users", users.Name)
	require.Len(t, users.Fields, 3)
	assert.Equal(t, "id", users.Fields[0].Name)
	assert.True(t, users.Fields[0].PrimaryKey)
	assert.Equal(t, "varchar(255)", users.Fields[1].Type)
	require.NotNil(t, users.Fields[1].Nullable)
	assert.False(t, *users.Fields[1].Nullable)
	require.NotNil(t, users.Fields[2].Nullable)
	assert.True(t, *users.Fields[2].Nullable)

	orders := doc.Tables[1]
	assert.Equal(t, "orders", orders.Name)
	require.Len(t, orders.Fields, 3)
	require.Len(t, orders.Relationships, 1)
	assert.Equal(t, "users", orders.Relationships[0].TargetTable)
	assert.Equal(t, "user_id", orders.Relationships[0].ViaField)
	assert.True(t, orders.Relationships[0].Resolved)
}

func TestNormalizeSQL_TableLevelForeignKey(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte(`
CREATE TABLE categories (
    id INTEGER PRIMARY KEY,
    title TEXT NOT NULL
);

CREATE TABLE products (
    id INTEGER PRIMARY KEY,
    category_ref INTEGER,
    PRIMARY KEY (id),
    FOREIGN KEY (category_ref) REFERENCES categories(id)
);
`)

	doc, err := n.Normalize(content, FormatSQL)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)

	products := doc.Tables[1]
	require.Len(t, products.Relationships, 1)
	assert.Equal(t, "categories", products.Relationships[0].TargetTable)
	assert.Equal(t, "category_ref", products.Relationships[0].ViaField)
	assert.True(t, products.Relationships[0].Resolved)
}

func TestNormalizeSQL_AlterTableForeignKey(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte(`
CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE books (id INTEGER PRIMARY KEY, author_ref INTEGER);
ALTER TABLE books ADD CONSTRAINT fk_books_author FOREIGN KEY (author_ref) REFERENCES authors (id);
`)

	doc, err := n.Normalize(content, FormatSQL)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.SkippedStatements)
	require.Len(t, doc.Tables, 2)

	books := doc.Tables[1]
	require.Len(t, books.Relationships, 1)
	assert.Equal(t, "authors", books.Relationships[0].TargetTable)
	assert.Equal(t, "author_ref", books.Relationships[0].ViaField)
	assert.True(t, books.Relationships[0].Resolved)
}

func TestNormalizeSQL_SkipsMalformedStatements(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte(`
CREATE TABLE good (id INTEGER PRIMARY KEY);
this is not valid sql at all;
INSERT INTO good VALUES (1);
`)

	doc, err := n.Normalize(content, FormatSQL)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, "good", doc.Tables[0].Name)
	assert.Equal(t, 2, doc.SkippedStatements)
}

func TestNormalizeSQL_CommentsStripped(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte(`
/* schema dump
   generated nightly */
CREATE TABLE t (
    id INTEGER PRIMARY KEY, -- surrogate key
    payload TEXT
);
`)

	doc, err := n.Normalize(content, FormatSQL)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	assert.Len(t, doc.Tables[0].Fields, 2)
}

func TestNormalizeSQL_NoTables(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	_, err := n.Normalize([]byte(`SELECT 1; DROP TABLE nothing;`), FormatSQL)
	assert.ErrorIs(t, err, entity.ErrEmptySchema)
}

func TestNormalizeSQL_EngineOptionsIgnored(t *testing.T) {
	n := NewNormalizer(8, 0.25)

	content := []byte("CREATE TABLE logs (id INT PRIMARY KEY, msg TEXT) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;")

	doc, err := n.Normalize(content, FormatSQL)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, "logs", doc.Tables[0].Name)
	assert.Len(t, doc.Tables[0].Fields, 2)
}
