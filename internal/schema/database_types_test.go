package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatabaseType(t *testing.T) {
	tests := []struct {
		input string
		want  DatabaseType
	}{
		{"postgresql", PostgreSQL},
		{"Postgres", PostgreSQL},
		{"pgsql", PostgreSQL},
		{"sqlite3", SQLite},
		{"SQLITE", SQLite},
		{"mariadb", MySQL},
		{"mysql", MySQL},
		{"oracle", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDatabaseType(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != "", got.IsValid())
		})
	}
}

func TestDatabaseType_GetJSONExtractFunction(t *testing.T) {
	tests := []struct {
		name string
		dt   DatabaseType
		key  string
		want string
	}{
		{"SQLite type key", SQLite, "#type", `json_extract(body, '$."#type"')`},
		{"MySQL type key", MySQL, "#type", `body->>'$."#type"'`},
		{"PostgreSQL type key", PostgreSQL, "#type", `body->>'#type'`},
		{"SQLite quotes", SQLite, `it's "x"`, `json_extract(body, '$."it''s \"x\""')`},
		{"PostgreSQL quotes", PostgreSQL, "it's", `body->>'it''s'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dt.GetJSONExtractFunction("body", tt.key))
		})
	}
}

func TestDatabaseType_Placeholder(t *testing.T) {
	assert.Equal(t, "$1", PostgreSQL.Placeholder(1))
	assert.Equal(t, "$3", PostgreSQL.Placeholder(3))
	assert.Equal(t, "?", SQLite.Placeholder(2))
	assert.Equal(t, "?", MySQL.Placeholder(1))
}

func TestDatabaseType_ColumnTypes(t *testing.T) {
	assert.Equal(t, "JSONB", PostgreSQL.GetJSONColumnType())
	assert.Equal(t, "TEXT", SQLite.GetJSONColumnType())
	assert.Equal(t, "JSON", MySQL.GetJSONColumnType())

	assert.Equal(t, "VARCHAR(255)", MySQL.GetKeyColumnType())
	assert.Equal(t, "TEXT", SQLite.GetKeyColumnType())

	assert.Equal(t, "DATETIME", SQLite.GetTimestampColumnType())
	assert.Equal(t, "CHECK (json_valid(body))", SQLite.GetJSONValidationConstraint("body"))
	assert.Empty(t, PostgreSQL.GetJSONValidationConstraint("body"))
}

func TestDocumentsTable(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		table, err := NewDocumentsTable(SQLite, "")
		require.NoError(t, err)
		assert.Equal(t, "documents", table.Name)
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := NewDocumentsTable(SQLite, "docs; DROP TABLE x")
		assert.Error(t, err)
	})

	t.Run("invalid database", func(t *testing.T) {
		_, err := NewDocumentsTable("oracle", "docs")
		assert.Error(t, err)
	})

	t.Run("sqlite statements", func(t *testing.T) {
		table, err := NewDocumentsTable(SQLite, "docs")
		require.NoError(t, err)

		ddl := table.CreateStatements()
		require.Len(t, ddl, 2)
		assert.Contains(t, ddl[0], "CREATE TABLE IF NOT EXISTS docs (")
		assert.Contains(t, ddl[0], "body TEXT NOT NULL CHECK (json_valid(body))")
		assert.Equal(t, "CREATE INDEX IF NOT EXISTS idx_docs_type ON docs (type)", ddl[1])

		assert.Contains(t, table.UpsertStatement(), "VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO UPDATE")
		assert.Equal(t, "SELECT id, type, body, digest, created_at, updated_at FROM docs WHERE id = ?", table.SelectStatement())
		assert.Contains(t, table.SelectByTypeStatement(), `WHERE json_extract(body, '$."#type"') = ?`)
		assert.Equal(t, "DELETE FROM docs WHERE id = ?", table.DeleteStatement())
	})

	t.Run("postgresql statements", func(t *testing.T) {
		table, err := NewDocumentsTable(PostgreSQL, "")
		require.NoError(t, err)

		ddl := table.CreateStatements()
		require.Len(t, ddl, 2)
		assert.Contains(t, ddl[0], "body JSONB NOT NULL,")
		assert.Contains(t, table.UpsertStatement(), "VALUES ($1, $2, $3, $4, $5, $6)")
		assert.Contains(t, table.SelectByTypeStatement(), "WHERE body->>'#type' = $1")
	})

	t.Run("mysql statements", func(t *testing.T) {
		table, err := NewDocumentsTable(MySQL, "")
		require.NoError(t, err)

		ddl := table.CreateStatements()
		require.Len(t, ddl, 1)
		assert.Contains(t, ddl[0], "INDEX idx_documents_type (type)")
		assert.Contains(t, table.UpsertStatement(), "ON DUPLICATE KEY UPDATE")
	})
}
