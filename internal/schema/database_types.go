package schema

import (
	"strconv"
	"strings"
)

// DatabaseType represents supported database types
type DatabaseType string

const (
	PostgreSQL DatabaseType = "postgresql"
	SQLite     DatabaseType = "sqlite"
	MySQL      DatabaseType = "mysql"
)

// String returns the string representation of the database type
func (dt DatabaseType) String() string {
	return string(dt)
}

// IsValid checks if the database type is supported
func (dt DatabaseType) IsValid() bool {
	switch dt {
	case PostgreSQL, SQLite, MySQL:
		return true
	default:
		return false
	}
}

// ParseDatabaseType parses a string into a DatabaseType
func ParseDatabaseType(s string) DatabaseType {
	switch strings.ToLower(s) {
	case "postgresql", "postgres", "pgsql":
		return PostgreSQL
	case "sqlite", "sqlite3":
		return SQLite
	case "mysql", "mariadb":
		return MySQL
	default:
		return ""
	}
}

// GetJSONColumnType returns the column type holding document bodies
func (dt DatabaseType) GetJSONColumnType() string {
	switch dt {
	case PostgreSQL:
		return "JSONB"
	case MySQL:
		return "JSON"
	default:
		return "TEXT" // SQLite stores JSON as TEXT with JSON functions
	}
}

// GetTimestampColumnType returns the appropriate timestamp column type for each database
func (dt DatabaseType) GetTimestampColumnType() string {
	switch dt {
	case PostgreSQL:
		return "TIMESTAMP WITH TIME ZONE"
	case SQLite:
		return "DATETIME"
	default:
		return "TIMESTAMP"
	}
}

// GetKeyColumnType returns the column type of document IDs and type names.
// MySQL cannot index unbounded TEXT.
func (dt DatabaseType) GetKeyColumnType() string {
	if dt == MySQL {
		return "VARCHAR(255)"
	}
	return "TEXT"
}

// GetJSONExtractFunction returns the expression reading the top-level key of
// a JSON column as text. The key is quoted in path expressions so keys such
// as "#type" are accepted.
func (dt DatabaseType) GetJSONExtractFunction(column, key string) string {
	switch dt {
	case SQLite:
		return "json_extract(" + column + ", '$." + quotePathKey(key) + "')"
	case MySQL:
		return column + "->>'$." + quotePathKey(key) + "'"
	default:
		return column + "->>'" + escapeLiteral(key) + "'"
	}
}

// Placeholder returns the bind parameter syntax for the n-th argument,
// starting at 1.
func (dt DatabaseType) Placeholder(n int) string {
	if dt == PostgreSQL {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// RequiresJSONValidation returns true if the database requires JSON validation constraints
func (dt DatabaseType) RequiresJSONValidation() bool {
	switch dt {
	case PostgreSQL, MySQL:
		return false // These enforce JSON validity at the column type level
	default:
		return true // SQLite requires CHECK(json_valid(column))
	}
}

// GetJSONValidationConstraint returns the JSON validation constraint for databases that need it
func (dt DatabaseType) GetJSONValidationConstraint(columnName string) string {
	if !dt.RequiresJSONValidation() {
		return ""
	}
	return "CHECK (json_valid(" + columnName + "))"
}

func quotePathKey(key string) string {
	key = strings.ReplaceAll(key, `\`, `\\`)
	key = strings.ReplaceAll(key, `"`, `\"`)
	return `"` + escapeLiteral(key) + `"`
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
