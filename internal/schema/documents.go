package schema

import (
	"fmt"
	"strings"
)

// TypeKey is the body key holding the document type name.
const TypeKey = "#type"

// DocumentsTable describes the table storing tagged documents: one row per
// document, the JSON body plus the type name and digest copied out of it.
type DocumentsTable struct {
	Name string
	DB   DatabaseType
}

// NewDocumentsTable returns the table description, defaulting the name to
// "documents".
func NewDocumentsTable(db DatabaseType, name string) (DocumentsTable, error) {
	if !db.IsValid() {
		return DocumentsTable{}, fmt.Errorf("unsupported database type %q", db)
	}
	if name == "" {
		name = "documents"
	}
	if !isIdentifier(name) {
		return DocumentsTable{}, fmt.Errorf("invalid table name %q", name)
	}
	return DocumentsTable{Name: name, DB: db}, nil
}

// CreateStatements returns the DDL creating the table and its type index.
func (t DocumentsTable) CreateStatements() []string {
	key := t.DB.GetKeyColumnType()
	body := "body " + t.DB.GetJSONColumnType() + " NOT NULL"
	if c := t.DB.GetJSONValidationConstraint("body"); c != "" {
		body += " " + c
	}
	ts := t.DB.GetTimestampColumnType()

	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id %s PRIMARY KEY,
	type %s NOT NULL,
	%s,
	digest %s NOT NULL,
	created_at %s NOT NULL,
	updated_at %s NOT NULL
)`, t.Name, key, key, body, key, ts, ts)

	index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_type ON %s (type)", t.Name, t.Name)
	if t.DB == MySQL {
		// MySQL has no IF NOT EXISTS for indexes; the index is declared inline.
		create = strings.Replace(create, "\n)", ",\n\tINDEX idx_"+t.Name+"_type (type)\n)", 1)
		return []string{create}
	}
	return []string{create, index}
}

// UpsertStatement inserts a document or replaces the body, type, digest and
// update time of an existing one. Arguments: id, type, body, digest,
// created_at, updated_at.
func (t DocumentsTable) UpsertStatement() string {
	p := t.placeholders(6)
	insert := fmt.Sprintf("INSERT INTO %s (id, type, body, digest, created_at, updated_at) VALUES (%s)", t.Name, strings.Join(p, ", "))
	if t.DB == MySQL {
		return insert + " ON DUPLICATE KEY UPDATE type = VALUES(type), body = VALUES(body), digest = VALUES(digest), updated_at = VALUES(updated_at)"
	}
	return insert + " ON CONFLICT (id) DO UPDATE SET type = excluded.type, body = excluded.body, digest = excluded.digest, updated_at = excluded.updated_at"
}

// SelectStatement reads one document by id.
func (t DocumentsTable) SelectStatement() string {
	return fmt.Sprintf("SELECT id, type, body, digest, created_at, updated_at FROM %s WHERE id = %s", t.Name, t.DB.Placeholder(1))
}

// SelectByTypeStatement lists the documents whose body is tagged with the
// type name given as argument, oldest first. The tag is read from the body
// itself so rows written by other tools are found too.
func (t DocumentsTable) SelectByTypeStatement() string {
	return fmt.Sprintf("SELECT id, type, body, digest, created_at, updated_at FROM %s WHERE %s = %s ORDER BY created_at, id",
		t.Name, t.DB.GetJSONExtractFunction("body", TypeKey), t.DB.Placeholder(1))
}

// DeleteStatement removes one document by id.
func (t DocumentsTable) DeleteStatement() string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = %s", t.Name, t.DB.Placeholder(1))
}

func (t DocumentsTable) placeholders(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = t.DB.Placeholder(i + 1)
	}
	return out
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
