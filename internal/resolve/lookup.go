// Package resolve maps human-readable table and field names to document ids.
package resolve

import (
	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/errors"
)

// TableRef is the id of a table and the ids of its fields by name
type TableRef struct {
	ID       string
	Position int
	fields   map[string]string
}

// Lookup is a read-only name to id mapping built once per document
type Lookup struct {
	tables map[string]*TableRef
	names  []string
}

// Build creates the lookup for already id-assigned tables.
// It fails with a duplicate_name error when table names, or field names within a table, repeat.
func Build(tables []document.Table) (*Lookup, error) {
	l := &Lookup{
		tables: make(map[string]*TableRef, len(tables)),
		names:  make([]string, 0, len(tables)),
	}

	for i, table := range tables {
		if _, exists := l.tables[table.Name]; exists {
			return nil, errors.NewDuplicateName("", table.Name)
		}

		ref := &TableRef{
			ID:       table.ID,
			Position: i,
			fields:   make(map[string]string, len(table.Fields)),
		}
		for _, field := range table.Fields {
			if _, exists := ref.fields[field.Name]; exists {
				return nil, errors.NewDuplicateName(table.Name, field.Name)
			}
			ref.fields[field.Name] = field.ID
		}

		l.tables[table.Name] = ref
		l.names = append(l.names, table.Name)
	}

	return l, nil
}

// Table returns the table reference for name
func (l *Lookup) Table(name string) (*TableRef, bool) {
	ref, ok := l.tables[name]
	return ref, ok
}

// Field returns the ids of table.field
func (l *Lookup) Field(table, field string) (tableID, fieldID string, ok bool) {
	ref, ok := l.tables[table]
	if !ok {
		return "", "", false
	}
	fieldID, ok = ref.fields[field]
	if !ok {
		return "", "", false
	}
	return ref.ID, fieldID, true
}

// HasField reports whether the table has a field with that name
func (r *TableRef) HasField(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// TableNames returns table names in declaration order
func (l *Lookup) TableNames() []string {
	names := make([]string, len(l.names))
	copy(names, l.names)
	return names
}
