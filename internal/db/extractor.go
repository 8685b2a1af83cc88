// Package db reads the Schema Model out of live PostgreSQL, MySQL and SQLite databases.
package db

import (
	"context"
	"strings"

	"github.com/tordrt/erdschema/internal/schema"
)

// Extractor reads tables, indexes and foreign keys from a database
type Extractor interface {
	// ExtractSchema extracts the named tables, or every table when tables is empty
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)
}

// foreignKey is one column pair of a foreign key constraint
type foreignKey struct {
	Name         string
	Table        string
	Column       string
	TargetTable  string
	TargetColumn string
	OnUpdate     string
	OnDelete     string
}

// buildSchema attaches foreign keys to the extracted tables as explicit relationships.
// Keys pointing at tables or columns outside the extracted set are dropped.
func buildSchema(tables []schema.Table, fks []foreignKey) *schema.Schema {
	s := &schema.Schema{Tables: tables}

	for _, fk := range fks {
		source := s.FindTable(fk.Table)
		target := s.FindTable(fk.TargetTable)
		if source == nil || target == nil {
			continue
		}
		sourceField := findField(source, fk.Column)
		if sourceField == nil || findField(target, fk.TargetColumn) == nil {
			continue
		}

		cardinality := schema.ManyToOne
		if sourceField.Unique {
			cardinality = schema.OneToOne
		}

		s.Relationships = append(s.Relationships, schema.Relationship{
			Name:             fk.Name,
			SourceTable:      fk.Table,
			SourceField:      fk.Column,
			TargetTable:      fk.TargetTable,
			TargetField:      fk.TargetColumn,
			Cardinality:      cardinality,
			UpdateConstraint: referentialAction(fk.OnUpdate),
			DeleteConstraint: referentialAction(fk.OnDelete),
		})
	}

	return s
}

func findField(table *schema.Table, name string) *schema.Field {
	for i := range table.Fields {
		if table.Fields[i].Name == name {
			return &table.Fields[i]
		}
	}
	return nil
}

// referentialAction turns a catalog rule such as "SET NULL" into "Set null"
func referentialAction(rule string) string {
	rule = strings.ToLower(strings.TrimSpace(rule))
	if rule == "" {
		return "No action"
	}
	return strings.ToUpper(rule[:1]) + rule[1:]
}

// markPrimary flags the primary key columns of a table
func markPrimary(table *schema.Table, columns []string) {
	for _, column := range columns {
		if f := findField(table, column); f != nil {
			f.Primary = true
		}
	}
}

// markUnique flags columns covered alone by a unique index or constraint
func markUnique(table *schema.Table, indexes []schema.Index) {
	for _, idx := range indexes {
		if idx.Unique && len(idx.Fields) == 1 {
			if f := findField(table, idx.Fields[0]); f != nil {
				f.Unique = true
			}
		}
	}
}

// enumComment appends the allowed values of an enum column to its comment
func enumComment(comment string, values []string) string {
	if len(values) == 0 {
		return comment
	}
	list := "one of: " + strings.Join(values, ", ")
	if comment == "" {
		return list
	}
	return comment + " (" + list + ")"
}
