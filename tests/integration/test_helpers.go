//go:build integration
// +build integration

package integration

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdschema"
	"github.com/tordrt/erdschema/internal/dbml"
	"github.com/tordrt/erdschema/internal/schema"
)

// fixtureTables are created by every database fixture
var fixtureTables = []string{"users", "products", "orders", "order_items"}

// requireTable returns the named table or stops the test
func requireTable(t *testing.T, s *schema.Schema, name string) *schema.Table {
	t.Helper()
	table := s.FindTable(name)
	require.NotNil(t, table, "table %s not found", name)
	return table
}

func tableNames(s *schema.Schema) []string {
	names := make([]string, 0, len(s.Tables))
	for _, table := range s.Tables {
		names = append(names, table.Name)
	}
	return names
}

func findField(table *schema.Table, name string) *schema.Field {
	for i := range table.Fields {
		if table.Fields[i].Name == name {
			return &table.Fields[i]
		}
	}
	return nil
}

// assertFields checks that every expected field exists
func assertFields(t *testing.T, table *schema.Table, expected []string) {
	t.Helper()
	for _, name := range expected {
		assert.NotNil(t, findField(table, name), "field %s not found in %s", name, table.Name)
	}
}

// assertPrimaryKey checks the primary fields in declaration order
func assertPrimaryKey(t *testing.T, table *schema.Table, expected []string) {
	t.Helper()
	var primary []string
	for _, f := range table.Fields {
		if f.Primary {
			primary = append(primary, f.Name)
		}
	}
	assert.Equal(t, expected, primary, "primary key of %s", table.Name)
}

func assertUnique(t *testing.T, table *schema.Table, field string) {
	t.Helper()
	f := findField(table, field)
	require.NotNil(t, f, "field %s not found in %s", field, table.Name)
	assert.True(t, f.Unique, "expected %s.%s to be unique", table.Name, field)
}

// assertRelationship checks that a declared foreign key became a relationship
func assertRelationship(t *testing.T, s *schema.Schema, sourceTable, sourceField, targetTable string) {
	t.Helper()
	for _, rel := range s.Relationships {
		if rel.SourceTable == sourceTable && rel.SourceField == sourceField && rel.TargetTable == targetTable {
			return
		}
	}
	t.Errorf("expected relationship %s.%s -> %s not found", sourceTable, sourceField, targetTable)
}

func assertIndex(t *testing.T, table *schema.Table, name string, fields []string) {
	t.Helper()
	for _, idx := range table.Indexes {
		if idx.Name == name {
			assert.Equal(t, fields, idx.Fields, "fields of index %s", name)
			return
		}
	}
	t.Errorf("expected index %s on %s not found", name, table.Name)
}

// assertCompiles runs the extracted schema through every output format and re-reads the DBML
func assertCompiles(t *testing.T, s *schema.Schema) {
	t.Helper()

	doc, err := erdschema.Compile(s, nil)
	require.NoError(t, err)
	require.Len(t, doc.Tables, len(s.Tables))
	assert.GreaterOrEqual(t, len(doc.Relationships), len(s.Relationships))

	for _, format := range []string{erdschema.FormatDrawDB, erdschema.FormatMarkdown, erdschema.FormatText} {
		var buf bytes.Buffer
		require.NoError(t, erdschema.FormatDocument(doc, &erdschema.OutputOptions{Format: format, Writer: &buf}), format)
		assert.NotEmpty(t, buf.String(), format)
	}

	var buf bytes.Buffer
	require.NoError(t, erdschema.FormatDocument(doc, &erdschema.OutputOptions{Format: erdschema.FormatDBML, Writer: &buf}))
	parsed, err := dbml.ParseString(buf.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, tableNames(s), tableNames(parsed))
	assert.Len(t, parsed.Relationships, len(doc.Relationships))
}
