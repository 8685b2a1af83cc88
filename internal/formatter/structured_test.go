package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/errors"
)

// assertKeyOrder checks that each key appears after the previous one in out
func assertKeyOrder(t *testing.T, out string, keys ...string) {
	t.Helper()
	last := -1
	for _, key := range keys {
		pos := strings.Index(out[last+1:], `"`+key+`":`)
		require.GreaterOrEqual(t, pos, 0, "key %q missing or out of order", key)
		last += 1 + pos
	}
}

func TestStructuredFormatterKeyOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewStructuredFormatter(&buf).Format(sampleDocument()))
	out := buf.String()

	assertKeyOrder(t, out, "tables", "relationships", "notes", "subjectAreas", "database", "types", "title")
	assertKeyOrder(t, out, "id", "name", "comment", "color", "fields", "indices", "x", "y")
	assertKeyOrder(t, out, "fields", "id", "name", "type", "default", "check", "primary", "unique", "notNull", "increment", "comment")
	assertKeyOrder(t, out, "indices", "id", "fields", "name", "unique")

	rels := out[strings.Index(out, `"relationships":`):]
	assertKeyOrder(t, rels, "name", "startTableId", "endTableId", "endFieldId", "startFieldId", "id", "updateConstraint", "deleteConstraint", "cardinality")

	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestStructuredFormatterValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewStructuredFormatter(&buf).Format(sampleDocument()))
	out := buf.String()

	assert.Contains(t, out, `"default": "0"`, "defaults stay strings")
	assert.Contains(t, out, `"type": "VARCHAR(100)"`)
	assert.NotContains(t, out, `"size"`)
	assert.Contains(t, out, `"notes": []`)
	assert.Contains(t, out, `"subjectAreas": []`)
	assert.Contains(t, out, `"types": []`)
	assert.Contains(t, out, `"database": "generic"`)
	assert.Contains(t, out, `"id": 0`, "index ids are integers")
	assert.Contains(t, out, `"startFieldId": "fOrderUser"`)
	assert.Contains(t, out, `"indices": []`, "tables without indexes keep an empty list")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	tables := decoded["tables"].([]interface{})
	second := tables[1].(map[string]interface{})
	assert.Equal(t, 500.0, second["x"])
	assert.Equal(t, 50.0, second["y"])
}

func TestBuildDiagramDefaultsDatabase(t *testing.T) {
	d := sampleDocument()
	d.Database = ""

	diagram, err := BuildDiagram(d)
	require.NoError(t, err)
	assert.Equal(t, "generic", diagram.Database)
}

func TestStructuredFormatterRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(d *document.Document)
		wantType errors.ErrorType
	}{
		{
			name:     "shared id",
			mutate:   func(d *document.Document) { d.Tables[1].Fields[0].ID = "fUserID" },
			wantType: errors.ErrTypeValidation,
		},
		{
			name:     "missing id",
			mutate:   func(d *document.Document) { d.Relationships[0].ID = "" },
			wantType: errors.ErrTypeValidation,
		},
		{
			name:     "index id gap",
			mutate:   func(d *document.Document) { d.Tables[0].Indexes[0].ID = 3 },
			wantType: errors.ErrTypeValidation,
		},
		{
			name:     "index on unknown field",
			mutate:   func(d *document.Document) { d.Tables[0].Indexes[0].Fields = []string{"user_id"} },
			wantType: errors.ErrTypeDanglingReference,
		},
		{
			name:     "dangling relationship",
			mutate:   func(d *document.Document) { d.Relationships[0].EndFieldID = "nope" },
			wantType: errors.ErrTypeDanglingReference,
		},
		{
			name:     "unknown cardinality",
			mutate:   func(d *document.Document) { d.Relationships[0].Cardinality = "bogus" },
			wantType: errors.ErrTypeValidation,
		},
		{
			name:     "duplicate field name",
			mutate:   func(d *document.Document) { d.Tables[0].Fields[1].Name = "id" },
			wantType: errors.ErrTypeDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDocument()
			tt.mutate(d)

			var buf bytes.Buffer
			err := NewStructuredFormatter(&buf).Format(d)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.GetType(err))
			assert.True(t, errors.IsValidation(err))
			assert.Empty(t, buf.String(), "nothing is written for an invalid document")
		})
	}
}
