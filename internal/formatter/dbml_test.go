package formatter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/erdschema/internal/compiler"
	"github.com/tordrt/erdschema/internal/dbml"
	"github.com/tordrt/erdschema/internal/errors"
	"github.com/tordrt/erdschema/internal/schema"
)

const sampleDBML = `Table users {
  id INT [pk, increment, not null]
  email VARCHAR(100) [unique]

  indexes {
    email [name: 'idx_email', unique]
  }

  Note: 'registered users'
}

Table "order items" {
  id INT [pk]
  user_id INT [not null]
  status TINYINT [default: 0, note: 'it\'s pending']
  created_at TIMESTAMP [default: ` + "`now()`" + `]
}

Ref fk_orders: "order items".user_id > users.id [delete: cascade]
`

func TestDBMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDBMLFormatter(&buf).Format(sampleDocument()))
	assert.Equal(t, sampleDBML, buf.String())
}

func TestDBMLRefSymbols(t *testing.T) {
	tests := []struct {
		cardinality string
		want        string
	}{
		{schema.ManyToOne, `Ref fk_orders: "order items".user_id > users.id`},
		{schema.OneToOne, `Ref fk_orders: "order items".user_id - users.id`},
		{schema.OneToMany, `Ref fk_orders: "order items".user_id < users.id`},
		{schema.ManyToMany, `Ref fk_orders: "order items".user_id <> users.id`},
	}

	for _, tt := range tests {
		t.Run(tt.cardinality, func(t *testing.T) {
			d := sampleDocument()
			d.Relationships[0].Cardinality = tt.cardinality
			d.Relationships[0].DeleteConstraint = ""

			out, err := RenderDBML(d)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want+"\n")
		})
	}
}

func TestDBMLQuoting(t *testing.T) {
	assert.Equal(t, "user_info", quoteName("user_info"))
	assert.Equal(t, `"order items"`, quoteName("order items"))
	assert.Equal(t, "decimal(10,2)", quoteType("decimal(10,2)"))
	assert.Equal(t, "text[]", quoteType("text[]"))
	assert.Equal(t, `"double precision"`, quoteType("double precision"))
	assert.Equal(t, `"weird\\table"`, quoteName(`weird\table`))
	assert.Equal(t, `"say \"hi\""`, quoteName(`say "hi"`))
	assert.Equal(t, `"my\\type"`, quoteType(`my\type`))

	assert.Equal(t, "12", defaultLiteral("12"))
	assert.Equal(t, "-1.5", defaultLiteral("-1.5"))
	assert.Equal(t, "true", defaultLiteral("true"))
	assert.Equal(t, "`CURRENT_TIMESTAMP()`", defaultLiteral("CURRENT_TIMESTAMP()"))
	assert.Equal(t, "'NULL'", defaultLiteral("NULL"))
	assert.Equal(t, `'a\'b'`, defaultLiteral("a'b"))
}

func TestDBMLRejectsInvalidDocuments(t *testing.T) {
	d := sampleDocument()
	d.Relationships[0].StartFieldID = "missing"

	var buf bytes.Buffer
	err := NewDBMLFormatter(&buf).Format(d)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDanglingReference))
	assert.Empty(t, buf.String())
}

func TestDBMLRejectsUnknownCardinality(t *testing.T) {
	d := sampleDocument()
	d.Relationships[0].Cardinality = "bogus"

	var buf bytes.Buffer
	err := NewDBMLFormatter(&buf).Format(d)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	assert.Empty(t, buf.String())

	_, err = refLine(d, d.Relationships[0])
	assert.ErrorContains(t, err, "unknown cardinality")
}

type fieldTriple struct {
	Table     string
	Field     string
	Type      string
	Primary   bool
	Unique    bool
	NotNull   bool
	Increment bool
}

func structuredTriples(t *testing.T, diagram *Diagram) map[fieldTriple]bool {
	t.Helper()
	out := make(map[fieldTriple]bool)
	for _, table := range diagram.Tables {
		for _, f := range table.Fields {
			out[fieldTriple{table.Name, f.Name, f.Type, f.Primary, f.Unique, f.NotNull, f.Increment}] = true
		}
	}
	return out
}

func parsedTriples(t *testing.T, s *schema.Schema) map[fieldTriple]bool {
	t.Helper()
	out := make(map[fieldTriple]bool)
	for _, table := range s.Tables {
		for _, f := range table.Fields {
			out[fieldTriple{table.Name, f.Name, f.Type, f.Primary, f.Unique, f.NotNull, f.Increment}] = true
		}
	}
	return out
}

func TestDBMLRoundTrip(t *testing.T) {
	source := &schema.Schema{
		Title: "round trip",
		Tables: []schema.Table{
			{
				Name:    "user_info",
				Comment: "it's the users table",
				Fields: []schema.Field{
					{Name: "id", Type: "BIGINT", Primary: true, Unique: true, NotNull: true, Increment: true},
					{Name: "nick name", Type: "VARCHAR(64)", Default: "anon"},
					{Name: "balance", Type: "DECIMAL(10,2)", Default: "0.00"},
					{Name: "tags", Type: "text[]"},
					{Name: "rate", Type: "double precision"},
				},
				Indexes: []schema.Index{{Fields: []string{"nick name", "balance"}, Unique: true}},
			},
			{
				Name: "order_info",
				Fields: []schema.Field{
					{Name: "id", Type: "BIGINT", Primary: true},
					{Name: "user_id", Type: "BIGINT", NotNull: true},
				},
			},
			{
				Name: `weird\table`,
				Fields: []schema.Field{
					{Name: `a\b`, Type: `my\type`},
					{Name: `say "hi"`, Type: "text"},
				},
			},
		},
	}

	doc, err := compiler.New(compiler.Options{}).Compile(source)
	require.NoError(t, err)

	diagram, err := BuildDiagram(doc)
	require.NoError(t, err)
	text, err := RenderDBML(doc)
	require.NoError(t, err)

	parsed, err := dbml.ParseString(text)
	require.NoError(t, err)

	assert.Equal(t, structuredTriples(t, diagram), parsedTriples(t, parsed))

	require.Len(t, parsed.Relationships, 1)
	rel := parsed.Relationships[0]
	assert.Equal(t, "order_info", rel.SourceTable)
	assert.Equal(t, "user_id", rel.SourceField)
	assert.Equal(t, "user_info", rel.TargetTable)
	assert.Equal(t, "id", rel.TargetField)
	assert.Equal(t, schema.ManyToOne, rel.Cardinality)

	users := parsed.FindTable("user_info")
	require.NotNil(t, users)
	assert.Equal(t, "it's the users table", users.Comment)
	assert.Equal(t, "0.00", users.Fields[2].Default)
	require.Len(t, users.Indexes, 1)
	assert.Equal(t, []string{"nick name", "balance"}, users.Indexes[0].Fields)

	weird := parsed.FindTable(`weird\table`)
	require.NotNil(t, weird)
	assert.Equal(t, `a\b`, weird.Fields[0].Name)
	assert.Equal(t, `my\type`, weird.Fields[0].Type)
	assert.Equal(t, `say "hi"`, weird.Fields[1].Name)
}
