package formatter

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/tordrt/erdschema/internal/document"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Diagram is the structured document consumed by the diagram editor.
// Struct field order is the key order of the emitted JSON and must not change.
type Diagram struct {
	Tables        []DiagramTable        `json:"tables"`
	Relationships []DiagramRelationship `json:"relationships"`
	Notes         []interface{}         `json:"notes"`
	SubjectAreas  []interface{}         `json:"subjectAreas"`
	Database      string                `json:"database"`
	Types         []interface{}         `json:"types"`
	Title         string                `json:"title"`
}

// DiagramTable is one table entry
type DiagramTable struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Comment string         `json:"comment"`
	Color   string         `json:"color"`
	Fields  []DiagramField `json:"fields"`
	Indices []DiagramIndex `json:"indices"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
}

// DiagramField is one field entry; Default is always text
type DiagramField struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Default   string `json:"default"`
	Check     string `json:"check"`
	Primary   bool   `json:"primary"`
	Unique    bool   `json:"unique"`
	NotNull   bool   `json:"notNull"`
	Increment bool   `json:"increment"`
	Comment   string `json:"comment"`
}

// DiagramIndex lists field names, not ids
type DiagramIndex struct {
	ID     int      `json:"id"`
	Fields []string `json:"fields"`
	Name   string   `json:"name"`
	Unique bool     `json:"unique"`
}

// DiagramRelationship is one relationship entry
type DiagramRelationship struct {
	Name             string `json:"name"`
	StartTableID     string `json:"startTableId"`
	EndTableID       string `json:"endTableId"`
	EndFieldID       string `json:"endFieldId"`
	StartFieldID     string `json:"startFieldId"`
	ID               string `json:"id"`
	UpdateConstraint string `json:"updateConstraint"`
	DeleteConstraint string `json:"deleteConstraint"`
	Cardinality      string `json:"cardinality"`
}

// BuildDiagram converts a validated document into its structured form
func BuildDiagram(d *document.Document) (*Diagram, error) {
	if err := document.Validate(d); err != nil {
		return nil, err
	}

	out := &Diagram{
		Tables:        make([]DiagramTable, 0, len(d.Tables)),
		Relationships: make([]DiagramRelationship, 0, len(d.Relationships)),
		Notes:         []interface{}{},
		SubjectAreas:  []interface{}{},
		Database:      d.Database,
		Types:         []interface{}{},
		Title:         d.Title,
	}
	if out.Database == "" {
		out.Database = document.DefaultDatabase
	}

	for _, table := range d.Tables {
		dt := DiagramTable{
			ID:      table.ID,
			Name:    table.Name,
			Comment: table.Comment,
			Color:   table.Color,
			Fields:  make([]DiagramField, 0, len(table.Fields)),
			Indices: make([]DiagramIndex, 0, len(table.Indexes)),
			X:       table.X,
			Y:       table.Y,
		}
		for _, f := range table.Fields {
			dt.Fields = append(dt.Fields, DiagramField{
				ID:        f.ID,
				Name:      f.Name,
				Type:      f.Type,
				Default:   f.Default,
				Check:     f.Check,
				Primary:   f.Primary,
				Unique:    f.Unique,
				NotNull:   f.NotNull,
				Increment: f.Increment,
				Comment:   f.Comment,
			})
		}
		for _, idx := range table.Indexes {
			fields := make([]string, len(idx.Fields))
			copy(fields, idx.Fields)
			dt.Indices = append(dt.Indices, DiagramIndex{
				ID:     idx.ID,
				Fields: fields,
				Name:   idx.Name,
				Unique: idx.Unique,
			})
		}
		out.Tables = append(out.Tables, dt)
	}

	for _, rel := range d.Relationships {
		out.Relationships = append(out.Relationships, DiagramRelationship{
			Name:             rel.Name,
			StartTableID:     rel.StartTableID,
			EndTableID:       rel.EndTableID,
			EndFieldID:       rel.EndFieldID,
			StartFieldID:     rel.StartFieldID,
			ID:               rel.ID,
			UpdateConstraint: rel.UpdateConstraint,
			DeleteConstraint: rel.DeleteConstraint,
			Cardinality:      rel.Cardinality,
		})
	}

	return out, nil
}

// StructuredFormatter writes the diagram document as indented JSON
type StructuredFormatter struct {
	writer io.Writer
}

// NewStructuredFormatter creates a new structured formatter
func NewStructuredFormatter(w io.Writer) *StructuredFormatter {
	return &StructuredFormatter{writer: w}
}

// Format writes the document as JSON
func (f *StructuredFormatter) Format(d *document.Document) error {
	diagram, err := BuildDiagram(d)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(diagram, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode diagram: %w", err)
	}
	data = append(data, '\n')

	if _, err := f.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write diagram: %w", err)
	}
	return nil
}
