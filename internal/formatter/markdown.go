package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/schema"
)

// MarkdownFormatter formats a document as markdown documentation
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the document in markdown format
func (f *MarkdownFormatter) Format(d *document.Document) error {
	if err := document.Validate(d); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(f.writer, "# %s\n\n", d.Title)
	_, _ = fmt.Fprintf(f.writer, "Database: %s\n\n", d.Database)

	for _, table := range d.Tables {
		f.formatTable(d, table)
	}
	return nil
}

// FormatTable formats a single table (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(d *document.Document, table document.Table) {
	f.formatTable(d, table)
}

func (f *MarkdownFormatter) formatTable(d *document.Document, table document.Table) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)
	if table.Comment != "" {
		_, _ = fmt.Fprintf(f.writer, "%s\n\n", table.Comment)
	}

	_, _ = fmt.Fprintln(f.writer, "### Fields")
	_, _ = fmt.Fprintln(f.writer)
	for _, field := range table.Fields {
		constraintStr := formatConstraints(field)
		line := fmt.Sprintf("- **%s:** %s", field.Name, field.Type)
		if constraintStr != "" {
			line += ", " + constraintStr
		}
		if field.Comment != "" {
			line += " - " + field.Comment
		}
		_, _ = fmt.Fprintln(f.writer, line)
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Indexes")
		_, _ = fmt.Fprintln(f.writer)
		for _, idx := range table.Indexes {
			name := idx.Name
			if name == "" {
				name = fmt.Sprintf("index_%d", idx.ID)
			}
			unique := ""
			if idx.Unique {
				unique = ", unique"
			}
			_, _ = fmt.Fprintf(f.writer, "- %s on (%s)%s\n", name, strings.Join(idx.Fields, ", "), unique)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if links := outgoingLinks(d, table.ID); len(links) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, l := range links {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s.%s (%s)\n", l.Field, l.OtherTable, l.OtherField, l.describe())
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if links := incomingLinks(d, table.ID); len(links) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Referenced by")
		_, _ = fmt.Fprintln(f.writer)
		for _, l := range links {
			_, _ = fmt.Fprintf(f.writer, "- %s.%s → %s (%s)\n", l.OtherTable, l.OtherField, l.Field, l.describe())
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func formatConstraints(field document.Field) string {
	var constraints []string

	if field.Primary {
		constraints = append(constraints, "PK")
	}
	if field.Increment {
		constraints = append(constraints, "AUTO INCREMENT")
	}
	if field.Unique {
		constraints = append(constraints, "UNIQUE")
	}
	if field.NotNull {
		constraints = append(constraints, "NOT NULL")
	}
	if field.Default != "" {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", field.Default))
	}
	if field.Check != "" {
		constraints = append(constraints, fmt.Sprintf("CHECK(%s)", field.Check))
	}

	return strings.Join(constraints, ", ")
}

// link is one relationship seen from one of its tables. Field belongs to that table.
type link struct {
	Field       string
	OtherTable  string
	OtherField  string
	Cardinality string
	Inferred    bool
}

func (l link) describe() string {
	desc := FormatCardinality(l.Cardinality)
	if l.Inferred {
		desc += ", inferred"
	}
	return desc
}

// outgoingLinks lists relationships that start at the table
func outgoingLinks(d *document.Document, tableID string) []link {
	var links []link
	for _, rel := range d.Relationships {
		if rel.StartTableID != tableID {
			continue
		}
		_, startField, endTable, endField, ok := d.Endpoints(rel)
		if !ok {
			continue
		}
		links = append(links, link{
			Field:       startField.Name,
			OtherTable:  endTable.Name,
			OtherField:  endField.Name,
			Cardinality: rel.Cardinality,
			Inferred:    rel.Inferred,
		})
	}
	return links
}

// incomingLinks lists relationships that end at the table
func incomingLinks(d *document.Document, tableID string) []link {
	var links []link
	for _, rel := range d.Relationships {
		if rel.EndTableID != tableID {
			continue
		}
		startTable, startField, _, endField, ok := d.Endpoints(rel)
		if !ok {
			continue
		}
		links = append(links, link{
			Field:       endField.Name,
			OtherTable:  startTable.Name,
			OtherField:  startField.Name,
			Cardinality: rel.Cardinality,
			Inferred:    rel.Inferred,
		})
	}
	return links
}

// FormatCardinality turns a cardinality tag into readable text
func FormatCardinality(cardinality string) string {
	switch cardinality {
	case schema.OneToOne:
		return "one-to-one"
	case schema.OneToMany:
		return "one-to-many"
	case schema.ManyToOne:
		return "many-to-one"
	case schema.ManyToMany:
		return "many-to-many"
	default:
		return cardinality
	}
}
