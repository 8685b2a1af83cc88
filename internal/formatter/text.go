package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/erdschema/internal/document"
)

// TextFormatter formats a document as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the document in compact text format
func (f *TextFormatter) Format(d *document.Document) error {
	if err := document.Validate(d); err != nil {
		return err
	}

	for i, table := range d.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer)
		}
		f.formatTable(d, table)
	}
	return nil
}

func (f *TextFormatter) formatTable(d *document.Document, table document.Table) {
	var pk []string
	for _, field := range table.Fields {
		if field.Primary {
			pk = append(pk, field.Name)
		}
	}
	pkStr := ""
	if len(pk) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(pk, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	for _, field := range table.Fields {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", formatFieldLine(field))
	}

	if links := outgoingLinks(d, table.ID); len(links) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, l := range links {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s.%s (%s)\n", l.Field, l.OtherTable, l.OtherField, l.Cardinality)
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			unique := ""
			if idx.Unique {
				unique = " UNIQUE"
			}
			name := idx.Name
			if name == "" {
				name = fmt.Sprintf("#%d", idx.ID)
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", name, strings.Join(idx.Fields, ", "), unique)
		}
	}
}

func formatFieldLine(field document.Field) string {
	parts := []string{field.Name + ":", field.Type}

	if field.Increment {
		parts = append(parts, "INCREMENT")
	}
	if field.Unique {
		parts = append(parts, "UNIQUE")
	}
	if field.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if field.Default != "" {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", field.Default))
	}

	return strings.Join(parts, " ")
}
