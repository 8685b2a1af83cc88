package formatter

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/schema"
)

var (
	plainName    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	plainType    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\([^()"]*\))?(\[\])*$`)
	numberLit    = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
	functionCall = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*\(.*\)$`)
)

// refSymbols maps cardinality to the DBML relationship operator
var refSymbols = map[string]string{
	schema.ManyToOne:  ">",
	schema.OneToOne:   "-",
	schema.OneToMany:  "<",
	schema.ManyToMany: "<>",
}

// DBMLFormatter formats a document as DBML text
type DBMLFormatter struct {
	writer io.Writer
}

// NewDBMLFormatter creates a new DBML formatter
func NewDBMLFormatter(w io.Writer) *DBMLFormatter {
	return &DBMLFormatter{writer: w}
}

// Format writes one Table block per table followed by one Ref per relationship
func (f *DBMLFormatter) Format(d *document.Document) error {
	text, err := RenderDBML(d)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f.writer, text); err != nil {
		return fmt.Errorf("failed to write dbml: %w", err)
	}
	return nil
}

// RenderDBML returns the DBML text for a validated document
func RenderDBML(d *document.Document) (string, error) {
	if err := document.Validate(d); err != nil {
		return "", err
	}

	var b strings.Builder
	for i, table := range d.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		writeTable(&b, table)
	}

	if len(d.Relationships) > 0 {
		if len(d.Tables) > 0 {
			b.WriteString("\n")
		}
		for _, rel := range d.Relationships {
			line, err := refLine(d, rel)
			if err != nil {
				return "", err
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

func writeTable(b *strings.Builder, table document.Table) {
	fmt.Fprintf(b, "Table %s {\n", quoteName(table.Name))

	for _, field := range table.Fields {
		fmt.Fprintf(b, "  %s %s%s\n", quoteName(field.Name), quoteType(field.Type), fieldSettings(field))
	}

	if len(table.Indexes) > 0 {
		b.WriteString("\n  indexes {\n")
		for _, idx := range table.Indexes {
			fmt.Fprintf(b, "    %s%s\n", indexColumns(idx), indexSettings(idx))
		}
		b.WriteString("  }\n")
	}

	if table.Comment != "" {
		fmt.Fprintf(b, "\n  Note: %s\n", quoteString(table.Comment))
	}

	b.WriteString("}\n")
}

func fieldSettings(field document.Field) string {
	var settings []string
	if field.Primary {
		settings = append(settings, "pk")
	}
	if field.Increment {
		settings = append(settings, "increment")
	}
	if field.NotNull {
		settings = append(settings, "not null")
	}
	if field.Unique {
		settings = append(settings, "unique")
	}
	if field.Default != "" {
		settings = append(settings, "default: "+defaultLiteral(field.Default))
	}
	if field.Comment != "" {
		settings = append(settings, "note: "+quoteString(field.Comment))
	}
	return bracket(settings)
}

func indexColumns(idx document.Index) string {
	names := make([]string, len(idx.Fields))
	for i, name := range idx.Fields {
		names[i] = quoteName(name)
	}
	if len(names) == 1 {
		return names[0]
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func indexSettings(idx document.Index) string {
	var settings []string
	if idx.Name != "" {
		settings = append(settings, "name: "+quoteString(idx.Name))
	}
	if idx.Unique {
		settings = append(settings, "unique")
	}
	return bracket(settings)
}

func refLine(d *document.Document, rel document.Relationship) (string, error) {
	startTable, startField, endTable, endField, ok := d.Endpoints(rel)
	if !ok {
		return "", fmt.Errorf("relationship %q has an unresolved endpoint", rel.Name)
	}

	symbol, ok := refSymbols[rel.Cardinality]
	if !ok {
		return "", fmt.Errorf("relationship %q has unknown cardinality %q", rel.Name, rel.Cardinality)
	}

	head := "Ref"
	if rel.Name != "" {
		head = "Ref " + quoteName(rel.Name)
	}

	var settings []string
	if action := dbmlAction(rel.UpdateConstraint); action != "" {
		settings = append(settings, "update: "+action)
	}
	if action := dbmlAction(rel.DeleteConstraint); action != "" {
		settings = append(settings, "delete: "+action)
	}

	return fmt.Sprintf("%s: %s.%s %s %s.%s%s",
		head,
		quoteName(startTable.Name), quoteName(startField.Name),
		symbol,
		quoteName(endTable.Name), quoteName(endField.Name),
		bracket(settings),
	), nil
}

// dbmlAction lowercases a referential action; "no action" is the default and is omitted
func dbmlAction(policy string) string {
	action := strings.ToLower(strings.TrimSpace(policy))
	if action == "" || action == "no action" {
		return ""
	}
	return action
}

func bracket(settings []string) string {
	if len(settings) == 0 {
		return ""
	}
	return " [" + strings.Join(settings, ", ") + "]"
}

// identEscaper escapes what the DBML lexer decodes inside double quotes
var identEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

func quoteName(name string) string {
	if plainName.MatchString(name) {
		return name
	}
	return `"` + identEscaper.Replace(name) + `"`
}

func quoteType(typ string) string {
	if plainType.MatchString(typ) {
		return typ
	}
	return `"` + identEscaper.Replace(typ) + `"`
}

// defaultLiteral writes numbers and booleans bare, function calls as expressions and everything else quoted
func defaultLiteral(value string) string {
	switch {
	case numberLit.MatchString(value):
		return value
	case value == "true" || value == "false" || value == "null":
		return value
	case functionCall.MatchString(value) && !strings.Contains(value, "`"):
		return "`" + value + "`"
	default:
		return quoteString(value)
	}
}

func quoteString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}
