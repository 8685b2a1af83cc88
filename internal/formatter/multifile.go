package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/errors"
)

// Files written by MultiFileFormatter besides the per-table markdown files
const (
	DiagramFile  = "diagram.json"
	DBMLFile     = "schema.dbml"
	OverviewFile = "_overview.md"
)

// MultiFileFormatter writes every output format for a document into a directory
type MultiFileFormatter struct {
	OutputDir string
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string) *MultiFileFormatter {
	return &MultiFileFormatter{OutputDir: outputDir}
}

// Format writes diagram.json, schema.dbml, _overview.md and one markdown file per table
func (f *MultiFileFormatter) Format(d *document.Document) error {
	if err := document.Validate(d); err != nil {
		return err
	}
	if err := checkTableFileNames(d); err != nil {
		return err
	}

	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeFile(DiagramFile, func(w io.Writer) error {
		return NewStructuredFormatter(w).Format(d)
	}); err != nil {
		return fmt.Errorf("failed to write diagram: %w", err)
	}

	if err := f.writeFile(DBMLFile, func(w io.Writer) error {
		return NewDBMLFormatter(w).Format(d)
	}); err != nil {
		return fmt.Errorf("failed to write dbml: %w", err)
	}

	if err := f.writeFile(OverviewFile, func(w io.Writer) error {
		return f.writeOverview(w, d)
	}); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range d.Tables {
		if err := f.writeFile(TableFileName(table.Name), func(w io.Writer) error {
			NewMarkdownFormatter(w).FormatTable(d, table)
			return nil
		}); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeFile(name string, write func(io.Writer) error) error {
	file, err := os.Create(filepath.Join(f.OutputDir, name))
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func (f *MultiFileFormatter) writeOverview(w io.Writer, d *document.Document) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", d.Title)
	_, _ = fmt.Fprintf(w, "Diagram: `%s`, DBML: `%s`. Each table has a corresponding file: `<table_name>.md`\n\n", DiagramFile, DBMLFile)
	_, _ = fmt.Fprintf(w, "## Tables\n\n")

	sortedTables := make([]document.Table, len(d.Tables))
	copy(sortedTables, d.Tables)
	sort.Slice(sortedTables, func(i, j int) bool {
		return sortedTables[i].Name < sortedTables[j].Name
	})

	for _, table := range sortedTables {
		_, _ = fmt.Fprintf(w, "- **%s**", table.Name)

		var targets []string
		seen := make(map[string]bool)
		for _, l := range outgoingLinks(d, table.ID) {
			if !seen[l.OtherTable] {
				seen[l.OtherTable] = true
				targets = append(targets, l.OtherTable)
			}
		}
		if len(targets) > 0 {
			_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	return nil
}

// checkTableFileNames rejects tables whose files would overwrite each other or the overview.
// Names are compared case-insensitively so the result does not depend on the filesystem.
func checkTableFileNames(d *document.Document) error {
	owners := map[string]string{strings.ToLower(OverviewFile): "the overview"}
	for _, table := range d.Tables {
		name := strings.ToLower(TableFileName(table.Name))
		if owner, taken := owners[name]; taken {
			return errors.Newf(errors.ErrTypeInput, "table %q would be written to %s, which is already used by %s", table.Name, TableFileName(table.Name), owner)
		}
		owners[name] = fmt.Sprintf("table %q", table.Name)
	}
	return nil
}

// TableFileName returns the markdown file name used for a table
func TableFileName(table string) string {
	r := strings.NewReplacer("/", "_", `\`, "_", ":", "_")
	return r.Replace(table) + ".md"
}
