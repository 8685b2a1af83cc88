// Package compiler turns a logical schema into a resolved document.
//
// The pipeline runs in one pass: ids are allocated, a name lookup is built, declared indexes
// and relationships are checked against it, implicit relationships are inferred, and every
// table gets its grid position and color. Each call to Compile owns a fresh allocator, so a
// Compiler may be shared by concurrent callers.
package compiler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/errors"
	"github.com/tordrt/erdschema/internal/ident"
	"github.com/tordrt/erdschema/internal/infer"
	"github.com/tordrt/erdschema/internal/layout"
	"github.com/tordrt/erdschema/internal/logging"
	"github.com/tordrt/erdschema/internal/resolve"
	"github.com/tordrt/erdschema/internal/schema"
)

// DefaultTitle is used when neither the schema nor the options name the diagram
const DefaultTitle = "Untitled diagram"

// Allocator is the id source of one compilation
type Allocator interface {
	EntityID() (string, error)
	IndexID() int
}

// Options configures a Compiler. The zero value infers relationships with default matching.
type Options struct {
	// Title overrides the schema title when set
	Title string
	// Database overrides the schema database tag when set
	Database string
	// DisableInference skips <entity>_id relationship inference
	DisableInference bool
	// Infer tunes relationship inference; nil means infer.DefaultOptions()
	Infer *infer.Options
	// Logger receives debug output; nil disables logging
	Logger *zap.SugaredLogger
	// NewAllocator overrides the id allocator, one per compilation
	NewAllocator func() Allocator
}

// Compiler compiles schemas into documents
type Compiler struct {
	opts   Options
	logger *zap.SugaredLogger
}

// New creates a compiler
func New(opts Options) *Compiler {
	if opts.NewAllocator == nil {
		opts.NewAllocator = func() Allocator { return ident.NewAllocator() }
	}
	return &Compiler{
		opts:   opts,
		logger: logging.OrNop(opts.Logger),
	}
}

// Compile builds the document for s. s is not modified.
func (c *Compiler) Compile(s *schema.Schema) (*document.Document, error) {
	if s == nil {
		return nil, errors.NewValidation("schema is nil")
	}
	if err := schema.Validate(s); err != nil {
		return nil, err
	}

	alloc := c.opts.NewAllocator()
	doc := &document.Document{
		Title:    c.title(s),
		Database: c.database(s),
	}

	tables, err := c.assignTables(s.Tables, alloc)
	if err != nil {
		return nil, err
	}
	doc.Tables = tables
	c.logger.Debugw("assigned ids", "tables", len(tables))

	lookup, err := resolve.Build(doc.Tables)
	if err != nil {
		return nil, err
	}

	if err := checkIndexes(doc.Tables); err != nil {
		return nil, err
	}

	explicit, err := c.resolveRelationships(s.Relationships, lookup, alloc)
	if err != nil {
		return nil, err
	}
	doc.Relationships = explicit

	if !c.opts.DisableInference {
		opts := infer.DefaultOptions()
		if c.opts.Infer != nil {
			opts = *c.opts.Infer
		}

		res, err := infer.Relationships(doc.Tables, lookup, explicit, alloc, opts)
		if err != nil {
			return nil, err
		}
		for _, skip := range res.Skipped {
			c.logger.Debugw("field left unlinked", "table", skip.Table, "field", skip.Field, "reason", skip.Reason)
		}
		for _, rel := range res.Relationships {
			c.logger.Debugw("inferred relationship", "name", rel.Name, "cardinality", rel.Cardinality)
		}
		doc.Relationships = append(doc.Relationships, res.Relationships...)
	}

	c.logger.Debugw("compiled document",
		"title", doc.Title,
		"tables", len(doc.Tables),
		"relationships", len(doc.Relationships),
	)

	return doc, nil
}

func (c *Compiler) title(s *schema.Schema) string {
	switch {
	case c.opts.Title != "":
		return c.opts.Title
	case s.Title != "":
		return s.Title
	default:
		return DefaultTitle
	}
}

func (c *Compiler) database(s *schema.Schema) string {
	switch {
	case c.opts.Database != "":
		return c.opts.Database
	case s.Database != "":
		return s.Database
	default:
		return document.DefaultDatabase
	}
}

// assignTables copies the tables in declaration order, allocating ids and placing each table
func (c *Compiler) assignTables(in []schema.Table, alloc Allocator) ([]document.Table, error) {
	tables := make([]document.Table, 0, len(in))

	for i, src := range in {
		tableID, err := alloc.EntityID()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate id for table %s: %w", src.Name, err)
		}

		x, y := layout.Position(i)
		table := document.Table{
			ID:      tableID,
			Name:    src.Name,
			Comment: src.Comment,
			Color:   layout.Color(i),
			Fields:  make([]document.Field, 0, len(src.Fields)),
			Indexes: make([]document.Index, 0, len(src.Indexes)),
			X:       x,
			Y:       y,
		}

		for _, f := range src.Fields {
			fieldID, err := alloc.EntityID()
			if err != nil {
				return nil, fmt.Errorf("failed to allocate id for field %s.%s: %w", src.Name, f.Name, err)
			}
			table.Fields = append(table.Fields, document.Field{
				ID:        fieldID,
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

		for _, idx := range src.Indexes {
			fields := make([]string, len(idx.Fields))
			copy(fields, idx.Fields)
			table.Indexes = append(table.Indexes, document.Index{
				ID:     alloc.IndexID(),
				Fields: fields,
				Name:   idx.Name,
				Unique: idx.Unique,
			})
		}

		tables = append(tables, table)
	}

	return tables, nil
}

// checkIndexes rejects indexes naming fields outside their own table
func checkIndexes(tables []document.Table) error {
	for _, table := range tables {
		names := make(map[string]bool, len(table.Fields))
		for _, f := range table.Fields {
			names[f.Name] = true
		}
		for _, idx := range table.Indexes {
			for _, name := range idx.Fields {
				if !names[name] {
					return errors.NewDanglingReference(fmt.Sprintf("index %q", idx.Name), table.Name, name)
				}
			}
		}
	}
	return nil
}

// resolveRelationships translates declared relationships from names to ids
func (c *Compiler) resolveRelationships(in []schema.Relationship, lookup *resolve.Lookup, alloc Allocator) ([]document.Relationship, error) {
	rels := make([]document.Relationship, 0, len(in))

	for i, src := range in {
		owner := relationshipOwner(i, src)

		startTableID, startFieldID, err := resolveEndpoint(lookup, owner, src.SourceTable, src.SourceField)
		if err != nil {
			return nil, err
		}
		endTableID, endFieldID, err := resolveEndpoint(lookup, owner, src.TargetTable, src.TargetField)
		if err != nil {
			return nil, err
		}

		id, err := alloc.EntityID()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate id for %s: %w", owner, err)
		}

		cardinality := src.Cardinality
		if cardinality == "" {
			cardinality = schema.ManyToOne
		}

		rels = append(rels, document.Relationship{
			ID:               id,
			Name:             src.Name,
			StartTableID:     startTableID,
			StartFieldID:     startFieldID,
			EndTableID:       endTableID,
			EndFieldID:       endFieldID,
			UpdateConstraint: policyOrDefault(src.UpdateConstraint),
			DeleteConstraint: policyOrDefault(src.DeleteConstraint),
			Cardinality:      cardinality,
		})
	}

	return rels, nil
}

func resolveEndpoint(lookup *resolve.Lookup, owner, table, field string) (tableID, fieldID string, err error) {
	if _, ok := lookup.Table(table); !ok {
		return "", "", errors.NewDanglingReference(owner, table, "")
	}
	tableID, fieldID, ok := lookup.Field(table, field)
	if !ok {
		return "", "", errors.NewDanglingReference(owner, table, field)
	}
	return tableID, fieldID, nil
}

func relationshipOwner(i int, rel schema.Relationship) string {
	if rel.Name != "" {
		return fmt.Sprintf("relationship %q", rel.Name)
	}
	return fmt.Sprintf("relationship #%d (%s.%s)", i, rel.SourceTable, rel.SourceField)
}

func policyOrDefault(policy string) string {
	if policy == "" {
		return infer.NoAction
	}
	return policy
}
