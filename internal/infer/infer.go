// Package infer derives implicit relationships from the <entity>_id field naming convention.
//
// Matching is heuristic. A field that does not resolve to a table is left unlinked without an
// error, since partial schemas routinely reference tables that are not part of the document.
package infer

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"

	"github.com/tordrt/erdschema/internal/document"
	"github.com/tordrt/erdschema/internal/resolve"
	"github.com/tordrt/erdschema/internal/schema"
)

const (
	idSuffix = "_id"

	// NoAction is the update/delete policy given to inferred relationships
	NoAction = "No action"
)

// Options tunes table matching
type Options struct {
	// TableSuffixes are appended to the entity name after exact and singular/plural
	// candidates fail, e.g. "_info" lets user_id resolve to user_info.
	TableSuffixes []string
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{TableSuffixes: []string{"_info"}}
}

// IDAllocator hands out relationship ids
type IDAllocator interface {
	EntityID() (string, error)
}

// Entity extracts <entity> from a field named <entity>_id. Mixed-case names such as UserId are
// converted to snake case first; snake-case names keep their digits, so address2_id is address2.
func Entity(fieldName string) (string, bool) {
	snake := fieldName
	if isMixedCase(fieldName) {
		snake = strcase.ToSnake(fieldName)
	}
	snake = strings.ToLower(snake)
	if !strings.HasSuffix(snake, idSuffix) {
		return "", false
	}
	entity := strings.TrimSuffix(snake, idSuffix)
	entity = strings.Trim(entity, "_")
	if entity == "" {
		return "", false
	}
	return entity, true
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}

// Candidates lists table names to try for an entity, most specific first
func Candidates(entity string, opts Options) []string {
	base := []string{entity}
	if plural := inflection.Plural(entity); plural != entity {
		base = append(base, plural)
	}
	if singular := inflection.Singular(entity); singular != entity {
		base = append(base, singular)
	}

	candidates := append([]string{}, base...)
	for _, suffix := range opts.TableSuffixes {
		if suffix == "" {
			continue
		}
		for _, name := range base {
			candidates = append(candidates, name+suffix)
		}
	}
	return candidates
}

// MatchTable resolves a field name against the table names. It is pure and never fails;
// the boolean is false when nothing matches.
func MatchTable(fieldName string, tableNames []string, opts Options) (string, bool) {
	entity, ok := Entity(fieldName)
	if !ok {
		return "", false
	}

	exact := make(map[string]bool, len(tableNames))
	folded := make(map[string]string, len(tableNames))
	for _, name := range tableNames {
		exact[name] = true
		lower := strings.ToLower(name)
		if _, seen := folded[lower]; !seen {
			folded[lower] = name
		}
	}

	for _, candidate := range Candidates(entity, opts) {
		if exact[candidate] {
			return candidate, true
		}
		if name, ok := folded[candidate]; ok {
			return name, true
		}
	}
	return "", false
}

// TargetField picks the field a reference to table points at: the first primary field,
// else the first declared field
func TargetField(table *document.Table) (*document.Field, bool) {
	for i := range table.Fields {
		if table.Fields[i].Primary {
			return &table.Fields[i], true
		}
	}
	if len(table.Fields) > 0 {
		return &table.Fields[0], true
	}
	return nil, false
}

// Skip records an _id field that was left unlinked
type Skip struct {
	Table  string
	Field  string
	Reason string
}

// Result holds inferred relationships in table-then-field order plus the skipped fields
type Result struct {
	Relationships []document.Relationship
	Skipped       []Skip
}

// Relationships infers a relationship for every <entity>_id field that is not already
// an endpoint of an explicit relationship
func Relationships(tables []document.Table, lookup *resolve.Lookup, explicit []document.Relationship, alloc IDAllocator, opts Options) (*Result, error) {
	linked := make(map[string]bool, len(explicit)*2)
	for _, rel := range explicit {
		linked[rel.StartFieldID] = true
		linked[rel.EndFieldID] = true
	}

	tableNames := lookup.TableNames()
	result := &Result{}

	for ti := range tables {
		source := &tables[ti]
		for fi := range source.Fields {
			field := &source.Fields[fi]
			if _, ok := Entity(field.Name); !ok {
				continue
			}
			if linked[field.ID] {
				continue
			}

			targetName, ok := MatchTable(field.Name, tableNames, opts)
			if !ok {
				result.Skipped = append(result.Skipped, Skip{Table: source.Name, Field: field.Name, Reason: "no matching table"})
				continue
			}

			ref, _ := lookup.Table(targetName)
			target := &tables[ref.Position]
			targetField, ok := TargetField(target)
			if !ok {
				result.Skipped = append(result.Skipped, Skip{Table: source.Name, Field: field.Name, Reason: "target table has no fields"})
				continue
			}
			if targetField.ID == field.ID {
				result.Skipped = append(result.Skipped, Skip{Table: source.Name, Field: field.Name, Reason: "field references itself"})
				continue
			}

			id, err := alloc.EntityID()
			if err != nil {
				return nil, fmt.Errorf("failed to allocate relationship id: %w", err)
			}

			cardinality := schema.ManyToOne
			if field.Unique {
				cardinality = schema.OneToOne
			}

			result.Relationships = append(result.Relationships, document.Relationship{
				ID:               id,
				Name:             fmt.Sprintf("fk_%s_%s_%s", source.Name, field.Name, target.Name),
				StartTableID:     source.ID,
				StartFieldID:     field.ID,
				EndTableID:       target.ID,
				EndFieldID:       targetField.ID,
				UpdateConstraint: NoAction,
				DeleteConstraint: NoAction,
				Cardinality:      cardinality,
				Inferred:         true,
			})
		}
	}

	return result, nil
}
