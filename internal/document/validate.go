package document

import (
	"github.com/tordrt/erdschema/internal/errors"
	"github.com/tordrt/erdschema/internal/schema"
)

var cardinalities = map[string]bool{
	schema.OneToOne:   true,
	schema.OneToMany:  true,
	schema.ManyToOne:  true,
	schema.ManyToMany: true,
}

// Validate checks the cross-reference invariants a document must hold before it is rendered:
// unique ids, index ids numbered 0..n-1 in declaration order, no dangling references and a known
// cardinality on every relationship.
func Validate(d *Document) error {
	seen := make(map[string]string)
	claim := func(id, owner string) error {
		if id == "" {
			return errors.NewValidation("%s has no id", owner)
		}
		if other, exists := seen[id]; exists {
			return errors.NewValidation("id %q is shared by %s and %s", id, other, owner)
		}
		seen[id] = owner
		return nil
	}

	nextIndex := 0
	for _, table := range d.Tables {
		if err := claim(table.ID, "table "+table.Name); err != nil {
			return err
		}

		fieldNames := make(map[string]bool, len(table.Fields))
		for _, field := range table.Fields {
			if fieldNames[field.Name] {
				return errors.NewDuplicateName(table.Name, field.Name)
			}
			fieldNames[field.Name] = true
			if err := claim(field.ID, "field "+table.Name+"."+field.Name); err != nil {
				return err
			}
		}

		for _, idx := range table.Indexes {
			if idx.ID != nextIndex {
				return errors.NewValidation("index %q in table %q has id %d, expected %d", idx.Name, table.Name, idx.ID, nextIndex)
			}
			nextIndex++
			for _, name := range idx.Fields {
				if !fieldNames[name] {
					return errors.NewDanglingReference("index "+idx.Name, table.Name, name)
				}
			}
		}
	}

	for _, rel := range d.Relationships {
		if err := claim(rel.ID, "relationship "+rel.Name); err != nil {
			return err
		}
		if _, _, _, _, ok := d.Endpoints(rel); !ok {
			return errors.Newf(errors.ErrTypeDanglingReference, "relationship %q has an unresolved endpoint", rel.Name)
		}
		if !cardinalities[rel.Cardinality] {
			return errors.NewValidation("relationship %q has unknown cardinality %q", rel.Name, rel.Cardinality)
		}
	}

	return nil
}
