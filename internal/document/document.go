// Package document holds the resolved, id-assigned form of a schema that the formatters render.
package document

// DefaultDatabase is the database tag written when none is configured
const DefaultDatabase = "generic"

// Document is a compiled schema. It is not modified after compilation.
type Document struct {
	Title         string
	Database      string
	Tables        []Table
	Relationships []Relationship
}

// Table is a table with its assigned id, color and position
type Table struct {
	ID      string
	Name    string
	Comment string
	Color   string
	Fields  []Field
	Indexes []Index
	X       float64
	Y       float64
}

// Field is a column with its assigned id
type Field struct {
	ID        string
	Name      string
	Type      string
	Default   string
	Check     string
	Primary   bool
	Unique    bool
	NotNull   bool
	Increment bool
	Comment   string
}

// Index refers to fields by name, not id
type Index struct {
	ID     int
	Fields []string
	Name   string
	Unique bool
}

// Relationship links a start field to an end field by id
type Relationship struct {
	ID               string
	Name             string
	StartTableID     string
	StartFieldID     string
	EndTableID       string
	EndFieldID       string
	UpdateConstraint string
	DeleteConstraint string
	Cardinality      string
	Inferred         bool
}

// TableByID returns the table with the given id, or nil
func (d *Document) TableByID(id string) *Table {
	for i := range d.Tables {
		if d.Tables[i].ID == id {
			return &d.Tables[i]
		}
	}
	return nil
}

// FieldByID returns the field with the given id, or nil
func (t *Table) FieldByID(id string) *Field {
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			return &t.Fields[i]
		}
	}
	return nil
}

// Endpoints resolves both ends of a relationship. ok is false when any id is unknown.
func (d *Document) Endpoints(rel Relationship) (startTable *Table, startField *Field, endTable *Table, endField *Field, ok bool) {
	startTable = d.TableByID(rel.StartTableID)
	endTable = d.TableByID(rel.EndTableID)
	if startTable == nil || endTable == nil {
		return nil, nil, nil, nil, false
	}
	startField = startTable.FieldByID(rel.StartFieldID)
	endField = endTable.FieldByID(rel.EndFieldID)
	if startField == nil || endField == nil {
		return nil, nil, nil, nil, false
	}
	return startTable, startField, endTable, endField, true
}
