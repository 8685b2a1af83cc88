package schema

// Cardinality tags accepted on a relationship
const (
	OneToOne   = "one_to_one"
	OneToMany  = "one_to_many"
	ManyToOne  = "many_to_one"
	ManyToMany = "many_to_many"
)

// Schema represents a complete logical schema as authored or introspected
type Schema struct {
	Title         string         `json:"title" yaml:"title"`
	Database      string         `json:"database,omitempty" yaml:"database,omitempty"`
	Tables        []Table        `json:"tables" yaml:"tables" validate:"dive"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty" validate:"dive"`
}

// Table represents a database table
type Table struct {
	Name    string  `json:"name" yaml:"name" validate:"required"`
	Comment string  `json:"comment,omitempty" yaml:"comment,omitempty"`
	Fields  []Field `json:"fields" yaml:"fields" validate:"dive"`
	Indexes []Index `json:"indexes,omitempty" yaml:"indexes,omitempty" validate:"dive"`
}

// Field represents a table column. Type carries base type and parameters together, e.g. VARCHAR(100).
type Field struct {
	Name      string `json:"name" yaml:"name" validate:"required"`
	Type      string `json:"type" yaml:"type" validate:"required"`
	Default   string `json:"default,omitempty" yaml:"default,omitempty"`
	Check     string `json:"check,omitempty" yaml:"check,omitempty"`
	Primary   bool   `json:"primary,omitempty" yaml:"primary,omitempty"`
	Unique    bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
	NotNull   bool   `json:"notNull,omitempty" yaml:"notNull,omitempty"`
	Increment bool   `json:"increment,omitempty" yaml:"increment,omitempty"`
	Comment   string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Index represents a database index; Fields are field names in declaration order
type Index struct {
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Fields []string `json:"fields" yaml:"fields" validate:"min=1,dive,required"`
	Unique bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Relationship represents a logical reference from one field to another, by name
type Relationship struct {
	Name             string `json:"name,omitempty" yaml:"name,omitempty"`
	SourceTable      string `json:"sourceTable" yaml:"sourceTable" validate:"required"`
	SourceField      string `json:"sourceField" yaml:"sourceField" validate:"required"`
	TargetTable      string `json:"targetTable" yaml:"targetTable" validate:"required"`
	TargetField      string `json:"targetField" yaml:"targetField" validate:"required"`
	Cardinality      string `json:"cardinality,omitempty" yaml:"cardinality,omitempty" validate:"omitempty,oneof=one_to_one one_to_many many_to_one many_to_many"`
	UpdateConstraint string `json:"updateConstraint,omitempty" yaml:"updateConstraint,omitempty"`
	DeleteConstraint string `json:"deleteConstraint,omitempty" yaml:"deleteConstraint,omitempty"`
}

// FindTable returns the table with the given name, or nil
func (s *Schema) FindTable(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// FilterTables keeps only the named tables (all if include is empty), then drops excluded ones.
// Relationships touching a removed table are dropped with it.
func (s *Schema) FilterTables(include, exclude []string) {
	if len(include) == 0 && len(exclude) == 0 {
		return
	}

	includeSet := make(map[string]bool, len(include))
	for _, name := range include {
		includeSet[name] = true
	}
	excludeSet := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excludeSet[name] = true
	}

	kept := make(map[string]bool, len(s.Tables))
	filtered := make([]Table, 0, len(s.Tables))
	for _, table := range s.Tables {
		if len(includeSet) > 0 && !includeSet[table.Name] {
			continue
		}
		if excludeSet[table.Name] {
			continue
		}
		kept[table.Name] = true
		filtered = append(filtered, table)
	}
	s.Tables = filtered

	rels := make([]Relationship, 0, len(s.Relationships))
	for _, rel := range s.Relationships {
		if kept[rel.SourceTable] && kept[rel.TargetTable] {
			rels = append(rels, rel)
		}
	}
	s.Relationships = rels
}
