package dbml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tordrt/erdschema/internal/errors"
	"github.com/tordrt/erdschema/internal/schema"
)

// refCardinality maps DBML relationship operators to cardinality tags
var refCardinality = map[string]string{
	">":  schema.ManyToOne,
	"<":  schema.OneToMany,
	"-":  schema.OneToOne,
	"<>": schema.ManyToMany,
}

type setting struct {
	key      string
	value    string
	refOp    string
	refTable string
	refField string
}

type parser struct {
	src     string
	toks    []token
	pos     int
	out     *schema.Schema
	aliases map[string]string
}

// Parse reads DBML from r
func Parse(r io.Reader) (*schema.Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInput, "failed to read dbml")
	}
	return ParseString(string(data))
}

// ParseString reads DBML from a string
func ParseString(src string) (*schema.Schema, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{
		src:     src,
		toks:    toks,
		out:     &schema.Schema{},
		aliases: make(map[string]string),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.out, nil
}

// LoadFile reads a .dbml file
func LoadFile(path string) (*schema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInput, "failed to open dbml file")
	}
	defer func() { _ = f.Close() }()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return s, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tEOF {
		p.pos++
	}
	return t
}

// peekPast returns the first token after any newlines, starting offset tokens ahead
func (p *parser) peekPast(offset int) token {
	i := p.pos + offset
	for i < len(p.toks) && p.toks[i].kind == tNewline {
		i++
	}
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) skipNewlines() {
	for p.peek().kind == tNewline {
		p.pos++
	}
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tPunct && t.text == s
}

func (p *parser) expectPunct(s string) error {
	t := p.next()
	if t.kind != tPunct || t.text != s {
		return p.errorf(t, "expected %q, found %s", s, describe(t))
	}
	return nil
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrTypeInput, "dbml:%d: %s", t.line, fmt.Sprintf(format, args...))
}

func describe(t token) string {
	switch t.kind {
	case tEOF:
		return "end of input"
	case tNewline:
		return "end of line"
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

func (p *parser) parse() error {
	for {
		p.skipNewlines()
		t := p.peek()
		if t.kind == tEOF {
			break
		}
		if t.kind != tIdent {
			return p.errorf(t, "unexpected %s", describe(t))
		}

		var err error
		switch strings.ToLower(t.text) {
		case "table":
			err = p.parseTable()
		case "ref":
			err = p.parseRef()
		case "project":
			err = p.parseProject()
		default:
			err = p.skipDefinition()
		}
		if err != nil {
			return err
		}
	}

	for i := range p.out.Relationships {
		rel := &p.out.Relationships[i]
		if name, ok := p.aliases[rel.SourceTable]; ok {
			rel.SourceTable = name
		}
		if name, ok := p.aliases[rel.TargetTable]; ok {
			rel.TargetTable = name
		}
	}
	return nil
}

// parseName reads a plain or double-quoted name
func (p *parser) parseName() (string, error) {
	t := p.next()
	if t.kind != tIdent && t.kind != tQuoted {
		return "", p.errorf(t, "expected a name, found %s", describe(t))
	}
	return t.text, nil
}

// parseQualifiedName reads name or schema.name and returns the last part
func (p *parser) parseQualifiedName() (string, error) {
	name, err := p.parseName()
	if err != nil {
		return "", err
	}
	for p.isPunct(".") {
		p.next()
		if name, err = p.parseName(); err != nil {
			return "", err
		}
	}
	return name, nil
}

func (p *parser) parseProject() error {
	p.next()
	if t := p.peek(); t.kind == tIdent || t.kind == tQuoted {
		p.out.Title = t.text
		p.next()
	}
	p.skipNewlines()
	if !p.isPunct("{") {
		return p.errorf(p.peek(), "expected project body")
	}
	return p.skipBlock()
}

// skipDefinition skips an unsupported top-level definition and its block, if any
func (p *parser) skipDefinition() error {
	for {
		t := p.peek()
		switch {
		case t.kind == tEOF || t.kind == tNewline:
			return nil
		case t.kind == tPunct && t.text == "{":
			return p.skipBlock()
		default:
			p.next()
		}
	}
}

func (p *parser) skipBlock() error {
	open := p.next()
	depth := 1
	for depth > 0 {
		t := p.next()
		switch {
		case t.kind == tEOF:
			return p.errorf(open, "unterminated block")
		case t.kind == tPunct && t.text == "{":
			depth++
		case t.kind == tPunct && t.text == "}":
			depth--
		}
	}
	return nil
}

func (p *parser) parseTable() error {
	p.next()

	name, err := p.parseQualifiedName()
	if err != nil {
		return err
	}
	table := schema.Table{Name: name}

	if t := p.peek(); t.kind == tIdent && strings.EqualFold(t.text, "as") {
		p.next()
		alias, err := p.parseName()
		if err != nil {
			return err
		}
		p.aliases[alias] = name
	}

	if p.isPunct("[") {
		settings, err := p.parseSettings()
		if err != nil {
			return err
		}
		for _, s := range settings {
			if s.key == "note" {
				table.Comment = s.value
			}
		}
	}

	p.skipNewlines()
	if err := p.expectPunct("{"); err != nil {
		return err
	}

	for {
		p.skipNewlines()
		t := p.peek()
		switch {
		case t.kind == tEOF:
			return p.errorf(t, "unterminated table %q", name)
		case t.kind == tPunct && t.text == "}":
			p.next()
			p.out.Tables = append(p.out.Tables, table)
			return nil
		case t.kind == tIdent && strings.EqualFold(t.text, "indexes") && isBlockOpen(p.peekPast(1)):
			if err := p.parseIndexes(&table); err != nil {
				return err
			}
		case t.kind == tIdent && strings.EqualFold(t.text, "note") && isNoteStart(p.peekPast(1)):
			note, err := p.parseNote()
			if err != nil {
				return err
			}
			table.Comment = note
		default:
			if err := p.parseField(&table); err != nil {
				return err
			}
		}
	}
}

func isBlockOpen(t token) bool {
	return t.kind == tPunct && t.text == "{"
}

func isNoteStart(t token) bool {
	return t.kind == tPunct && (t.text == ":" || t.text == "{")
}

func (p *parser) parseNote() (string, error) {
	p.next()
	if p.isPunct(":") {
		p.next()
		t := p.next()
		if t.kind != tString {
			return "", p.errorf(t, "expected note text, found %s", describe(t))
		}
		return t.text, nil
	}

	p.next()
	p.skipNewlines()
	t := p.next()
	if t.kind != tString {
		return "", p.errorf(t, "expected note text, found %s", describe(t))
	}
	p.skipNewlines()
	return t.text, p.expectPunct("}")
}

func (p *parser) parseField(table *schema.Table) error {
	name, err := p.parseName()
	if err != nil {
		return err
	}
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	field := schema.Field{Name: name, Type: typ}

	if p.isPunct("[") {
		settings, err := p.parseSettings()
		if err != nil {
			return err
		}
		for _, s := range settings {
			switch s.key {
			case "pk", "primary key":
				field.Primary = true
			case "increment":
				field.Increment = true
			case "not null":
				field.NotNull = true
			case "unique":
				field.Unique = true
			case "default":
				field.Default = s.value
			case "note":
				field.Comment = s.value
			case "check":
				field.Check = s.value
			case "ref":
				p.out.Relationships = append(p.out.Relationships, schema.Relationship{
					SourceTable: table.Name,
					SourceField: name,
					TargetTable: s.refTable,
					TargetField: s.refField,
					Cardinality: refCardinality[s.refOp],
				})
			}
		}
	}

	if t := p.peek(); t.kind != tNewline && t.kind != tEOF && !(t.kind == tPunct && t.text == "}") {
		return p.errorf(t, "unexpected %s after field %q", describe(t), name)
	}

	table.Fields = append(table.Fields, field)
	return nil
}

// parseType returns the type text as written, including parameters and array suffixes
func (p *parser) parseType() (string, error) {
	t := p.next()
	switch t.kind {
	case tQuoted:
		return t.text, nil
	case tIdent:
	default:
		return "", p.errorf(t, "expected a type, found %s", describe(t))
	}

	start, end := t.start, t.end
	for p.isPunct(".") && p.peekPast(1).kind == tIdent {
		p.next()
		end = p.next().end
	}
	if p.isPunct("(") {
		depth := 0
		for {
			tok := p.next()
			if tok.kind == tEOF || tok.kind == tNewline {
				return "", p.errorf(tok, "unterminated type parameters")
			}
			if tok.kind == tPunct && tok.text == "(" {
				depth++
			}
			if tok.kind == tPunct && tok.text == ")" {
				depth--
				if depth == 0 {
					end = tok.end
					break
				}
			}
		}
	}
	for p.isPunct("[") && p.toks[p.pos+1].kind == tPunct && p.toks[p.pos+1].text == "]" {
		p.next()
		end = p.next().end
	}
	return p.src[start:end], nil
}

func (p *parser) parseSettings() ([]setting, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}

	var settings []setting
	for {
		p.skipNewlines()
		if p.isPunct("]") {
			p.next()
			return settings, nil
		}

		var words []string
		for p.peek().kind == tIdent {
			words = append(words, strings.ToLower(p.next().text))
		}
		if len(words) == 0 {
			return nil, p.errorf(p.peek(), "expected a setting, found %s", describe(p.peek()))
		}
		s := setting{key: strings.Join(words, " ")}

		if p.isPunct(":") {
			p.next()
			var err error
			if s.key == "ref" {
				err = p.parseInlineRef(&s)
			} else {
				s.value, err = p.parseValue()
			}
			if err != nil {
				return nil, err
			}
		}
		settings = append(settings, s)

		p.skipNewlines()
		switch {
		case p.isPunct(","):
			p.next()
		case p.isPunct("]"):
		default:
			return nil, p.errorf(p.peek(), "expected ',' or ']', found %s", describe(p.peek()))
		}
	}
}

func (p *parser) parseValue() (string, error) {
	t := p.peek()
	switch {
	case t.kind == tString || t.kind == tQuoted || t.kind == tExpr || t.kind == tNumber:
		p.next()
		return t.text, nil
	case t.kind == tPunct && t.text == "-" && p.toks[p.pos+1].kind == tNumber:
		p.next()
		return "-" + p.next().text, nil
	case t.kind == tIdent:
		var words []string
		for p.peek().kind == tIdent {
			words = append(words, p.next().text)
		}
		return strings.Join(words, " "), nil
	default:
		return "", p.errorf(t, "expected a value, found %s", describe(t))
	}
}

func (p *parser) parseInlineRef(s *setting) error {
	op := p.next()
	if _, ok := refCardinality[op.text]; op.kind != tPunct || !ok {
		return p.errorf(op, "expected a relationship operator, found %s", describe(op))
	}
	table, field, err := p.parseEndpoint()
	if err != nil {
		return err
	}
	s.refOp, s.refTable, s.refField = op.text, table, field
	return nil
}

// parseEndpoint reads table.field or schema.table.field
func (p *parser) parseEndpoint() (table, field string, err error) {
	first, err := p.parseName()
	if err != nil {
		return "", "", err
	}
	parts := []string{first}
	for p.isPunct(".") {
		p.next()
		if p.isPunct("(") {
			return "", "", p.errorf(p.peek(), "composite references are not supported")
		}
		part, err := p.parseName()
		if err != nil {
			return "", "", err
		}
		parts = append(parts, part)
	}
	if len(parts) < 2 {
		return "", "", p.errorf(p.peek(), "reference %q needs a table and a field", first)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

func (p *parser) parseIndexes(table *schema.Table) error {
	p.next()
	p.skipNewlines()
	if err := p.expectPunct("{"); err != nil {
		return err
	}

	for {
		p.skipNewlines()
		t := p.peek()
		if t.kind == tEOF {
			return p.errorf(t, "unterminated indexes block")
		}
		if t.kind == tPunct && t.text == "}" {
			p.next()
			return nil
		}

		columns, err := p.parseIndexColumns()
		if err != nil {
			return err
		}

		idx := schema.Index{Fields: columns}
		primary := false
		if p.isPunct("[") {
			settings, err := p.parseSettings()
			if err != nil {
				return err
			}
			for _, s := range settings {
				switch s.key {
				case "name":
					idx.Name = s.value
				case "unique":
					idx.Unique = true
				case "pk", "primary key":
					primary = true
				}
			}
		}

		if primary {
			markPrimary(table, columns)
			continue
		}
		if len(columns) > 0 {
			table.Indexes = append(table.Indexes, idx)
		}
	}
}

// parseIndexColumns reads a column, an expression or a parenthesised list; expressions are dropped
func (p *parser) parseIndexColumns() ([]string, error) {
	if p.peek().kind == tExpr {
		p.next()
		return nil, nil
	}
	if !p.isPunct("(") {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}

	p.next()
	var columns []string
	for {
		p.skipNewlines()
		t := p.peek()
		switch {
		case t.kind == tPunct && t.text == ")":
			p.next()
			return columns, nil
		case t.kind == tPunct && t.text == ",":
			p.next()
		case t.kind == tExpr:
			p.next()
		case t.kind == tIdent || t.kind == tQuoted:
			p.next()
			columns = append(columns, t.text)
		default:
			return nil, p.errorf(t, "unexpected %s in index columns", describe(t))
		}
	}
}

func markPrimary(table *schema.Table, columns []string) {
	for _, column := range columns {
		for i := range table.Fields {
			if table.Fields[i].Name == column {
				table.Fields[i].Primary = true
			}
		}
	}
}

func (p *parser) parseRef() error {
	p.next()

	name := ""
	if t := p.peek(); t.kind == tIdent || t.kind == tQuoted {
		name = t.text
		p.next()
	}

	p.skipNewlines()
	switch {
	case p.isPunct(":"):
		p.next()
		return p.parseRefBody(name)
	case p.isPunct("{"):
		p.next()
		for {
			p.skipNewlines()
			if p.isPunct("}") {
				p.next()
				return nil
			}
			if p.peek().kind == tEOF {
				return p.errorf(p.peek(), "unterminated ref block")
			}
			if err := p.parseRefBody(name); err != nil {
				return err
			}
		}
	default:
		return p.errorf(p.peek(), "expected ':' or '{' after Ref, found %s", describe(p.peek()))
	}
}

func (p *parser) parseRefBody(name string) error {
	sourceTable, sourceField, err := p.parseEndpoint()
	if err != nil {
		return err
	}
	op := p.next()
	cardinality, ok := refCardinality[op.text]
	if op.kind != tPunct || !ok {
		return p.errorf(op, "expected a relationship operator, found %s", describe(op))
	}
	targetTable, targetField, err := p.parseEndpoint()
	if err != nil {
		return err
	}

	rel := schema.Relationship{
		Name:        name,
		SourceTable: sourceTable,
		SourceField: sourceField,
		TargetTable: targetTable,
		TargetField: targetField,
		Cardinality: cardinality,
	}

	if p.isPunct("[") {
		settings, err := p.parseSettings()
		if err != nil {
			return err
		}
		for _, s := range settings {
			switch s.key {
			case "update":
				rel.UpdateConstraint = policy(s.value)
			case "delete":
				rel.DeleteConstraint = policy(s.value)
			}
		}
	}

	p.out.Relationships = append(p.out.Relationships, rel)
	return nil
}

// policy turns a DBML referential action such as "set null" into "Set null"
func policy(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return ""
	}
	return strings.ToUpper(action[:1]) + action[1:]
}
