package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical column type names.
const (
	TypeInt      = "Int"
	TypeString   = "String"
	TypeBoolean  = "Boolean"
	TypeDateTime = "DateTime"

	// TypeUnknown is the type of a column whose initializer is not a call.
	TypeUnknown = "unknown"
)

// constructors maps column constructors to canonical types.
var constructors = map[string]string{
	"serial":    TypeInt,
	"text":      TypeString,
	"boolean":   TypeBoolean,
	"varchar":   TypeString,
	"integer":   TypeInt,
	"timestamp": TypeDateTime,
}

// emitted is the constructor written back for a canonical type.
var emitted = map[string]string{
	TypeInt:      "integer",
	TypeString:   "text",
	TypeBoolean:  "boolean",
	TypeDateTime: "timestamp",
}

// TypeOf returns the column type for a column constructor name. Unknown
// constructors are returned unchanged.
func TypeOf(ctor string) string {
	if t, ok := constructors[ctor]; ok {
		return t
	}
	return ctor
}

// IsCanonical reports whether typ is one of the canonical type names.
func IsCanonical(typ string) bool {
	_, ok := emitted[typ]
	return ok
}

// Constructor returns the constructor emitted for a canonical type.
func Constructor(typ string) (string, bool) {
	ctor, ok := emitted[typ]
	return ctor, ok
}

// DefaultKind is the literal kind of a column default.
type DefaultKind int

// Default kinds.
const (
	DefaultString DefaultKind = iota
	DefaultNumber
	DefaultBool
	DefaultNull
	DefaultExpr
)

var defaultKindNames = [...]string{
	DefaultString: "string",
	DefaultNumber: "number",
	DefaultBool:   "bool",
	DefaultNull:   "null",
	DefaultExpr:   "expr",
}

// String returns the name of the kind.
func (k DefaultKind) String() string {
	if int(k) < len(defaultKindNames) {
		return defaultKindNames[k]
	}
	return fmt.Sprintf("DefaultKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k DefaultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DefaultKind) UnmarshalText(text []byte) error {
	for i, name := range defaultKindNames {
		if name == string(text) {
			*k = DefaultKind(i)
			return nil
		}
	}
	return fmt.Errorf("schemaflow: unknown default kind %q", text)
}

// DefaultValue is a column default. Value is the source text of the
// default with surrounding quotes stripped.
type DefaultValue struct {
	Kind  DefaultKind `json:"kind" yaml:"kind"`
	Value string      `json:"value" yaml:"value"`
}

// ParseDefault classifies the source text of a default expression.
func ParseDefault(text string) *DefaultValue {
	text = strings.TrimSpace(text)
	switch {
	case len(text) >= 2 && isQuote(text[0]) && text[len(text)-1] == text[0]:
		if v, err := strconv.Unquote(text); err == nil {
			return &DefaultValue{Kind: DefaultString, Value: v}
		}
		return &DefaultValue{Kind: DefaultString, Value: text[1 : len(text)-1]}
	case text == "true" || text == "false":
		return &DefaultValue{Kind: DefaultBool, Value: text}
	case text == "null":
		return &DefaultValue{Kind: DefaultNull, Value: text}
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return &DefaultValue{Kind: DefaultNumber, Value: text}
	}
	return &DefaultValue{Kind: DefaultExpr, Value: text}
}

// Literal renders the default back as source text.
func (d *DefaultValue) Literal() string {
	if d.Kind == DefaultString {
		return strconv.Quote(d.Value)
	}
	return d.Value
}

func isQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`'
}

// Column is a table column. Name is the property key in the source;
// DBName is the database column name given to the constructor, if any.
// Enum is the name of the pgEnum the constructor refers to.
type Column struct {
	Name       string        `json:"name" yaml:"name"`
	DBName     string        `json:"db_name,omitempty" yaml:"db_name,omitempty"`
	Type       string        `json:"type" yaml:"type"`
	Enum       string        `json:"enum,omitempty" yaml:"enum,omitempty"`
	PrimaryKey bool          `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Nullable   bool          `json:"nullable" yaml:"nullable"`
	Unique     bool          `json:"unique,omitempty" yaml:"unique,omitempty"`
	Default    *DefaultValue `json:"default,omitempty" yaml:"default,omitempty"`
}

// SQLName returns the database column name, which defaults to the
// property key.
func (c *Column) SQLName() string {
	if c.DBName != "" {
		return c.DBName
	}
	return c.Name
}

// Definition returns the type followed by the qualifier suffixes in fixed
// order: .primaryKey(), .notNull(), .unique(), .default(v).
func (c *Column) Definition() string {
	var sb strings.Builder
	sb.WriteString(c.Type)
	if c.PrimaryKey {
		sb.WriteString(".primaryKey()")
	}
	if !c.Nullable {
		sb.WriteString(".notNull()")
	}
	if c.Unique {
		sb.WriteString(".unique()")
	}
	if c.Default != nil {
		sb.WriteString(".default(")
		sb.WriteString(c.Default.Literal())
		sb.WriteString(")")
	}
	return sb.String()
}

// Display returns the diagram display string "<name> <definition>".
func (c *Column) Display() string {
	return c.Name + " " + c.Definition()
}

// SplitDisplay splits a display string into the column name and its
// definition. The name is the leading identifier; the definition is what
// follows the first whitespace run after it. ok is false when the string
// does not start with an identifier followed by whitespace.
func SplitDisplay(display string) (name, definition string, ok bool) {
	s := strings.TrimLeft(display, " \t")
	i := 0
	for i < len(s) && isIdentByte(s[i], i == 0) {
		i++
	}
	if i == 0 || i == len(s) || (s[i] != ' ' && s[i] != '\t') {
		return "", "", false
	}
	name = s[:i]
	definition = strings.TrimSpace(s[i:])
	if definition == "" {
		return "", "", false
	}
	return name, definition, true
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_' || c == '$', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', c >= 0x80:
		return true
	case '0' <= c && c <= '9':
		return !first
	}
	return false
}

// Table is a declared table.
type Table struct {
	Name    string    `json:"name" yaml:"name"`
	Columns []*Column `json:"columns" yaml:"columns"`
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// EnumType is a declared enum.
type EnumType struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// RelationKind is the cardinality of a relation.
type RelationKind int

// Relation kinds. Extraction only infers OneToMany.
const (
	OneToMany RelationKind = iota
	OneToOne
)

// String returns the name of the kind.
func (k RelationKind) String() string {
	if k == OneToOne {
		return "one-to-one"
	}
	return "one-to-many"
}

// MarshalText implements encoding.TextMarshaler.
func (k RelationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *RelationKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "one-to-many":
		*k = OneToMany
	case "one-to-one":
		*k = OneToOne
	default:
		return fmt.Errorf("schemaflow: unknown relation kind %q", text)
	}
	return nil
}

// Relation is a foreign-key reference from one table column to another.
type Relation struct {
	FromTable  string       `json:"from_table" yaml:"from_table"`
	FromColumn string       `json:"from_column" yaml:"from_column"`
	ToTable    string       `json:"to_table" yaml:"to_table"`
	ToColumn   string       `json:"to_column" yaml:"to_column"`
	Kind       RelationKind `json:"kind" yaml:"kind"`
}

// Schema is the extracted model of a source file.
type Schema struct {
	Tables    []*Table    `json:"tables" yaml:"tables"`
	Relations []*Relation `json:"relations" yaml:"relations"`
	Enums     []*EnumType `json:"enums" yaml:"enums"`
}

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Enum returns the enum with the given name, or nil.
func (s *Schema) Enum(name string) *EnumType {
	for _, e := range s.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// HasRelation reports whether any relation starts or ends at the table.
func (s *Schema) HasRelation(table string) bool {
	for _, r := range s.Relations {
		if r.FromTable == table || r.ToTable == table {
			return true
		}
	}
	return false
}

// IsForeignKey reports whether the column is the source of a relation.
func (s *Schema) IsForeignKey(table, column string) bool {
	for _, r := range s.Relations {
		if r.FromTable == table && r.FromColumn == column {
			return true
		}
	}
	return false
}
