package schema

import (
	"fmt"
	"strings"
)

// FieldType is the logical type of an exported column.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeBoolean FieldType = "boolean"
	TypeList    FieldType = "list"
)

// Field captures the minimal behavior-relevant schema fields.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
}

// Contract is the ordered column contract used by the export sinks.
type Contract struct {
	Fields []Field
}

// Names returns the column names in contract order.
func (c Contract) Names() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}

// Extend returns a new contract with extra fields appended after c's fields.
func (c Contract) Extend(fields ...Field) Contract {
	out := make([]Field, 0, len(c.Fields)+len(fields))
	out = append(out, c.Fields...)
	out = append(out, fields...)
	return Contract{Fields: out}
}

// Index maps a header row to column positions and checks that every
// non-nullable field of the contract is present. Extra columns are ignored.
func (c Contract) Index(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, f := range c.Fields {
		if f.Nullable {
			continue
		}
		if _, ok := index[f.Name]; !ok {
			return nil, fmt.Errorf("missing required column %q", f.Name)
		}
	}
	return index, nil
}
