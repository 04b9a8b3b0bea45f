package transform

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultTableYAML []byte

var defaultTable = mustParseTable(defaultTableYAML)

// Category is one event type and the keywords that select it.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Table is an ordered classification table. Earlier categories take precedence.
type Table struct {
	Default    string     `yaml:"default"`
	Categories []Category `yaml:"categories"`
}

// DefaultTable returns a copy of the embedded classification table.
func DefaultTable() Table {
	out := Table{Default: defaultTable.Default, Categories: make([]Category, len(defaultTable.Categories))}
	for i, c := range defaultTable.Categories {
		out.Categories[i] = Category{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

// LoadTable reads a YAML classification table from r.
func LoadTable(r io.Reader) (Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("read category table: %w", err)
	}
	return parseTable(b)
}

// LoadTableFile reads a YAML classification table from path.
func LoadTableFile(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read category table: %w", err)
	}
	return parseTable(b)
}

func parseTable(b []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Table{}, fmt.Errorf("parse category table YAML: %w", err)
	}
	if err := t.normalize(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func mustParseTable(b []byte) Table {
	t, err := parseTable(b)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) normalize() error {
	t.Default = strings.TrimSpace(t.Default)
	if t.Default == "" {
		t.Default = "Event"
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("category table has no categories")
	}
	names := make(map[string]struct{}, len(t.Categories))
	for i := range t.Categories {
		c := &t.Categories[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return fmt.Errorf("category %d: name is required", i)
		}
		key := strings.ToLower(c.Name)
		if _, dup := names[key]; dup {
			return fmt.Errorf("category %q: duplicate name", c.Name)
		}
		names[key] = struct{}{}

		kws := make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		if len(kws) == 0 {
			return fmt.Errorf("category %q: at least one keyword is required", c.Name)
		}
		c.Keywords = kws
	}
	return nil
}

// Classifier assigns an event type by keyword matching against a Table.
type Classifier struct {
	table Table
}

// NewClassifier builds a classifier over t. The table is validated and copied.
func NewClassifier(t Table) (*Classifier, error) {
	cp := Table{Default: t.Default, Categories: make([]Category, len(t.Categories))}
	for i, c := range t.Categories {
		cp.Categories[i] = Category{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	if err := cp.normalize(); err != nil {
		return nil, err
	}
	return &Classifier{table: cp}, nil
}

// DefaultClassifier classifies with the embedded table.
func DefaultClassifier() *Classifier {
	return &Classifier{table: DefaultTable()}
}

// Classify scans title, summary, then each tag. For the first field that
// matches any keyword, the earliest matching category in table order wins.
func (c *Classifier) Classify(title, summary string, tags []string) string {
	fields := make([]string, 0, 2+len(tags))
	fields = append(fields, title, summary)
	fields = append(fields, tags...)

	for _, f := range fields {
		text := strings.ToLower(f)
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, cat := range c.table.Categories {
			for _, kw := range cat.Keywords {
				if strings.Contains(text, kw) {
					return cat.Name
				}
			}
		}
	}
	return c.table.Default
}
