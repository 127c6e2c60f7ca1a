package table

import (
	"sort"

	perrors "github.com/sambeau/felisp/pkg/felisp/errors"
)

// Catalog owns the named tables of one interpreter. Every environment
// derived from the same root shares a single catalog, so a table has exactly
// one live value no matter how many bindings refer to it.
type Catalog struct {
	tables map[string]*Table
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// Create adds a new empty table
func (c *Catalog) Create(name string) (*Table, error) {
	if _, exists := c.tables[name]; exists {
		return nil, perrors.New("TABLE-0001", map[string]any{"Name": name})
	}
	t := New(name)
	c.tables[name] = t
	return t, nil
}

// Attach adds t under its name and returns the table the catalog now owns.
// When the name is already taken, the existing table takes a copy of t's
// contents in place so every handle to it sees the new rows.
func (c *Catalog) Attach(t *Table) *Table {
	existing, ok := c.tables[t.Name]
	if !ok {
		c.tables[t.Name] = t
		return t
	}
	if existing != t {
		*existing = *t.Clone()
	}
	return existing
}

// Get looks a table up by name
func (c *Catalog) Get(name string) (*Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// Names returns the table names in sorted order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tables
func (c *Catalog) Len() int {
	return len(c.tables)
}
