// Package table implements the paged in-memory row store behind Felisp's
// select and insert forms.
//
// A Table keeps its rows in fixed-size pages allocated on demand. A row at
// logical index i lives in slot i%RowsPerPage of page i/RowsPerPage. Pages are
// never removed or compacted.
package table

import (
	"fmt"

	perrors "github.com/sambeau/felisp/pkg/felisp/errors"
)

// RowsPerPage is the fixed capacity of a page
const RowsPerPage = 10

// Row is a single stored record
type Row struct {
	ID       int
	Username string
	Email    string
}

// String renders the row the way select prints it in debug style
func (r Row) String() string {
	return fmt.Sprintf("Row { id: %d, username: %q, email: %q }", r.ID, r.Username, r.Email)
}

// Page is a fixed-capacity array of optional rows. A nil slot is empty.
type Page [RowsPerPage]*Row

// Occupied returns the number of filled slots
func (p *Page) Occupied() int {
	n := 0
	for _, r := range p {
		if r != nil {
			n++
		}
	}
	return n
}

// Table is a named relation
type Table struct {
	Name      string
	RowCount  int
	PageCount int
	Pages     []*Page

	next int // logical index of the next insert, one past the highest occupied slot
}

// New creates an empty table with no pages
func New(name string) *Table {
	return &Table{Name: name}
}

// Insert appends a new row after the highest occupied slot, allocating the
// next page when that index falls beyond the last one. For a table filled
// only by Insert the index is RowCount. Duplicate ids are accepted.
func (t *Table) Insert(id int, username, email string) {
	index := t.next
	pageNum := index / RowsPerPage
	if pageNum >= len(t.Pages) {
		t.Pages = append(t.Pages, &Page{})
		t.PageCount++
	}

	row := Row{ID: id, Username: username, Email: email}
	t.Pages[pageNum][index%RowsPerPage] = &row
	t.RowCount++
	t.next = index + 1
}

// Put stores row at an explicit logical index. The index must fall inside an
// allocated page or the page right after the last one. Overwriting an
// occupied slot leaves RowCount unchanged.
func (t *Table) Put(index int, row Row) error {
	pageNum := index / RowsPerPage
	if index < 0 || pageNum > len(t.Pages) {
		return perrors.New("TABLE-0002", map[string]any{"Index": index, "Name": t.Name})
	}
	if pageNum == len(t.Pages) {
		t.Pages = append(t.Pages, &Page{})
		t.PageCount++
	}

	slot := &t.Pages[pageNum][index%RowsPerPage]
	if *slot == nil {
		t.RowCount++
	}
	stored := row
	*slot = &stored
	if index >= t.next {
		t.next = index + 1
	}
	return nil
}

// At returns a copy of the row at a logical index
func (t *Table) At(index int) (Row, bool) {
	if index < 0 {
		return Row{}, false
	}
	pageNum := index / RowsPerPage
	if pageNum >= len(t.Pages) {
		return Row{}, false
	}
	r := t.Pages[pageNum][index%RowsPerPage]
	if r == nil {
		return Row{}, false
	}
	return *r, true
}

// Select visits every occupied slot in page order, then slot order, passing
// the logical index and a copy of the row. Empty slots are skipped.
func (t *Table) Select(visit func(index int, row Row)) {
	for p, page := range t.Pages {
		for s, r := range page {
			if r != nil {
				visit(p*RowsPerPage+s, *r)
			}
		}
	}
}

// Rows returns copies of all occupied rows in select order
func (t *Table) Rows() []Row {
	rows := make([]Row, 0, t.RowCount)
	t.Select(func(_ int, r Row) {
		rows = append(rows, r)
	})
	return rows
}

// Clone returns a deep copy that shares no rows or pages with t
func (t *Table) Clone() *Table {
	c := &Table{
		Name:      t.Name,
		RowCount:  t.RowCount,
		PageCount: t.PageCount,
		Pages:     make([]*Page, len(t.Pages)),
		next:      t.next,
	}
	for i, page := range t.Pages {
		np := &Page{}
		for s, r := range page {
			if r != nil {
				row := *r
				np[s] = &row
			}
		}
		c.Pages[i] = np
	}
	return c
}

// Check verifies the structural invariants of the table
func (t *Table) Check() error {
	if t.PageCount != len(t.Pages) {
		return fmt.Errorf("table %s: page count %d does not match %d pages", t.Name, t.PageCount, len(t.Pages))
	}
	occupied := 0
	for i, page := range t.Pages {
		n := page.Occupied()
		if n == 0 {
			return fmt.Errorf("table %s: page %d is allocated but empty", t.Name, i)
		}
		occupied += n
	}
	if occupied != t.RowCount {
		return fmt.Errorf("table %s: row count %d does not match %d occupied slots", t.Name, t.RowCount, occupied)
	}
	return nil
}
