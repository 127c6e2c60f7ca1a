package table

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Style selects how Display renders rows
type Style string

const (
	StyleDebug Style = "debug" // one Row { ... } line per row
	StyleGrid  Style = "grid"  // ASCII grid
)

// ParseStyle converts a config value to a Style
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case "", StyleDebug:
		return StyleDebug, nil
	case StyleGrid:
		return StyleGrid, nil
	default:
		return "", fmt.Errorf("unknown table display style %q (supported: debug, grid)", s)
	}
}

// Header is the first line select prints for a table
func (t *Table) Header() string {
	return fmt.Sprintf("Table: <%s, %s rows, %s pages>",
		t.Name, humanize.Comma(int64(t.RowCount)), humanize.Comma(int64(t.PageCount)))
}

// Display writes the header and every occupied row to w
func (t *Table) Display(w io.Writer, style Style) error {
	if _, err := fmt.Fprintln(w, t.Header()); err != nil {
		return err
	}

	if style == StyleGrid {
		return t.displayGrid(w)
	}

	var werr error
	t.Select(func(_ int, r Row) {
		if werr == nil {
			_, werr = fmt.Fprintln(w, r.String())
		}
	})
	return werr
}

func (t *Table) displayGrid(w io.Writer) error {
	if t.RowCount == 0 {
		return nil
	}

	grid := tablewriter.NewWriter(w)
	grid.SetHeader([]string{"index", "id", "username", "email"})
	grid.SetAutoFormatHeaders(false)
	t.Select(func(index int, r Row) {
		grid.Append([]string{strconv.Itoa(index), strconv.Itoa(r.ID), r.Username, r.Email})
	})
	grid.Render()
	return nil
}
