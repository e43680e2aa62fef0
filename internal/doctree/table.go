package doctree

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Table is an affine:table block read from its flat prop keys:
// rows.<id>.order, columns.<id>.order and cells.<row>:<col>.text.
type Table struct {
	Rows    []string // Row ids by order
	Columns []string // Column ids by order
	cells   map[string]Text
}

// ReadTable parses the table props of b.
func ReadTable(b *Block) *Table {
	rowOrder := make(map[string]string)
	colOrder := make(map[string]string)
	t := &Table{cells: make(map[string]Text)}
	for _, k := range b.PropKeys() {
		switch {
		case strings.HasPrefix(k, "rows."):
			id, field := splitKey(k, "rows.")
			if field == "order" {
				rowOrder[id] = b.String(k)
			} else if _, ok := rowOrder[id]; !ok {
				rowOrder[id] = ""
			}
		case strings.HasPrefix(k, "columns."):
			id, field := splitKey(k, "columns.")
			if field == "order" {
				colOrder[id] = b.String(k)
			} else if _, ok := colOrder[id]; !ok {
				colOrder[id] = ""
			}
		case strings.HasPrefix(k, "cells."):
			id, field := splitKey(k, "cells.")
			if field == "text" {
				t.cells[id], _ = b.Text(k)
			}
		}
	}
	t.Rows = byOrder(rowOrder)
	t.Columns = byOrder(colOrder)
	return t
}

// Cell returns the text of one cell, nil when empty.
func (t *Table) Cell(row, col string) Text {
	return t.cells[row+":"+col]
}

// splitKey turns "rows.r1.order" into ("r1", "order").
func splitKey(k, prefix string) (id, field string) {
	rest := strings.TrimPrefix(k, prefix)
	i := strings.LastIndex(rest, ".")
	if i < 0 {
		return rest, ""
	}
	return rest[:i], rest[i+1:]
}

// byOrder sorts ids by their fractional order key, then by id.
func byOrder(order map[string]string) []string {
	ids := make([]string, 0, len(order))
	for id := range order {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := order[ids[i]], order[ids[j]]
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Column describes one database column.
type Column struct {
	ID   string
	Name string
	Type string
}

// DatabaseRow holds one rendered cell per column.
type DatabaseRow struct {
	ID    string
	Cells []string
}

// Database is an affine:database block with its rows resolved from the
// child blocks.
type Database struct {
	Title    string
	HasTitle bool
	Columns  []Column // Declared columns only
	Rows     []DatabaseRow
}

var titleColumn = Column{Name: "Title", Type: "title"}

// Header returns the columns a rendered table shows: the declared ones, or a
// single title column when none are declared.
func (db *Database) Header() []Column {
	if len(db.Columns) == 0 {
		return []Column{titleColumn}
	}
	return db.Columns
}

// ReadDatabase parses the columns and cells of b. The title column shows the
// row block's text.
func ReadDatabase(d *Document, b *Block) *Database {
	db := &Database{}
	if t, ok := b.Text("title"); ok {
		db.Title, db.HasTitle = t.Plain(), true
	}

	options := make(map[string]map[string]string)
	cols, _ := b.Value("columns").([]any)
	for _, c := range cols {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		col := Column{}
		col.ID, _ = m["id"].(string)
		col.Name, _ = m["name"].(string)
		col.Type, _ = m["type"].(string)
		if col.ID == "" {
			continue
		}
		db.Columns = append(db.Columns, col)
		options[col.ID] = selectOptions(m["data"])
	}

	cells, _ := b.Value("cells").(map[string]any)
	for _, row := range d.Children(b.ID) {
		r := DatabaseRow{ID: row.ID}
		rowCells, _ := cells[row.ID].(map[string]any)
		for _, col := range db.Header() {
			if col.Type == "title" {
				t, _ := row.Text("text")
				r.Cells = append(r.Cells, t.Plain())
				continue
			}
			var v any
			if cell, ok := rowCells[col.ID].(map[string]any); ok {
				v = cell["value"]
			}
			r.Cells = append(r.Cells, cellString(v, options[col.ID]))
		}
		db.Rows = append(db.Rows, r)
	}
	return db
}

func selectOptions(data any) map[string]string {
	m, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	opts, _ := m["options"].([]any)
	out := make(map[string]string, len(opts))
	for _, o := range opts {
		om, ok := o.(map[string]any)
		if !ok {
			continue
		}
		id, _ := om["id"].(string)
		val, _ := om["value"].(string)
		if id != "" {
			out[id] = val
		}
	}
	return out
}

func cellString(v any, options map[string]string) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		if name, ok := options[v]; ok {
			return name
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, x := range v {
			if s := cellString(x, options); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
