package doctree

import (
	"reflect"
	"testing"

	"github.com/dgallion1/docparse/internal/ydoc/ydoctest"
)

func TestReadTable(t *testing.T) {
	d := build(t, ydoctest.NewDoc(1).
		Block("t", "affine:table", map[string]any{
			"rows.r2.rowId":       "r2",
			"rows.r2.order":       "a1",
			"rows.r1.rowId":       "r1",
			"rows.r1.order":       "a0",
			"columns.c1.columnId": "c1",
			"columns.c1.order":    "b0",
			"columns.c2.columnId": "c2",
			"columns.c2.order":    "b1",
			"cells.r1:c1.text":    ydoctest.Plain("A"),
			"cells.r1:c2.text":    ydoctest.Plain("B"),
			"cells.r2:c2.text":    ydoctest.Plain("D"),
		}))
	b, _ := d.Lookup("t")
	tbl := ReadTable(b)

	if !reflect.DeepEqual(tbl.Rows, []string{"r1", "r2"}) {
		t.Errorf("expected rows [r1 r2], got %v", tbl.Rows)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"c1", "c2"}) {
		t.Errorf("expected columns [c1 c2], got %v", tbl.Columns)
	}
	if got := tbl.Cell("r1", "c2").Plain(); got != "B" {
		t.Errorf("expected B, got %q", got)
	}
	if got := tbl.Cell("r2", "c1"); got != nil {
		t.Errorf("expected empty cell, got %v", got)
	}
}

func TestReadDatabase(t *testing.T) {
	columns := []any{
		map[string]any{"id": "title", "name": "Name", "type": "title"},
		map[string]any{"id": "status", "name": "Status", "type": "select", "data": map[string]any{
			"options": []any{map[string]any{"id": "o1", "value": "Done"}},
		}},
		map[string]any{"id": "n", "name": "Count", "type": "number"},
	}
	cells := map[string]any{
		"row1": map[string]any{
			"status": map[string]any{"columnId": "status", "value": "o1"},
			"n":      map[string]any{"columnId": "n", "value": float64(4)},
		},
	}
	d := build(t, ydoctest.NewDoc(1).
		Block("db", "affine:database", map[string]any{
			"title":   ydoctest.Plain("Tasks"),
			"columns": columns,
			"cells":   cells,
		}, "row1", "row2").
		Block("row1", FlavourParagraph, text("First")).
		Block("row2", FlavourParagraph, text("Second")))

	b, _ := d.Lookup("db")
	db := ReadDatabase(d, b)
	if db.Title != "Tasks" {
		t.Errorf("expected title Tasks, got %q", db.Title)
	}
	if len(db.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(db.Columns))
	}
	want := []DatabaseRow{
		{ID: "row1", Cells: []string{"First", "Done", "4"}},
		{ID: "row2", Cells: []string{"Second", "", ""}},
	}
	if !reflect.DeepEqual(db.Rows, want) {
		t.Errorf("expected %v, got %v", want, db.Rows)
	}
}

func TestReadDatabase_Untitled(t *testing.T) {
	d := build(t, ydoctest.NewDoc(1).
		Block("db", "affine:database", nil, "row1").
		Block("row1", FlavourParagraph, text("Only")))

	b, _ := d.Lookup("db")
	db := ReadDatabase(d, b)
	if db.HasTitle || db.Title != "" {
		t.Errorf("expected no title, got %q", db.Title)
	}
	if len(db.Columns) != 0 {
		t.Errorf("expected no declared columns, got %v", db.Columns)
	}
	if h := db.Header(); len(h) != 1 || h[0].Type != "title" {
		t.Errorf("expected a single title header column, got %v", h)
	}
	want := []DatabaseRow{{ID: "row1", Cells: []string{"Only"}}}
	if !reflect.DeepEqual(db.Rows, want) {
		t.Errorf("expected %v, got %v", want, db.Rows)
	}
}
