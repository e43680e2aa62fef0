package markdown

import (
	"strconv"
	"strings"

	"github.com/dgallion1/docparse/internal/doctree"
	"github.com/dgallion1/docparse/internal/htmltext"
)

// Rule renders one flavour.
type Rule struct {
	Render       func(c *Context, b *doctree.Block)
	Editable     bool // Has an AI-editable variant
	OwnsChildren bool // Render handles the block's children itself
}

var registry = map[string]Rule{}

// Register installs the rule for a flavour. It must be called before any
// Render, typically from init.
func Register(flavour string, r Rule) {
	registry[flavour] = r
}

var defaultRule = Rule{Render: renderRaw}

func ruleFor(flavour string) Rule {
	if r, ok := registry[flavour]; ok {
		return r
	}
	return defaultRule
}

func init() {
	container := Rule{Render: func(*Context, *doctree.Block) {}}
	for _, f := range []string{doctree.FlavourPage, "affine:note", "affine:surface", "affine:frame"} {
		Register(f, container)
	}
	Register(doctree.FlavourParagraph, Rule{Render: renderParagraph, Editable: true})
	Register(doctree.FlavourList, Rule{Render: renderList, Editable: true, OwnsChildren: true})
	Register("affine:code", Rule{Render: renderCode, Editable: true})
	Register("affine:latex", Rule{Render: renderLatex, Editable: true})
	Register("affine:callout", Rule{Render: renderCallout, Editable: true, OwnsChildren: true})
	Register("affine:table", Rule{Render: renderTable, Editable: true})
	Register("affine:database", Rule{Render: renderDatabase, OwnsChildren: true})
	Register("affine:divider", Rule{Render: func(c *Context, _ *doctree.Block) { c.Write(false, "---") }})
	Register("affine:image", Rule{Render: renderImage})
	Register("affine:attachment", Rule{Render: renderAttachment})
	for _, f := range []string{"affine:bookmark", "affine:embed-youtube", "affine:embed-figma", "affine:embed-github", "affine:embed-loom", "affine:embed-iframe"} {
		Register(f, Rule{Render: renderLinkCard})
	}
	Register("affine:embed-linked-doc", Rule{Render: renderDocLink})
	Register("affine:embed-synced-doc", Rule{Render: renderDocLink})
	Register("affine:embed-html", Rule{Render: renderHTML})
}

// renderRaw emits the text prop without markup.
func renderRaw(c *Context, b *doctree.Block) {
	if t, ok := b.Text("text"); ok && t.Plain() != "" {
		c.Write(false, strings.Split(t.Plain(), "\n")...)
	}
}

func renderParagraph(c *Context, b *doctree.Block) {
	t, _ := b.Text("text")
	s := Inline(t)
	if strings.TrimSpace(s) == "" {
		return
	}
	lines := strings.Split(s, "\n")
	if level := doctree.HeadingLevel(b); level > 0 {
		c.Write(false, strings.Repeat("#", level)+" "+strings.Join(lines, " "))
		return
	}
	if b.String("type") == "quote" {
		for i, l := range lines {
			lines[i] = "> " + l
		}
	}
	c.Write(false, lines...)
}

func renderList(c *Context, b *doctree.Block) {
	t, _ := b.Text("text")
	lines := strings.Split(Inline(t), "\n")

	var marker string
	switch b.String("type") {
	case "numbered":
		marker = strconv.Itoa(listNumber(c.Doc, b)) + ". "
	case "todo":
		if b.Bool("checked") {
			marker = "- [x] "
		} else {
			marker = "- [ ] "
		}
	default:
		marker = "- "
	}
	pad := strings.Repeat(" ", len(marker))
	for i := range lines {
		if i == 0 {
			lines[i] = marker + lines[i]
		} else {
			lines[i] = pad + lines[i]
		}
	}
	c.Write(true, lines...)

	width := 2
	if b.String("type") == "numbered" {
		width = len(marker)
	}
	c.Nested(strings.Repeat(" ", width), func() { c.RenderChildren(b) })
}

// listNumber counts the run of numbered siblings ending at b.
func listNumber(d *doctree.Document, b *doctree.Block) int {
	parent, err := d.Parent(b.ID)
	if err != nil || parent == nil {
		return 1
	}
	n := 0
	for _, s := range d.Children(parent.ID) {
		if s.Flavour == doctree.FlavourList && s.String("type") == "numbered" {
			n++
		} else {
			n = 0
		}
		if s.ID == b.ID {
			break
		}
	}
	return max(n, 1)
}

func renderCode(c *Context, b *doctree.Block) {
	t, _ := b.Text("text")
	code := t.Plain()
	f := fence(code, 3)
	lines := []string{f + b.String("language")}
	lines = append(lines, strings.Split(code, "\n")...)
	lines = append(lines, f)
	c.Write(false, lines...)
}

func renderLatex(c *Context, b *doctree.Block) {
	lines := []string{"$$"}
	lines = append(lines, strings.Split(b.String("latex"), "\n")...)
	lines = append(lines, "$$")
	c.Write(false, lines...)
}

func renderCallout(c *Context, b *doctree.Block) {
	c.Quoted(func() {
		if t, ok := b.Text("text"); ok {
			if s := Inline(t); strings.TrimSpace(s) != "" {
				c.Write(false, strings.Split(s, "\n")...)
			}
		}
		c.RenderChildren(b)
	})
}

func renderImage(c *Context, b *doctree.Block) {
	caption := b.String("caption")
	if id := b.String("sourceId"); id != "" {
		c.Write(false, "!["+caption+"](blob://"+id+")")
	} else if caption != "" {
		c.Write(false, caption)
	}
}

func renderAttachment(c *Context, b *doctree.Block) {
	name := b.String("name")
	id := b.String("sourceId")
	switch {
	case id != "":
		if name == "" {
			name = id
		}
		c.Write(false, "["+name+"](blob://"+id+")")
	case name != "":
		c.Write(false, name)
	}
}

func renderLinkCard(c *Context, b *doctree.Block) {
	url := b.String("url")
	if url == "" {
		return
	}
	title := strings.TrimSpace(b.String("title"))
	if title == "" {
		title = url
	}
	c.Write(false, "["+title+"]("+url+")")
}

func renderDocLink(c *Context, b *doctree.Block) {
	id := b.String("pageId")
	if id == "" {
		return
	}
	title := strings.TrimSpace(b.String("title"))
	if title == "" {
		title = id
	}
	c.Write(false, "["+title+"](doc://"+id+")")
}

func renderHTML(c *Context, b *doctree.Block) {
	if t := htmltext.Extract(b.String("html")); t != "" {
		c.Write(false, strings.Split(t, "\n")...)
	}
}

func renderTable(c *Context, b *doctree.Block) {
	tbl := doctree.ReadTable(b)
	if len(tbl.Rows) == 0 || len(tbl.Columns) == 0 {
		return
	}
	rows := make([][]string, len(tbl.Rows))
	for i, r := range tbl.Rows {
		rows[i] = make([]string, len(tbl.Columns))
		for j, col := range tbl.Columns {
			rows[i][j] = cell(Inline(tbl.Cell(r, col)))
		}
	}
	c.Write(false, gfmTable(rows[0], rows[1:])...)
}

func renderDatabase(c *Context, b *doctree.Block) {
	db := doctree.ReadDatabase(c.Doc, b)
	if db.Title != "" {
		c.Write(false, "**"+strings.TrimSpace(db.Title)+"**")
	}
	cols := db.Header()
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = cell(col.Name)
	}
	body := make([][]string, len(db.Rows))
	for i, r := range db.Rows {
		body[i] = make([]string, len(r.Cells))
		for j, v := range r.Cells {
			body[i][j] = cell(v)
		}
	}
	c.Write(false, gfmTable(header, body)...)
}

func gfmTable(header []string, body [][]string) []string {
	row := func(cells []string) string {
		return "| " + strings.Join(cells, " | ") + " |"
	}
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	lines := []string{row(header), row(sep)}
	for _, r := range body {
		lines = append(lines, row(r))
	}
	return lines
}
