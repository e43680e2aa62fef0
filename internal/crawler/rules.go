package crawler

import (
	"strings"

	"github.com/dgallion1/docparse/internal/doctree"
	"github.com/dgallion1/docparse/internal/htmltext"
)

// Rule fills the flavour specific fields of a record.
type Rule func(d *doctree.Document, b *doctree.Block, info *BlockInfo)

var rules = map[string]Rule{
	doctree.FlavourPage:       pageRule,
	doctree.FlavourParagraph:  paragraphRule,
	doctree.FlavourList:       listRule,
	"affine:code":             codeRule,
	"affine:callout":          textRule,
	"affine:latex":            latexRule,
	"affine:image":            imageRule,
	"affine:attachment":       attachmentRule,
	"affine:bookmark":         linkCardRule,
	"affine:embed-youtube":    linkCardRule,
	"affine:embed-figma":      linkCardRule,
	"affine:embed-github":     linkCardRule,
	"affine:embed-loom":       linkCardRule,
	"affine:embed-iframe":     linkCardRule,
	"affine:embed-linked-doc": docEmbedRule,
	"affine:embed-synced-doc": docEmbedRule,
	"affine:embed-html":       htmlRule,
	"affine:database":         databaseRule,
	"affine:table":            tableRule,
}

// ruleFor returns the rule of a flavour, or the default rule for flavours
// without one.
func ruleFor(flavour string) Rule {
	if r, ok := rules[flavour]; ok {
		return r
	}
	return defaultRule
}

// defaultRule keeps whatever text and blob a block carries.
func defaultRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	textRule(nil, b, info)
	if id := b.String("sourceId"); id != "" {
		info.Blob = []string{id}
	}
}

func textRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	if t, ok := b.Text("text"); ok {
		info.Content = []string{t.Plain()}
	}
}

func pageRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	if t, ok := b.Text("title"); ok {
		info.Content = []string{t.Plain()}
	}
}

func paragraphRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	textRule(nil, b, info)
	if t := b.String("type"); t != "" && t != "text" {
		setAdditional(info, map[string]any{"type": t})
	}
}

func listRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	textRule(nil, b, info)
	extra := map[string]any{}
	if t := b.String("type"); t != "" {
		extra["type"] = t
		if t == "todo" {
			extra["checked"] = b.Bool("checked")
		}
	}
	setAdditional(info, extra)
}

func codeRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	textRule(nil, b, info)
	if l := b.String("language"); l != "" {
		setAdditional(info, map[string]any{"language": l})
	}
}

func latexRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	if b.Has("latex") {
		info.Content = []string{b.String("latex")}
	}
}

func imageRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	if c := b.String("caption"); c != "" {
		info.Content = []string{c}
	}
	if id := b.String("sourceId"); id != "" {
		info.Blob = []string{id}
	}
}

func attachmentRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	if b.Has("name") {
		info.Content = []string{b.String("name")}
	}
	if id := b.String("sourceId"); id != "" {
		info.Blob = []string{id}
	}
	if t := b.String("type"); t != "" {
		setAdditional(info, map[string]any{"type": t})
	}
}

// linkCardRule covers bookmarks and third party embeds that show a URL card.
func linkCardRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	for _, k := range []string{"title", "description", "url"} {
		if s := strings.TrimSpace(b.String(k)); s != "" {
			info.Content = append(info.Content, s)
		}
	}
	if u := b.String("url"); u != "" {
		setAdditional(info, map[string]any{"url": u})
	}
}

func docEmbedRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	if t := b.String("title"); t != "" {
		info.Content = []string{t}
	}
}

func htmlRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	if t := htmltext.Extract(b.String("html")); t != "" {
		info.Content = []string{t}
	}
}

func databaseRule(d *doctree.Document, b *doctree.Block, info *BlockInfo) {
	db := doctree.ReadDatabase(d, b)
	extra := map[string]any{}
	if db.HasTitle {
		info.Content = []string{db.Title}
		extra["title"] = db.Title
	}
	for _, row := range db.Rows {
		for _, c := range row.Cells {
			if c != "" {
				info.Content = append(info.Content, c)
			}
		}
	}
	if len(db.Columns) > 0 {
		cols := make([]map[string]any, 0, len(db.Columns))
		for _, c := range db.Columns {
			cols = append(cols, map[string]any{"id": c.ID, "name": c.Name, "type": c.Type})
		}
		extra["columns"] = cols
	}
	setAdditional(info, extra)
}

func tableRule(_ *doctree.Document, b *doctree.Block, info *BlockInfo) {
	tbl := doctree.ReadTable(b)
	var refs []doctree.Reference
	for _, r := range tbl.Rows {
		for _, c := range tbl.Columns {
			cell := tbl.Cell(r, c)
			if s := cell.Plain(); s != "" {
				info.Content = append(info.Content, s)
			}
			refs = append(refs, cell.References()...)
		}
	}
	setRefs(info, refs)
	setAdditional(info, map[string]any{"rows": len(tbl.Rows), "columns": len(tbl.Columns)})
}
