package doctree

import "strings"

// HeadingLevel returns 1 to 6 for heading paragraphs and 0 otherwise.
func HeadingLevel(b *Block) int {
	if b.Flavour != FlavourParagraph {
		return 0
	}
	t := b.String("type")
	if len(t) == 2 && t[0] == 'h' && t[1] >= '1' && t[1] <= '6' {
		return int(t[1] - '0')
	}
	return 0
}

// Title returns the text of the first non-blank heading in pre-order, else
// the root's title prop, else "".
func Title(d *Document) string {
	var title string
	d.Walk(func(b, _ *Block, _ int) bool {
		if title != "" {
			return false
		}
		if HeadingLevel(b) > 0 {
			if t, ok := b.Text("text"); ok {
				title = strings.TrimSpace(t.Plain())
			}
		}
		return title == ""
	})
	if title != "" {
		return title
	}
	if root, err := d.Root(); err == nil {
		return strings.TrimSpace(root.String("title"))
	}
	return ""
}
