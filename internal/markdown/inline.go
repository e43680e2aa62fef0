package markdown

import (
	"strings"
	"unicode"

	"github.com/dgallion1/docparse/internal/doctree"
)

// Inline renders rich text runs with Markdown marks. References become
// doc:// links labelled with their text, or the doc id when the text is
// blank.
func Inline(t doctree.Text) string {
	var sb strings.Builder
	for _, r := range t {
		sb.WriteString(renderRun(r))
	}
	return sb.String()
}

func renderRun(r doctree.Run) string {
	s := r.Insert
	if ref, ok := r.Attrs["reference"].(map[string]any); ok {
		if id, _ := ref["pageId"].(string); id != "" {
			label := strings.TrimSpace(s)
			if label == "" {
				label = id
			}
			return "[" + label + "](doc://" + id + ")"
		}
	}

	lead, core, trail := splitSpace(s)
	if core == "" {
		return s
	}
	if isSet(r.Attrs, "code") {
		f := fence(core, 1)
		if strings.HasPrefix(core, "`") || strings.HasSuffix(core, "`") {
			core = " " + core + " "
		}
		core = f + core + f
	}
	if link, ok := r.Attrs["link"].(string); ok && link != "" {
		core = "[" + core + "](" + link + ")"
	}
	if isSet(r.Attrs, "bold") {
		core = "**" + core + "**"
	}
	if isSet(r.Attrs, "italic") {
		core = "_" + core + "_"
	}
	if isSet(r.Attrs, "strike") {
		core = "~~" + core + "~~"
	}
	if isSet(r.Attrs, "underline") {
		core = "<u>" + core + "</u>"
	}
	return lead + core + trail
}

func isSet(attrs map[string]any, key string) bool {
	v, _ := attrs[key].(bool)
	return v
}

// splitSpace separates leading and trailing whitespace so marks wrap only
// the visible text.
func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

// fence returns a backtick run longer than any run inside s and at least
// n long.
func fence(s string, n int) string {
	run := 0
	for _, r := range s {
		if r != '`' {
			run = 0
			continue
		}
		run++
		n = max(n, run+1)
	}
	return strings.Repeat("`", n)
}

// cell renders text for a GFM table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", "<br>")
	return strings.TrimSpace(s)
}
