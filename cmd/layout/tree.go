package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quillvm/cellar/layout"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	inlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	packedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	cellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))
)

func typeOf(v any) reflect.Type {
	return reflect.TypeOf(v)
}

// renderTree prints a derived layout as an indented tree: the type header,
// then one line per hint, recursing into composite cell contents.
func renderTree(d *layout.Derived) string {
	var b strings.Builder
	header := fmt.Sprintf("%s  %s  root=%s", d.Type.Name, d.Packedness, d.Root)
	b.WriteString(titleStyle.Render(header))
	b.WriteByte('\n')
	renderHints(&b, d, 1)
	b.WriteString(inlineStyle.Render("fingerprint " + d.Fingerprint()))
	b.WriteByte('\n')
	return b.String()
}

func renderHints(b *strings.Builder, d *layout.Derived, depth int) {
	indent := strings.Repeat("  ", depth)
	variant := ""
	for _, h := range d.Hints {
		if h.Variant != "" && h.Variant != variant {
			variant = h.Variant
			fmt.Fprintf(b, "%s%s\n", indent, keyStyle.Render("variant "+variant))
		}
		prefix := indent
		if h.Variant != "" {
			prefix += "  "
		}

		name := fieldStyle.Render(h.Field)
		switch h.Kind {
		case layout.HintInline:
			offset := fmt.Sprintf("@%d", h.Offset)
			if h.Offset < 0 {
				offset = "@dyn"
			}
			fmt.Fprintf(b, "%s%s %s %s\n", prefix, name,
				packedStyle.Render("inline"), inlineStyle.Render(offset))
		case layout.HintCell:
			kind := "cell"
			if h.Lazy {
				kind = "lazy cell"
			}
			fmt.Fprintf(b, "%s%s %s %s\n", prefix, name,
				cellStyle.Render(kind), keyStyle.Render(h.Key.String()))
			if h.Lazy {
				continue
			}
			cd, err := d.CellLayout(h)
			if err != nil || len(cd.Hints) == 0 {
				continue
			}
			renderHints(b, cd, depth+1)
		}
	}
}
