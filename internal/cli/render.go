package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/bastiangx/offdict/pkg/definition"
	"github.com/charmbracelet/lipgloss"
)

var (
	wordStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	dictStyle = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#797593", Dark: "#908caa"})
	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#d7827e", Dark: "#ea9a97"})
)

// Render prints entries in a readable tree: the headword, then each
// dictionary's definition with its senses indented below it.
func Render(w io.Writer, entries []definition.Wrapper) error {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%2d. %s\n", i+1, wordStyle.Render(e.Word))
		for _, d := range e.Items {
			fmt.Fprintf(&b, "    [%s]", dictStyle.Render(d.DictName))
			if len(d.Pronunciation) > 0 {
				fmt.Fprintf(&b, " /%s/", strings.Join(d.Pronunciation, ", "))
			}
			b.WriteByte('\n')
			writeDef(&b, d, 6)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDef(b *strings.Builder, d definition.Def, indent int) {
	pad := strings.Repeat(" ", indent)
	var head []string
	if d.Type != "" {
		head = append(head, typeStyle.Render(d.Type))
	}
	for _, s := range []string{d.Title, d.Info, d.EN, d.CN, d.T1, d.T2} {
		if s != "" {
			head = append(head, s)
		}
	}
	if len(head) > 0 {
		fmt.Fprintf(b, "%s%s\n", pad, strings.Join(head, "  "))
	}
	for _, ex := range d.Examples {
		fmt.Fprintf(b, "%s  e.g. %s\n", pad, joinNonEmpty(ex.EN, ex.CN))
	}
	for _, ex := range d.Tip {
		fmt.Fprintf(b, "%s  tip: %s\n", pad, joinNonEmpty(ex.EN, ex.CN))
	}
	if len(d.Etymology) > 0 {
		fmt.Fprintf(b, "%s  from: %s\n", pad, strings.Join(d.Etymology, "; "))
	}
	if len(d.Related) > 0 {
		fmt.Fprintf(b, "%s  see: %s\n", pad, strings.Join(d.Related, ", "))
	}
	for _, sub := range d.Definitions {
		writeDef(b, sub, indent+2)
	}
	for _, sub := range d.Groups {
		writeDef(b, sub, indent+2)
	}
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " / " + b
}
