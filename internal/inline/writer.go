package inline

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HTMLOptions configure WriteHTML. LineHeight must match the line height
// the hit regions were computed with, or their scroll offsets drift.
type HTMLOptions struct {
	Prefix     string
	LineHeight int
}

const preStyle = "background-color:#E4E4E4;font-family:Courier, monospace;color:black;" +
	"font-size:10px;line-height:%dpx;padding:20px;max-height:80vh;overflow:auto"

// WriteHTML writes tokens as a <pre> block. Span elements get the id
// prefix+anchor so they can be joined with thumbnail hit regions.
func WriteHTML(w io.Writer, tokens []Token, opts HTMLOptions) error {
	if opts.LineHeight <= 0 {
		return fmt.Errorf("invalid line height %d", opts.LineHeight)
	}
	prefix := opts.Prefix
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<pre id="%s" style="%s">`, html.EscapeString(prefix), fmt.Sprintf(preStyle, opts.LineHeight))
	for _, tok := range tokens {
		switch tok.Kind {
		case LineBreak:
			bw.WriteString("<br>")
		case Text:
			bw.WriteString(html.EscapeString(tok.Text))
		case Span:
			fmt.Fprintf(bw, `<span id="%s%d" style="background-color:%s">%s</span>`,
				html.EscapeString(prefix), tok.ID, html.EscapeString(tok.Color), html.EscapeString(tok.Text))
		}
	}
	bw.WriteString("</pre>\n")
	return bw.Flush()
}

// WriteANSI writes tokens as terminal text with span backgrounds. The color
// profile follows w: plain files and pipes receive uncolored text.
func WriteANSI(w io.Writer, tokens []Token) error {
	r := lipgloss.NewRenderer(w)
	bw := bufio.NewWriter(w)
	for _, tok := range tokens {
		switch tok.Kind {
		case LineBreak:
			bw.WriteString("\n")
		case Text:
			bw.WriteString(tok.Text)
		case Span:
			style := r.NewStyle().
				Background(lipgloss.Color(tok.Color)).
				Foreground(lipgloss.Color("#000000"))
			// Styles render blocks; color each line on its own so spans that
			// cross newlines keep the source layout.
			lines := strings.Split(tok.Text, "\n")
			for i, line := range lines {
				if i > 0 {
					bw.WriteString("\n")
				}
				if line != "" {
					bw.WriteString(style.Render(line))
				}
			}
		}
	}
	return bw.Flush()
}
