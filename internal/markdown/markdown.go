// Package markdown renders task descriptions for the terminal.
package markdown

import (
	"strings"
	"sync"

	internalstrings "github.com/amonks/tasks/internal/strings"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

type renderer interface {
	Render(string) (string, error)
}

var (
	rendererMu sync.Mutex
	renderers  = map[int]renderer{}
)

// Render formats markdown text wrapped to width and indented by indent
// spaces. If the markdown renderer fails, the text is word-wrapped as is.
// Blank input renders as "".
func Render(width, indentBy int, input string) string {
	value := internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(input))
	if internalstrings.IsBlank(value) {
		return ""
	}
	if indentBy < 0 {
		indentBy = 0
	}
	renderWidth := max(width-indentBy, 1)

	rendered, ok := safeRender(renderWidth, value)
	if !ok {
		rendered = wordwrap.String(value, renderWidth)
	}
	rendered = strings.TrimLeft(internalstrings.TrimTrailingNewlines(rendered), "\n")
	if internalstrings.IsBlank(rendered) {
		return ""
	}
	if indentBy == 0 {
		return rendered
	}
	return indent.String(rendered, uint(indentBy))
}

func safeRender(width int, value string) (rendered string, ok bool) {
	r := markdownRenderer(width)
	if r == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			rendered, ok = "", false
		}
	}()
	formatted, err := r.Render(value)
	if err != nil {
		return "", false
	}
	return formatted, true
}

func markdownRenderer(width int) renderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if cached, ok := renderers[width]; ok {
		return cached
	}
	style := styles.ASCIIStyleConfig
	style.Item.BlockPrefix = "- "
	style.ImageText.Format = "Image: {{.text}} ->"
	style.Document.Margin = nil
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[width] = created
	return created
}
