package indexer

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownRenderer flattens markdown into plain text for chunking: headings, paragraphs
// and list items each start on a new line, table rows are rendered as "a | b", and
// markup such as emphasis, links and fences is dropped.
type MarkdownRenderer struct {
	parser goldmark.Markdown
}

// NewMarkdownRenderer creates a renderer with GFM tables enabled.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		),
	}
}

// Render returns the plain-text form of content.
func (m *MarkdownRenderer) Render(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	doc := m.parser.Parser().Parse(text.NewReader(content))
	var b strings.Builder

	newBlock := func(blank bool) {
		s := b.String()
		if s == "" {
			return
		}
		if blank {
			if !strings.HasSuffix(s, "\n\n") {
				if strings.HasSuffix(s, "\n") {
					b.WriteString("\n")
				} else {
					b.WriteString("\n\n")
				}
			}
			return
		}
		if !strings.HasSuffix(s, "\n") {
			b.WriteString("\n")
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			newBlock(true)
			b.WriteString(extractTextFromNode(node, content))
			b.WriteString("\n")
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph:
			if _, inItem := node.Parent().(*ast.ListItem); !inItem {
				newBlock(true)
			}
			return ast.WalkContinue, nil

		case *ast.TextBlock:
			return ast.WalkContinue, nil

		case *ast.List:
			newBlock(true)
			return ast.WalkContinue, nil

		case *ast.ListItem:
			newBlock(false)
			b.WriteString("- ")
			return ast.WalkContinue, nil

		case *ast.Text:
			b.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil

		case *ast.String:
			b.Write(node.Value)
			return ast.WalkContinue, nil

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			newBlock(true)
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				b.Write(line.Value(content))
			}
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil

		case *ast.ThematicBreak:
			newBlock(true)
			return ast.WalkContinue, nil
		}

		kindName := n.Kind().String()
		switch {
		case kindName == "TableRow" || kindName == "TableHeader":
			newBlock(false)
			b.WriteString(extractTableRowText(n, content))
			b.WriteString("\n")
			return ast.WalkSkipChildren, nil
		case kindName == "Table":
			newBlock(true)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// extractTextFromNode extracts text content from a node and its children.
func extractTextFromNode(n ast.Node, content []byte) string {
	var textBuilder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			textBuilder.Write(v.Segment.Value(content))
		case *ast.String:
			textBuilder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(textBuilder.String())
}

// extractTableRowText extracts text from a table row, formatting cells with pipe separators.
func extractTableRowText(row ast.Node, content []byte) string {
	var rowBuilder strings.Builder
	cellCount := 0

	_ = ast.Walk(row, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind().String() == "TableCell" {
			if cellCount > 0 {
				rowBuilder.WriteString(" | ")
			}
			rowBuilder.WriteString(extractTextFromNode(node, content))
			cellCount++
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return rowBuilder.String()
}
