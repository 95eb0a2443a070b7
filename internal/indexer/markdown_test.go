package indexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownRenderer_Render(t *testing.T) {
	r := NewMarkdownRenderer()

	got := r.Render([]byte("# Projetos\n\nUm app de **finanças** com [Go](https://go.dev).\n\n- API REST\n- Worker\n"))

	assert.Equal(t, "Projetos\n\nUm app de finanças com Go.\n\n- API REST\n- Worker", got)
}

func TestMarkdownRenderer_CodeAndHTML(t *testing.T) {
	r := NewMarkdownRenderer()

	got := r.Render([]byte("Intro\n\n```go\nfmt.Println(\"hi\")\n```\n\n<div>hidden</div>\n"))

	assert.Contains(t, got, "Intro")
	assert.Contains(t, got, `fmt.Println("hi")`)
	assert.NotContains(t, got, "```")
	assert.NotContains(t, got, "hidden")
}

func TestMarkdownRenderer_Table(t *testing.T) {
	r := NewMarkdownRenderer()

	got := r.Render([]byte("| Projeto | Stack |\n|---|---|\n| rag | Go |\n"))

	lines := strings.Split(got, "\n")
	assert.Equal(t, []string{"Projeto | Stack", "rag | Go"}, lines)
}

func TestMarkdownRenderer_Empty(t *testing.T) {
	assert.Equal(t, "", NewMarkdownRenderer().Render(nil))
}
