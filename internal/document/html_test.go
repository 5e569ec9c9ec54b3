package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/net/html"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title> Sample Page </title>
  <style>body { color: red; }</style>
  <script>console.log("hidden");</script>
</head>
<body>
  <h1>Heading</h1>
  <p>First paragraph</p>
  <pre>preformatted text</pre>
  <code>inline code</code>
  <p>Second paragraph</p>
</body>
</html>`

func TestEachTextNode(t *testing.T) {
	page, err := LoadPage(strings.NewReader(samplePage))
	require.NoError(t, err)

	var texts []string
	page.EachTextNode(func(text string, origin *html.Node) {
		texts = append(texts, strings.TrimSpace(text))
		assert.NotNil(t, origin)
	})

	assert.Contains(t, texts, "Sample Page")
	assert.Contains(t, texts, "Heading")
	assert.Contains(t, texts, "First paragraph")
	assert.Contains(t, texts, "Second paragraph")

	// script/style/pre/code 的内容不进入翻译
	assert.NotContains(t, texts, `console.log("hidden");`)
	assert.NotContains(t, texts, "body { color: red; }")
	assert.NotContains(t, texts, "preformatted text")
	assert.NotContains(t, texts, "inline code")
}

func TestTitle(t *testing.T) {
	page, err := LoadPage(strings.NewReader(samplePage))
	require.NoError(t, err)

	assert.Equal(t, "Sample Page", page.Title())
}

func TestNodeRenderer(t *testing.T) {
	t.Run("Replace Mode", func(t *testing.T) {
		page, err := LoadPage(strings.NewReader("<html><body><p>Hello</p></body></html>"))
		require.NoError(t, err)

		renderer := NewNodeRenderer("replace")
		page.EachTextNode(func(text string, origin *html.Node) {
			renderer.Apply(origin, "你好")
		})

		out, err := page.Html()
		require.NoError(t, err)
		assert.Contains(t, out, "你好")
		assert.NotContains(t, out, "Hello")
	})

	t.Run("Bilingual Mode", func(t *testing.T) {
		page, err := LoadPage(strings.NewReader("<html><body><p>Hello</p></body></html>"))
		require.NoError(t, err)

		renderer := NewNodeRenderer("bilingual")
		page.EachTextNode(func(text string, origin *html.Node) {
			renderer.Apply(origin, "你好")
		})

		out, err := page.Html()
		require.NoError(t, err)
		assert.Contains(t, out, "Hello / 你好")
	})

	t.Run("Ignores Non Node Origin", func(t *testing.T) {
		renderer := NewNodeRenderer("replace")
		// 不是 *html.Node 的来源直接忽略，不应崩溃
		renderer.Apply("not a node", "text")
		renderer.Apply(nil, "text")
	})

	t.Run("Ignores Empty Translation", func(t *testing.T) {
		node := &html.Node{Type: html.TextNode, Data: "original"}
		renderer := NewNodeRenderer("replace")
		renderer.Apply(node, "")
		assert.Equal(t, "original", node.Data)
	})
}
