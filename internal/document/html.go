package document

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skipElements 不提取文本的元素
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"code":     true,
	"pre":      true,
}

// Page 一个已加载的 HTML 页面，可以枚举其文本节点并在
// 翻译完成后序列化回 HTML
type Page struct {
	doc *goquery.Document
}

// LoadPage 从 reader 解析 HTML 页面
func LoadPage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Page{doc: doc}, nil
}

// EachTextNode 对页面内每个可见文本节点调用 fn。
// origin 是底层的 *html.Node，交给渲染方写回译文。
func (p *Page) EachTextNode(fn func(text string, origin *html.Node)) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if strings.TrimSpace(n.Data) != "" {
				fn(n.Data, n)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, root := range p.doc.Nodes {
		walk(root)
	}
}

// Html 序列化当前页面
func (p *Page) Html() (string, error) {
	return p.doc.Html()
}

// Title 页面标题，作为翻译请求的文档上下文
func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// NodeRenderer 把译文写回 HTML 文本节点。
// mode 为 "bilingual" 时保留原文并追加译文，否则直接替换。
type NodeRenderer struct {
	mode string
}

// NewNodeRenderer 创建节点渲染器
func NewNodeRenderer(mode string) *NodeRenderer {
	return &NodeRenderer{mode: mode}
}

// Apply 将译文应用到片段来源
func (r *NodeRenderer) Apply(origin any, translated string) {
	node, ok := origin.(*html.Node)
	if !ok || translated == "" {
		return
	}

	if r.mode == "bilingual" {
		node.Data = strings.TrimRight(node.Data, " \n\t") + " / " + translated
		return
	}
	node.Data = translated
}
