package translator

import (
	"strings"

	"github.com/google/uuid"
)

// TextFragment 一段待翻译的源文本，关联到一个渲染位置
type TextFragment struct {
	ID       string
	Text     string
	Origin   any
	Resolved bool
}

// newTextFragment 创建带有新标识的文本片段
func newTextFragment(text string, origin any) *TextFragment {
	return &TextFragment{
		ID:     uuid.New().String(),
		Text:   text,
		Origin: origin,
	}
}

// GroupStatus 分组状态
type GroupStatus int

const (
	// GroupOpen 分组仍可接收片段
	GroupOpen GroupStatus = iota
	// GroupDispatched 分组已经发出翻译，不再接收片段
	GroupDispatched
	// GroupDone 分组已经结束并从活跃集合中移除
	GroupDone
)

// Group 合并为单次翻译请求的一批片段。
// 片段的插入顺序决定了译文分段映射回片段的顺序。
type Group struct {
	ID        string
	Fragments []*TextFragment
	// TranslatedText 翻译结果，成功前为空
	TranslatedText string
	Status         GroupStatus

	separator string
}

// newGroup 创建只含一个片段的新分组
func newGroup(frag *TextFragment, separator string) *Group {
	return &Group{
		ID:        uuid.New().String(),
		Fragments: []*TextFragment{frag},
		Status:    GroupOpen,
		separator: separator,
	}
}

// CombinedText 按插入顺序使用分隔符合并所有片段文本
func (g *Group) CombinedText() string {
	texts := make([]string, len(g.Fragments))
	for i, f := range g.Fragments {
		texts[i] = f.Text
	}
	return strings.Join(texts, g.separator)
}

// CombinedLen 合并文本的字符长度
func (g *Group) CombinedLen() int {
	n := 0
	for i, f := range g.Fragments {
		if i > 0 {
			n += len([]rune(g.separator))
		}
		n += len([]rune(f.Text))
	}
	return n
}

// canAccept 判断在不超过 maxSize 的前提下能否再追加一个片段。
// 空分组总是可以接收第一个片段，即使该片段自身超长。
func (g *Group) canAccept(fragLen, maxSize int) bool {
	if g.Status != GroupOpen {
		return false
	}
	if len(g.Fragments) == 0 {
		return true
	}
	return g.CombinedLen()+len([]rune(g.separator))+fragLen <= maxSize
}

// CharCount 分组内所有片段文本的字符总数（不含分隔符）
func (g *Group) CharCount() int {
	n := 0
	for _, f := range g.Fragments {
		n += len([]rune(f.Text))
	}
	return n
}
