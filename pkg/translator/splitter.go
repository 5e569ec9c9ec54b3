package translator

import "strings"

// splitResult 把合并译文按分隔符拆分并映射回分组内的片段。
// 分段数与片段数一致时按索引映射，每个片段标记为已解决；
// 不一致时（提供商重排或吞掉了分隔符）退化为单段处理：
// 整个译文交给索引 0 的片段，其余片段保持未解决、不应用。
// 返回应用结果的片段及对应译文。
func splitResult(group *Group, translated string) []appliedSegment {
	segments := strings.Split(translated, group.separator)

	if len(segments) == len(group.Fragments) {
		applied := make([]appliedSegment, 0, len(segments))
		for i, frag := range group.Fragments {
			frag.Resolved = true
			applied = append(applied, appliedSegment{
				Fragment: frag,
				Text:     strings.TrimSpace(segments[i]),
			})
		}
		return applied
	}

	// 分段数不一致：显式的降级路径，不做重试
	first := group.Fragments[0]
	first.Resolved = true
	return []appliedSegment{{
		Fragment: first,
		Text:     strings.TrimSpace(translated),
	}}
}

// applyBatchResult 结构化批量结果的映射：按索引一一对应。
// 结果数量与片段数不一致时与平面文本路径一样降级处理。
func applyBatchResult(group *Group, results []string) []appliedSegment {
	if len(results) != len(group.Fragments) {
		return splitResult(group, strings.Join(results, group.separator))
	}

	applied := make([]appliedSegment, 0, len(results))
	for i, frag := range group.Fragments {
		frag.Resolved = true
		applied = append(applied, appliedSegment{
			Fragment: frag,
			Text:     strings.TrimSpace(results[i]),
		})
	}
	return applied
}

// appliedSegment 一个片段与映射到它的译文
type appliedSegment struct {
	Fragment *TextFragment
	Text     string
}
