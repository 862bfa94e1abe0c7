// Package ordering 处理排序号（volgorde）的纯计算部分：重排、发布时的连续编号、slug 生成
package ordering

import (
	"regexp"
	"sort"
	"strings"
)

// Item 一条排序记录
type Item struct {
	ID    uint64 `json:"id"`
	Index int    `json:"index"`
}

// Renumber 按 (Index, ID) 升序排序后重新编号为 1..N，只返回编号发生变化的条目。
// 对结果再次调用不会产生任何变化。
func Renumber(items []Item) []Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Index != sorted[j].Index {
			return sorted[i].Index < sorted[j].Index
		}
		return sorted[i].ID < sorted[j].ID
	})

	var changed []Item
	for i, it := range sorted {
		want := i + 1
		if it.Index != want {
			changed = append(changed, Item{ID: it.ID, Index: want})
		}
	}
	return changed
}

// Apply 把变更合并回原列表，返回新列表（原列表不变）
func Apply(items []Item, changes []Item) []Item {
	idx := make(map[uint64]int, len(changes))
	for _, c := range changes {
		idx[c.ID] = c.Index
	}
	out := make([]Item, len(items))
	for i, it := range items {
		if v, ok := idx[it.ID]; ok {
			it.Index = v
		}
		out[i] = it
	}
	return out
}

// Dedupe 同一 ID 出现多次时以最后一次为准，保留首次出现的位置
func Dedupe(moves []Item) []Item {
	pos := make(map[uint64]int, len(moves))
	out := make([]Item, 0, len(moves))
	for _, m := range moves {
		if i, ok := pos[m.ID]; ok {
			out[i] = m
			continue
		}
		pos[m.ID] = len(out)
		out = append(out, m)
	}
	return out
}

const maxSlugLen = 50

var (
	slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpace = regexp.MustCompile(`\s+`)
)

// Slugify 小写，去掉 [a-z0-9\s-] 以外的字符，空白折叠为单个 "-"，截断到 50 个字符
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}
