// Package mention 从评论正文中提取 @提及 并解析为用户 ID
package mention

import (
	"regexp"
	"strings"
)

// @ 后跟一个或多个以单个空格分隔的词
var pattern = regexp.MustCompile(`@([\p{L}\p{N}_]+(?: [\p{L}\p{N}_]+)*)`)

// Candidate 可被提及的用户
type Candidate struct {
	ID          uint64
	DisplayName string
}

// Spans 返回正文中所有 @ 之后贪婪匹配到的片段
func Spans(text string) []string {
	if !strings.Contains(text, "@") {
		return nil
	}
	matches := pattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// Extract 解析正文中的提及，返回去重后的用户 ID。
// 贪婪片段按最长词前缀与显示名做大小写无关的完全匹配，同名时取第一个候选。
func Extract(text string, users []Candidate) []uint64 {
	spans := Spans(text)
	if len(spans) == 0 || len(users) == 0 {
		return []uint64{}
	}

	byName := make(map[string]uint64, len(users))
	for _, u := range users {
		key := strings.ToLower(strings.TrimSpace(u.DisplayName))
		if key == "" {
			continue
		}
		if _, ok := byName[key]; !ok {
			byName[key] = u.ID
		}
	}

	seen := make(map[uint64]struct{})
	out := make([]uint64, 0, len(spans))
	for _, span := range spans {
		id, ok := resolve(span, byName)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func resolve(span string, byName map[string]uint64) (uint64, bool) {
	words := strings.Split(span, " ")
	for n := len(words); n > 0; n-- {
		if id, ok := byName[strings.ToLower(strings.Join(words[:n], " "))]; ok {
			return id, true
		}
	}
	return 0, false
}
