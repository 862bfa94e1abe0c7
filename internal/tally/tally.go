// Package tally 投票计数、百分比以及按热度排序
package tally

import "sort"

// Result 一个投票的统计结果
type Result struct {
	Counts      []int     `json:"counts"`
	Percentages []float64 `json:"percentages"`
	Total       int       `json:"total"`
}

// Count 按选项下标统计票数，越界的下标忽略
func Count(options int, votes []int) Result {
	counts := make([]int, options)
	total := 0
	for _, v := range votes {
		if v < 0 || v >= options {
			continue
		}
		counts[v]++
		total++
	}
	return FromCounts(counts)
}

// FromCounts 由已聚合好的计数生成结果
func FromCounts(counts []int) Result {
	total := 0
	for _, c := range counts {
		total += c
	}
	return Result{Counts: counts, Percentages: Percentages(counts, total), Total: total}
}

// Percentages count/total*100，total 为 0 时全部为 0
func Percentages(counts []int, total int) []float64 {
	out := make([]float64, len(counts))
	if total <= 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(total) * 100
	}
	return out
}

// Entry 参与排序的帖子
type Entry struct {
	ID      uint64
	Number  int64
	Upvotes int64
}

// Order 置顶帖按 sticky 给出的顺序排在最前，其余按编号倒序；
// byPopularity 时按点赞数倒序，点赞数相同再按编号倒序。
func Order(entries []Entry, sticky []uint64, byPopularity bool) []Entry {
	pinned := make(map[uint64]int, len(sticky))
	for i, id := range sticky {
		if _, ok := pinned[id]; !ok {
			pinned[id] = i
		}
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		pi, iPinned := pinned[out[i].ID]
		pj, jPinned := pinned[out[j].ID]
		switch {
		case iPinned && jPinned:
			return pi < pj
		case iPinned != jPinned:
			return iPinned
		}
		if byPopularity && out[i].Upvotes != out[j].Upvotes {
			return out[i].Upvotes > out[j].Upvotes
		}
		return out[i].Number > out[j].Number
	})
	return out
}
