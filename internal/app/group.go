package app

import (
	"sort"

	"github.com/John-Robertt/Z32/internal/domain"
)

// GroupByClockHour 把幸存者按钟点分组。
//
// - 分组按钟点升序
// - 组内 Indexes/Phrases 按排名顺序（输入已排序时即名次顺序）
func GroupByClockHour(list []domain.ScoredCandidate) []domain.ClockHourGroup {
	index := make(map[int]int, 12)
	groups := make([]domain.ClockHourGroup, 0, 12)

	for _, sc := range list {
		h := sc.Vector.ClockHour
		if gi, ok := index[h]; ok {
			groups[gi].Count++
			groups[gi].Indexes = append(groups[gi].Indexes, sc.Index)
			groups[gi].Phrases = append(groups[gi].Phrases, sc.Readable)
			continue
		}
		index[h] = len(groups)
		groups = append(groups, domain.ClockHourGroup{
			Hour:    h,
			Count:   1,
			Indexes: []int{sc.Index},
			Phrases: []string{sc.Readable},
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Hour < groups[j].Hour })
	return groups
}

// CountHours 返回落在指定钟点上的幸存者数量。
func CountHours(groups []domain.ClockHourGroup, hours ...int) int {
	want := make(map[int]struct{}, len(hours))
	for _, h := range hours {
		want[h] = struct{}{}
	}
	n := 0
	for _, g := range groups {
		if _, ok := want[g.Hour]; ok {
			n += g.Count
		}
	}
	return n
}

// HourCounts 把分组转成 hour -> count。
func HourCounts(groups []domain.ClockHourGroup) map[int]int {
	out := make(map[int]int, len(groups))
	for _, g := range groups {
		out[g.Hour] = g.Count
	}
	return out
}
