// Package planner 把候选索引空间切成互不相交的连续分片（不做任何计算）。
package planner

import "fmt"

// Shard 是索引区间 [Lo, Hi)。
type Shard struct {
	ID int `json:"id"`
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

func (s Shard) Len() int { return s.Hi - s.Lo }

func (s Shard) String() string { return fmt.Sprintf("#%d[%d,%d)", s.ID, s.Lo, s.Hi) }

// PlanShards 把 [0, span) 均分为至多 n 个非空分片，前 span%n 个分片多 1 个元素。
// 分片按 ID 升序覆盖整个区间，无重叠、无空洞。
func PlanShards(span, n int) []Shard {
	if span <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > span {
		n = span
	}
	size, rem := span/n, span%n
	out := make([]Shard, 0, n)
	lo := 0
	for i := 0; i < n; i++ {
		hi := lo + size
		if i < rem {
			hi++
		}
		out = append(out, Shard{ID: i, Lo: lo, Hi: hi})
		lo = hi
	}
	return out
}
