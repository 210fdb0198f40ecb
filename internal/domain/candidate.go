package domain

import "github.com/John-Robertt/Z32/internal/geo"

// GeoVector 是从候选中提取的（距离, 方位）向量。
type GeoVector struct {
	DistanceInches float64 `json:"distance_inches"`
	DistanceMiles  float64 `json:"distance_miles"`
	ClockHour      int     `json:"clock_hour"`
	MagBearingDeg  float64 `json:"mag_bearing_deg"`
	TrueBearingDeg float64 `json:"true_bearing_deg"`
}

// Projected 是通过锁过滤并完成投影的候选（尚未过边界/评分）。
type Projected struct {
	Index    int       `json:"index"`
	Text     string    `json:"phrase"`
	Readable string    `json:"readable"`
	Family   string    `json:"template"`
	Vector   GeoVector `json:"vector"`
	Point    geo.Point `json:"point"`
}

// SceneDistance 是到某个参考点的距离（英里）。
type SceneDistance struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Miles float64 `json:"miles"`
}

// ScoredCandidate 是最终输出的幸存者，只在排序阶段创建一次。
type ScoredCandidate struct {
	Rank int `json:"rank"`
	Projected
	Distances []SceneDistance `json:"distances"`
	Nearest   SceneDistance   `json:"nearest"`
	Score     float64         `json:"score"`
}

// Funnel 是各阶段的计数。
type Funnel struct {
	Total        int `json:"total_candidates"`
	PassedLength int `json:"passed_length"`
	PassedLocks  int `json:"passed_locks"`
	PassedBounds int `json:"passed_bounds"`
}

// Add 累加另一个分片的计数。
func (f *Funnel) Add(o Funnel) {
	f.Total += o.Total
	f.PassedLength += o.PassedLength
	f.PassedLocks += o.PassedLocks
	f.PassedBounds += o.PassedBounds
}

// RejectionRatePct 返回被拒绝的百分比；Total 为 0 时返回 0。
func (f Funnel) RejectionRatePct() float64 {
	if f.Total == 0 {
		return 0
	}
	return (1 - float64(f.PassedBounds)/float64(f.Total)) * 100
}

// SurvivalRate 返回 PassedBounds/Total。
func (f Funnel) SurvivalRate() float64 {
	if f.Total == 0 {
		return 0
	}
	return float64(f.PassedBounds) / float64(f.Total)
}
