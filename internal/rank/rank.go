// Package rank 计算幸存者到参考点的距离、分数，并按分数排序。
package rank

import (
	"math"
	"sort"

	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/geo"
)

// Scorer 持有评分规则与有序的参考点列表。
type Scorer struct {
	rule   config.Scoring
	refs   []config.ReferencePoint
	sphere geo.Sphere
}

func NewScorer(a config.Assumptions) *Scorer {
	return &Scorer{
		rule:   a.Scoring,
		refs:   append([]config.ReferencePoint(nil), a.ReferencePoints...),
		sphere: a.Sphere(),
	}
}

// Score 计算到每个参考点的距离与分数。
//
// Nearest 取严格更小者，距离相同时保留参考点列表中靠前的那个。
func (s *Scorer) Score(p domain.Projected) domain.ScoredCandidate {
	sc := domain.ScoredCandidate{
		Projected: p,
		Distances: make([]domain.SceneDistance, 0, len(s.refs)),
	}
	best := math.Inf(1)
	sum := 0.0
	for _, r := range s.refs {
		d := s.sphere.Distance(p.Point, r.Point)
		sd := domain.SceneDistance{Key: r.Key, Label: r.Label, Miles: d}
		sc.Distances = append(sc.Distances, sd)
		if d < best {
			best = d
			sc.Nearest = sd
		}
		sum += d
	}
	mean := 0.0
	if len(s.refs) > 0 {
		mean = sum / float64(len(s.refs))
	}
	switch s.rule.Rule {
	case config.RuleMean:
		sc.Score = mean
	case config.RuleBlend:
		w := s.rule.NearestWeight
		sc.Score = w*best + (1-w)*mean
	default:
		sc.Score = best
	}
	return sc
}

// Rank 评分、按 (Score, Index) 升序排序并从 1 开始编号。
// 输入顺序不影响结果。
func (s *Scorer) Rank(in []domain.Projected) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, 0, len(in))
	for _, p := range in {
		out = append(out, s.Score(p))
	}
	Sort(out)
	return out
}

// Sort 对已评分的列表做规范排序并重新编号。
func Sort(list []domain.ScoredCandidate) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score < list[j].Score
		}
		return list[i].Index < list[j].Index
	})
	for i := range list {
		list[i].Rank = i + 1
	}
}
