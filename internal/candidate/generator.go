// Package candidate 在 lexicon 的索引空间上惰性枚举候选。
//
// 枚举顺序即序号顺序；Range 用于分片，同一区间多次枚举结果相同。
package candidate

import (
	"iter"

	"github.com/John-Robertt/Z32/internal/lexicon"
)

// Generator 按文法穷举全部候选短语。
type Generator struct {
	g *lexicon.Grammar
}

// New 基于已校验的文法创建生成器。
func New(g *lexicon.Grammar) *Generator {
	return &Generator{g: g}
}

// Grammar 返回底层文法（只读）。
func (gen *Generator) Grammar() *lexicon.Grammar { return gen.g }

// Span 是索引空间大小；Range 的区间以它为上界。
func (gen *Generator) Span() int { return gen.g.Span() }

// Count 是实际产出的候选数（去掉被规则排除的组合）。
func (gen *Generator) Count() int { return gen.g.Count() }

// All 枚举全部候选。
func (gen *Generator) All() iter.Seq[lexicon.Candidate] {
	return gen.Range(0, gen.Span())
}

// Range 枚举序号位于 [lo, hi) 的候选，区间会被截断到合法范围。
func (gen *Generator) Range(lo, hi int) iter.Seq[lexicon.Candidate] {
	lo = max(lo, 0)
	hi = min(hi, gen.Span())
	return func(yield func(lexicon.Candidate) bool) {
		if lo >= hi {
			return
		}
		t, err := gen.g.Decode(lo)
		if err != nil {
			return
		}
		for i := lo; i < hi; i++ {
			if !gen.g.Excluded(t) {
				if !yield(gen.g.Build(i, t)) {
					return
				}
			}
			gen.advance(&t)
		}
	}
}

// advance 按混合进制把 tuple 前进一位，避免每个序号都做除法。
func (gen *Generator) advance(t *lexicon.Tuple) {
	g := gen.g
	if t.Form++; t.Form < len(g.Forms) {
		return
	}
	t.Form = 0
	if t.AngleUnit++; t.AngleUnit < len(g.AngleUnits) {
		return
	}
	t.AngleUnit = 0
	if t.Fraction++; t.Fraction < len(g.Fractions) {
		return
	}
	t.Fraction = 0
	if t.Hour++; t.Hour < len(g.Hours) {
		return
	}
	t.Hour = 0
	t.Magnitude++
}

// At 返回序号 i 的候选；被规则排除时 ok=false。
func (gen *Generator) At(i int) (lexicon.Candidate, bool, error) {
	t, err := gen.g.Decode(i)
	if err != nil {
		return lexicon.Candidate{}, false, err
	}
	if gen.g.Excluded(t) {
		return lexicon.Candidate{}, false, nil
	}
	return gen.g.Build(i, t), true, nil
}
