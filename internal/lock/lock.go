// Package lock 实现密文结构约束：固定长度 + 同音字锁（指定位置的字符必须相同）。
package lock

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrIndexRange = errors.New("lock: pair index out of range")
	ErrSelfPair   = errors.New("lock: pair must reference two distinct positions")
	ErrLength     = errors.New("lock: cipher length must be positive")
)

// Pair 是一组 0-based 位置（无序）。
type Pair struct {
	I int `json:"i" yaml:"i"`
	J int `json:"j" yaml:"j"`
}

func (p Pair) String() string { return fmt.Sprintf("(%d,%d)", p.I, p.J) }

// Constraint 是只读约束；零值不可用，请用 NewConstraint。
type Constraint struct {
	Length int
	Pairs  []Pair
}

// NewConstraint 校验并规范化（I<J，去重，按位置排序）。
func NewConstraint(length int, pairs []Pair) (Constraint, error) {
	if length <= 0 {
		return Constraint{}, fmt.Errorf("%w: %d", ErrLength, length)
	}
	seen := map[Pair]struct{}{}
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.I < 0 || p.I >= length || p.J < 0 || p.J >= length {
			return Constraint{}, fmt.Errorf("%w: %s (length %d)", ErrIndexRange, p, length)
		}
		if p.I == p.J {
			return Constraint{}, fmt.Errorf("%w: %s", ErrSelfPair, p)
		}
		if p.I > p.J {
			p.I, p.J = p.J, p.I
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].I != out[b].I {
			return out[a].I < out[b].I
		}
		return out[a].J < out[b].J
	})
	return Constraint{Length: length, Pairs: out}, nil
}

// Verdict 是 Check 的结果。
type Verdict int

const (
	Pass Verdict = iota
	RejectLength
	RejectLock
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case RejectLength:
		return "reject_length"
	case RejectLock:
		return "reject_lock"
	default:
		return "unknown"
	}
}

// Check 先判长度，再逐对比较字符（按字节；候选串只含 ASCII 大写字母）。
func (c Constraint) Check(text string) Verdict {
	if len(text) != c.Length {
		return RejectLength
	}
	for _, p := range c.Pairs {
		if text[p.I] != text[p.J] {
			return RejectLock
		}
	}
	return Pass
}

// PairResult 是单个锁对的明细。
type PairResult struct {
	Pair Pair   `json:"pair"`
	A    string `json:"a"`
	B    string `json:"b"`
	OK   bool   `json:"ok"`
}

// Explanation 是 Explain 的输出。
type Explanation struct {
	Text    string       `json:"text"`
	Length  int          `json:"length"`
	Verdict string       `json:"verdict"`
	Pairs   []PairResult `json:"pairs,omitempty"`
}

// Explain 返回每个锁对的比较明细；长度不符时不列出锁对。
func (c Constraint) Explain(text string) Explanation {
	e := Explanation{Text: text, Length: len(text), Verdict: c.Check(text).String()}
	if len(text) != c.Length {
		return e
	}
	for _, p := range c.Pairs {
		a, b := text[p.I:p.I+1], text[p.J:p.J+1]
		e.Pairs = append(e.Pairs, PairResult{Pair: p, A: a, B: b, OK: a == b})
	}
	return e
}
