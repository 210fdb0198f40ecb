// Package lexicon 定义候选明文的词表、模板族与索引空间。
//
// 索引空间是混合进制：magnitude > clock hour > fraction > angle unit > form（外层到内层）。
// form 是 (prefix, 可选 distance unit, family) 的展开列表，顺序与生成顺序一致。
package lexicon

import (
	"fmt"
	"strings"
)

// Rules 是可配置的文法规则。
type Rules struct {
	// ExcludeZeroWithFraction 为 true 时排除 "ZERO" 后接非空分数的组合。
	ExcludeZeroWithFraction bool `json:"exclude_zero_with_fraction" yaml:"exclude_zero_with_fraction"`
}

// Form 是最内层维度的一项。DistanceUnit 为 -1 表示模板不带距离单位。
type Form struct {
	Family       int `json:"family"`
	Prefix       int `json:"prefix"`
	DistanceUnit int `json:"distance_unit"`
}

// Tuple 是候选在各词表中的下标。
type Tuple struct {
	Magnitude int `json:"magnitude"`
	Hour      int `json:"hour"`
	Fraction  int `json:"fraction"`
	AngleUnit int `json:"angle_unit"`
	Form      int `json:"form"`
}

// Grammar 是只读的词表 + 模板定义。构造后不再修改，可在多个 goroutine 间共享。
type Grammar struct {
	Magnitudes    []Token
	Fractions     []Token
	Hours         []Token
	AngleUnits    []Token
	DistanceUnits []Token
	Prefixes      []Token
	Families      []Family
	Forms         []Form
	Rules         Rules

	segmentWords []string
}

// Default 返回公开结果所用的词表。
func Default(r Rules) *Grammar {
	g, err := New(
		defaultMagnitudes(), defaultFractions(), defaultHours(),
		defaultAngleUnits(), defaultDistanceUnits(), defaultPrefixes(),
		defaultFamilies(), r,
	)
	if err != nil {
		panic(err)
	}
	return g
}

// New 校验词表并展开 form 列表。
func New(mags, fracs, hours, angles, dunits, prefixes []Token, families []Family, r Rules) (*Grammar, error) {
	for _, c := range []struct {
		cat  Category
		toks []Token
	}{
		{Magnitude, mags}, {Fraction, fracs}, {ClockHour, hours},
		{AngleUnit, angles}, {Prefix, prefixes},
	} {
		if len(c.toks) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyCategory, c.cat)
		}
	}
	if len(families) == 0 {
		return nil, ErrNoFamilies
	}
	needUnits := false
	for _, f := range families {
		if f.HasDistanceUnit() {
			needUnits = true
		}
	}
	if needUnits && len(dunits) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCategory, DistanceUnit)
	}

	g := &Grammar{
		Magnitudes:    mags,
		Fractions:     fracs,
		Hours:         hours,
		AngleUnits:    angles,
		DistanceUnits: dunits,
		Prefixes:      prefixes,
		Families:      families,
		Rules:         r,
	}
	g.Forms = expandForms(families, len(prefixes), len(dunits))
	g.segmentWords = collectWords(g)
	return g, nil
}

// 先是所有不带单位的模板（按 prefix 展开），再按单位、prefix 展开带单位的模板。
func expandForms(families []Family, nPrefix, nUnit int) []Form {
	var plain, withUnit []int
	for i, f := range families {
		if f.HasDistanceUnit() {
			withUnit = append(withUnit, i)
		} else {
			plain = append(plain, i)
		}
	}
	out := make([]Form, 0, nPrefix*len(plain)+nUnit*nPrefix*len(withUnit))
	for p := 0; p < nPrefix; p++ {
		for _, fi := range plain {
			out = append(out, Form{Family: fi, Prefix: p, DistanceUnit: -1})
		}
	}
	for u := 0; u < nUnit; u++ {
		for p := 0; p < nPrefix; p++ {
			for _, fi := range withUnit {
				out = append(out, Form{Family: fi, Prefix: p, DistanceUnit: u})
			}
		}
	}
	return out
}

// Span 是完整索引空间大小（含被规则排除的组合）。
func (g *Grammar) Span() int {
	return len(g.Magnitudes) * len(g.Hours) * len(g.Fractions) * len(g.AngleUnits) * len(g.Forms)
}

// Count 独立于生成器计算候选总数：索引空间减去被规则排除的组合。
func (g *Grammar) Count() int {
	total := g.Span()
	if !g.Rules.ExcludeZeroWithFraction {
		return total
	}
	zeros, nonEmpty := 0, 0
	for _, m := range g.Magnitudes {
		if m.Value == 0 {
			zeros++
		}
	}
	for _, f := range g.Fractions {
		if f.Text != "" {
			nonEmpty++
		}
	}
	return total - zeros*nonEmpty*len(g.Hours)*len(g.AngleUnits)*len(g.Forms)
}

// Decode 把序号拆成各维下标（最内层是 form）。
func (g *Grammar) Decode(i int) (Tuple, error) {
	if i < 0 || i >= g.Span() {
		return Tuple{}, fmt.Errorf("%w: %d (span %d)", ErrIndexRange, i, g.Span())
	}
	var t Tuple
	t.Form, i = i%len(g.Forms), i/len(g.Forms)
	t.AngleUnit, i = i%len(g.AngleUnits), i/len(g.AngleUnits)
	t.Fraction, i = i%len(g.Fractions), i/len(g.Fractions)
	t.Hour, i = i%len(g.Hours), i/len(g.Hours)
	t.Magnitude = i
	return t, nil
}

// Encode 是 Decode 的逆。
func (g *Grammar) Encode(t Tuple) int {
	i := t.Magnitude
	i = i*len(g.Hours) + t.Hour
	i = i*len(g.Fractions) + t.Fraction
	i = i*len(g.AngleUnits) + t.AngleUnit
	i = i*len(g.Forms) + t.Form
	return i
}

// Excluded 报告组合是否被文法规则排除。
func (g *Grammar) Excluded(t Tuple) bool {
	if g.Rules.ExcludeZeroWithFraction {
		return g.Magnitudes[t.Magnitude].Value == 0 && g.Fractions[t.Fraction].Text != ""
	}
	return false
}

// token 返回 tuple 在指定槽位上的词。ok=false 表示当前 form 没有该槽位。
func (g *Grammar) token(t Tuple, c Category) (Token, bool) {
	form := g.Forms[t.Form]
	switch c {
	case Prefix:
		return g.Prefixes[form.Prefix], true
	case Magnitude:
		return g.Magnitudes[t.Magnitude], true
	case Fraction:
		return g.Fractions[t.Fraction], true
	case ClockHour:
		return g.Hours[t.Hour], true
	case AngleUnit:
		return g.AngleUnits[t.AngleUnit], true
	case DistanceUnit:
		if form.DistanceUnit < 0 {
			return Token{}, false
		}
		return g.DistanceUnits[form.DistanceUnit], true
	}
	return Token{}, false
}

// Build 按模板族渲染 tuple。
func (g *Grammar) Build(index int, t Tuple) Candidate {
	fam := g.Families[g.Forms[t.Form].Family]
	var b strings.Builder
	b.Grow(40)
	for _, s := range fam.Slots {
		tk, _ := g.token(t, s)
		b.WriteString(tk.Text)
	}
	return Candidate{
		Index:   index,
		Tuple:   t,
		Family:  fam.ID,
		Text:    b.String(),
		grammar: g,
	}
}

// WithPrefixes 使用公开词表，但替换前缀列表（"" 表示无前缀）。
func WithPrefixes(prefixes []string, r Rules) (*Grammar, error) {
	toks := make([]Token, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			toks = append(toks, tok(Prefix, 0))
			continue
		}
		toks = append(toks, tok(Prefix, 0, p))
	}
	return New(
		defaultMagnitudes(), defaultFractions(), defaultHours(),
		defaultAngleUnits(), defaultDistanceUnits(), toks,
		defaultFamilies(), r,
	)
}
