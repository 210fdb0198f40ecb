package lexicon

import "strings"

// Category 是词表类别。
type Category int

const (
	Prefix Category = iota
	Magnitude
	Fraction
	ClockHour
	AngleUnit
	DistanceUnit
)

func (c Category) String() string {
	switch c {
	case Prefix:
		return "prefix"
	case Magnitude:
		return "magnitude"
	case Fraction:
		return "fraction"
	case ClockHour:
		return "clock_hour"
	case AngleUnit:
		return "angle_unit"
	case DistanceUnit:
		return "distance_unit"
	default:
		return "unknown"
	}
}

// Token 是一个词表项。
//
// Text 是渲染进候选串的大写无空格形式；Words 是可读拆分（空 Text 时为空）。
// Value 对 Magnitude/Fraction 表示英寸，对 ClockHour 表示钟点，其余类别为 0。
type Token struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Words    []string `json:"words,omitempty"`
	Value    float64  `json:"value"`
}

func tok(c Category, v float64, words ...string) Token {
	return Token{Category: c, Text: strings.Join(words, ""), Words: words, Value: v}
}

var numberWords = []string{
	"ZERO", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX",
	"SEVEN", "EIGHT", "NINE", "TEN", "ELEVEN", "TWELVE",
}

func defaultMagnitudes() []Token {
	out := make([]Token, 0, 13)
	for i := 0; i <= 12; i++ {
		out = append(out, tok(Magnitude, float64(i), numberWords[i]))
	}
	return out
}

func defaultHours() []Token {
	out := make([]Token, 0, 12)
	for i := 1; i <= 12; i++ {
		out = append(out, tok(ClockHour, float64(i), numberWords[i]))
	}
	return out
}

// 顺序即生成顺序，不可调整。
func defaultFractions() []Token {
	return []Token{
		tok(Fraction, 0),
		tok(Fraction, 0.5, "AND", "A", "HALF"),
		tok(Fraction, 0.5, "AND", "ONE", "HALF"),
		tok(Fraction, 1.0/3, "AND", "A", "THIRD"),
		tok(Fraction, 1.0/3, "AND", "ONE", "THIRD"),
		tok(Fraction, 2.0/3, "AND", "TWO", "THIRDS"),
		tok(Fraction, 0.25, "AND", "A", "QUARTER"),
		tok(Fraction, 0.25, "AND", "ONE", "QUARTER"),
		tok(Fraction, 0.25, "AND", "A", "FOURTH"),
		tok(Fraction, 0.25, "AND", "ONE", "FOURTH"),
		tok(Fraction, 0.75, "AND", "THREE", "QUARTERS"),
		tok(Fraction, 0.75, "AND", "THREE", "FOURTHS"),
		tok(Fraction, 0.125, "AND", "AN", "EIGHTH"),
		tok(Fraction, 0.125, "AND", "ONE", "EIGHTH"),
		tok(Fraction, 0.375, "AND", "THREE", "EIGHTHS"),
		tok(Fraction, 0.625, "AND", "FIVE", "EIGHTHS"),
		tok(Fraction, 0.875, "AND", "SEVEN", "EIGHTHS"),
		tok(Fraction, 0.0625, "AND", "A", "SIXTEENTH"),
		tok(Fraction, 0.0625, "AND", "ONE", "SIXTEENTH"),
		tok(Fraction, 0.1875, "AND", "THREE", "SIXTEENTHS"),
		tok(Fraction, 0.3125, "AND", "FIVE", "SIXTEENTHS"),
		tok(Fraction, 0.4375, "AND", "SEVEN", "SIXTEENTHS"),
		tok(Fraction, 0.5625, "AND", "NINE", "SIXTEENTHS"),
		tok(Fraction, 0.6875, "AND", "ELEVEN", "SIXTEENTHS"),
		tok(Fraction, 0.8125, "AND", "THIRTEEN", "SIXTEENTHS"),
		tok(Fraction, 0.9375, "AND", "FIFTEEN", "SIXTEENTHS"),
	}
}

func defaultAngleUnits() []Token {
	return []Token{
		tok(AngleUnit, 0, "RAD"),
		tok(AngleUnit, 0, "RADS"),
		tok(AngleUnit, 0, "RADIAN"),
		tok(AngleUnit, 0, "RADIANS"),
	}
}

func defaultDistanceUnits() []Token {
	return []Token{
		tok(DistanceUnit, 0, "INCH"),
		tok(DistanceUnit, 0, "INCHES"),
	}
}

func defaultPrefixes() []Token {
	out := []Token{tok(Prefix, 0)}
	for _, p := range []string{"IN", "AT", "TO", "BY", "GO", "ON"} {
		out = append(out, tok(Prefix, 0, p))
	}
	return out
}

// Family 是模板族：按 Slots 顺序拼接各类别的词。
type Family struct {
	ID    string     `json:"id"`
	Slots []Category `json:"slots"`
}

// HasDistanceUnit 报告模板是否带距离单位槽。
func (f Family) HasDistanceUnit() bool {
	for _, s := range f.Slots {
		if s == DistanceUnit {
			return true
		}
	}
	return false
}

// A–F 不带距离单位，G–L 带。
func defaultFamilies() []Family {
	const (
		P = Prefix
		M = Magnitude
		F = Fraction
		H = ClockHour
		R = AngleUnit
		U = DistanceUnit
	)
	return []Family{
		{ID: "A", Slots: []Category{P, M, F, R, H}},
		{ID: "B", Slots: []Category{P, H, R, M, F}},
		{ID: "C", Slots: []Category{P, M, F, H, R}},
		{ID: "D", Slots: []Category{P, H, M, F, R}},
		{ID: "E", Slots: []Category{P, R, H, M, F}},
		{ID: "F", Slots: []Category{P, R, M, F, H}},
		{ID: "G", Slots: []Category{P, M, F, U, R, H}},
		{ID: "H", Slots: []Category{P, M, F, U, H, R}},
		{ID: "I", Slots: []Category{P, H, R, M, F, U}},
		{ID: "J", Slots: []Category{P, H, M, F, U, R}},
		{ID: "K", Slots: []Category{P, U, M, F, R, H}},
		{ID: "L", Slots: []Category{P, R, H, U, M, F}},
	}
}
