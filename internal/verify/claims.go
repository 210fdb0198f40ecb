package verify

import (
	"fmt"
	"math"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/Z32/internal/domain"
)

// Evidence 是核对结论所需的两份结果。
type Evidence struct {
	Solve  domain.Metadata
	Verify Results
}

// Claim 是一条已发表的数值结论：期望值、提取方式、比较方式，以及正文中应出现的文本。
type Claim struct {
	ID       string
	Label    string
	Source   string
	Expected any
	Patterns []string

	extract func(Evidence) (any, error)
	compare func(actual, expected any) bool
}

// Outcome 是一条结论的数值核对结果。
type Outcome struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Source   string `json:"source"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	ValueOK  bool   `json:"value_ok"`
	Error    string `json:"error,omitempty"`

	Patterns []string `json:"-"`
}

// Evaluate 逐条核对数值，收集全部结果（不在第一个失败处停止）。
func Evaluate(ev Evidence) []Outcome {
	claims := Claims()
	out := make([]Outcome, 0, len(claims))
	for _, c := range claims {
		o := Outcome{
			ID:       c.ID,
			Label:    c.Label,
			Source:   c.Source,
			Expected: c.Expected,
			Patterns: c.Patterns,
		}
		actual, err := c.extract(ev)
		if err != nil {
			o.Error = err.Error()
		} else {
			o.Actual = actual
			o.ValueOK = c.compare(actual, c.Expected)
		}
		out = append(out, o)
	}
	return out
}

// Mismatches 返回数值不符的结论。
func Mismatches(outs []Outcome) []Outcome {
	var bad []Outcome
	for _, o := range outs {
		if !o.ValueOK {
			bad = append(bad, o)
		}
	}
	return bad
}

// ClaimRecord 是 claim_map.json 中的一行。
type ClaimRecord struct {
	Outcome
	TextOK          bool     `json:"tex_ok"`
	Pass            bool     `json:"pass"`
	MissingPatterns []string `json:"missing_patterns,omitempty"`
}

type ClaimSummary struct {
	Total   int  `json:"total"`
	Passed  int  `json:"passed"`
	Failed  int  `json:"failed"`
	AllPass bool `json:"all_pass"`
}

// ClaimMap 对应 claim_map.json。
type ClaimMap struct {
	GeneratedAt string        `json:"generated_at"`
	Document    string        `json:"document"`
	Summary     ClaimSummary  `json:"summary"`
	Claims      []ClaimRecord `json:"claims"`
}

// BuildClaimMap 把数值核对结果与正文检查合并：一条结论只有数值相符且全部文本都出现时才通过。
func BuildClaimMap(outs []Outcome, document string, contains func(string) bool, now time.Time) ClaimMap {
	m := ClaimMap{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Document:    document,
		Claims:      make([]ClaimRecord, 0, len(outs)),
	}
	for _, o := range outs {
		r := ClaimRecord{Outcome: o, TextOK: true}
		for _, p := range o.Patterns {
			if !contains(p) {
				r.TextOK = false
				r.MissingPatterns = append(r.MissingPatterns, p)
			}
		}
		r.Pass = r.ValueOK && r.TextOK
		if r.Pass {
			m.Summary.Passed++
		} else {
			m.Summary.Failed++
		}
		m.Claims = append(m.Claims, r)
	}
	m.Summary.Total = len(m.Claims)
	m.Summary.AllPass = m.Summary.Failed == 0
	return m
}

// round 按 digits 位小数四舍五入；digits 为负时舍入到 10^-digits。
func round(x float64, digits int) float64 {
	if digits >= 0 {
		p := math.Pow(10, float64(digits))
		return math.Round(x*p) / p
	}
	p := math.Pow(10, float64(-digits))
	return math.Round(x/p) * p
}

func exact(actual, expected any) bool { return cmp.Equal(actual, expected) }

func within(tol float64) func(actual, expected any) bool {
	return func(actual, expected any) bool {
		a, ok1 := actual.(float64)
		e, ok2 := expected.(float64)
		return ok1 && ok2 && math.Abs(a-e) <= tol
	}
}

func withinInt(tol int) func(actual, expected any) bool {
	return func(actual, expected any) bool {
		a, ok1 := actual.(int)
		e, ok2 := expected.(int)
		if !ok1 || !ok2 {
			return false
		}
		d := a - e
		if d < 0 {
			d = -d
		}
		return d <= tol
	}
}

func relClose(rel float64) func(actual, expected any) bool {
	return func(actual, expected any) bool {
		a, ok1 := actual.(float64)
		e, ok2 := expected.(float64)
		return ok1 && ok2 && math.Abs(a-e) <= rel*math.Max(math.Abs(a), math.Abs(e))
	}
}

// value 包装一个不会失败的提取函数。
func value(f func(Evidence) any) func(Evidence) (any, error) {
	return func(ev Evidence) (any, error) { return f(ev), nil }
}

func sceneMiles(key string) func(Evidence) (any, error) {
	return func(ev Evidence) (any, error) {
		d, ok := ev.Verify.V4.Scene(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingReference, key)
		}
		return round(d.Miles, 2), nil
	}
}

func clockRowMag(key string) func(Evidence) (any, error) {
	return func(ev Evidence) (any, error) {
		for _, r := range ev.Verify.V2.Rows {
			if r.Key == key {
				return round(r.MagBearingDeg, 2), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrMissingReference, key)
	}
}

func innerMotif(ev Evidence) (Motif, error) {
	for _, m := range ev.Verify.V7.Motifs {
		if m.Motif == "inner_triangle_brs_lhr_centroid" {
			return m, nil
		}
	}
	return Motif{}, fmt.Errorf("verify: inner motif missing")
}

// Claims 返回全部已发表结论。Patterns 采用正文归一化之后的写法（见 narrative 包）。
func Claims() []Claim {
	return []Claim{
		{ID: "total_candidates", Label: "Total candidates", Source: "z32 -> metadata.total_candidates",
			Expected: 2_044_224, Patterns: []string{"2,044,224"},
			extract: value(func(ev Evidence) any { return ev.Solve.TotalCandidates }), compare: exact},
		{ID: "survivors", Label: "Survivors", Source: "z32 -> metadata.num_survivors",
			Expected: 54, Patterns: []string{"54"},
			extract: value(func(ev Evidence) any { return ev.Solve.NumSurvivors }), compare: exact},
		{ID: "passed_length", Label: "Passed length filter", Source: "z32 -> metadata.passed_length",
			Expected: 154_572, Patterns: []string{"154,572"},
			extract: value(func(ev Evidence) any { return ev.Solve.PassedLength }), compare: exact},
		{ID: "passed_locks", Label: "Passed homophonic locks", Source: "z32 -> metadata.passed_locks",
			Expected: 61, Patterns: []string{"61"},
			extract: value(func(ev Evidence) any { return ev.Solve.PassedLocks }), compare: exact},
		{ID: "rejection_rate", Label: "Rejection rate", Source: "z32 -> metadata.rejection_rate_pct",
			Expected: 99.9974, Patterns: []string{"99.9974%"},
			extract: value(func(ev Evidence) any { return round(ev.Solve.RejectionRatePct, 4) }), compare: within(1e-4)},

		{ID: "solution_coords", Label: "Solution coordinates", Source: "verify V1 -> projected",
			Expected: []float64{38.109952, -122.185349}, Patterns: []string{"38.10995", "122.18535"},
			extract: value(func(ev Evidence) any {
				p := ev.Verify.V1.Projected
				return []float64{round(p.Lat, 6), round(p.Lon, 6)}
			}), compare: exact},
		{ID: "dist_brs", Label: "Distance to BRS", Source: "verify V4 -> BRS",
			Expected: 1.15, Patterns: []string{"1.15"},
			extract: sceneMiles(KeyBlueRockSprings), compare: within(1e-2)},
		{ID: "dist_lhr", Label: "Distance to LHR", Source: "verify V4 -> LHR",
			Expected: 2.47, Patterns: []string{"2.47"},
			extract: sceneMiles(KeyLakeHermanRoad), compare: within(1e-2)},
		{ID: "dist_triangle", Label: "Distance to triangle anomaly", Source: "verify V4 -> triangle",
			Expected: map[string]float64{"meters": 254, "miles": 0.158, "feet": 833},
			Patterns: []string{"0.158", "833", "254"},
			extract: value(func(ev Evidence) any {
				t := ev.Verify.V4.SolutionToTriangle
				return map[string]float64{
					"meters": math.Round(t.Meters),
					"miles":  round(t.Miles, 3),
					"feet":   math.Round(t.Feet),
				}
			}), compare: exact},
		{ID: "map_offset", Label: "Map-scale offset", Source: "verify V4 -> map_inches",
			Expected: 0.0246, Patterns: []string{"0.0246"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V4.SolutionToTriangle.MapInches, 4) }),
			compare: within(1e-4)},

		{ID: "centroid_loc", Label: "Centroid location", Source: "verify V3 -> centroid",
			Expected: []float64{38.0780, -122.2011}, Patterns: []string{"38.0780", "122.2011"},
			extract: value(func(ev Evidence) any {
				c := ev.Verify.V3.Centroid
				return []float64{round(c.Lat, 4), round(c.Lon, 4)}
			}), compare: exact},
		{ID: "centroid_dist", Label: "Centroid-to-solution", Source: "verify V3 -> centroid_to_solution_mi",
			Expected: 2.37, Patterns: []string{"2.37"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V3.CentroidToSolutionMi, 2) }),
			compare: within(1e-2)},
		{ID: "max_span", Label: "Max span", Source: "verify V3 -> max_span_mi",
			Expected: 54.9, Patterns: []string{"54.9"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V3.MaxSpanMi, 1) }),
			compare: within(0.1)},
		{ID: "offset_pct", Label: "Offset % of span", Source: "verify V3 -> offset_pct",
			Expected: 4.3, Patterns: []string{"4.3%"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V3.OffsetPctOfMaxSpan, 1) }),
			compare: within(0.1)},

		{ID: "presidio_clock", Label: "Presidio clock hour", Source: "verify V2 -> presidio.clock_exact",
			Expected: 8.03, Patterns: []string{"8.03"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V2.Presidio.ClockExact, 2) }),
			compare: within(1e-2)},
		{ID: "lhr_clock", Label: "LHR clock hour", Source: "verify V2 -> vallejo LHR",
			Expected: 10.09, Patterns: []string{"10.09"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V2.VallejoSubset.LakeHermanRoad.ClockExact, 2) }),
			compare: within(1e-2)},
		{ID: "brs_clock", Label: "BRS clock hour", Source: "verify V2 -> vallejo BRS",
			Expected: 10.04, Patterns: []string{"10.04"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V2.VallejoSubset.BlueRockSprings.ClockExact, 2) }),
			compare: within(1e-2)},
		{ID: "z32_clock", Label: "Z32 clock hour", Source: "verify V2 -> z32_solution",
			Expected: 10.00, Patterns: []string{"10.00"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V2.Z32Solution.ClockExact, 2) }),
			compare: within(1e-2)},
		{ID: "presidio_mag", Label: "Presidio mag bearing", Source: "verify V2 -> presidio mag",
			Expected: 240.93, Patterns: []string{"240.93"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V2.Presidio.MagBearingDeg, 2) }),
			compare: within(1e-2)},
		{ID: "lhr_mag", Label: "LHR mag bearing", Source: "verify V2 -> LHR mag",
			Expected: 302.74, Patterns: []string{"302.74"},
			extract: clockRowMag(KeyLakeHermanRoad), compare: within(1e-2)},
		{ID: "brs_mag", Label: "BRS mag bearing", Source: "verify V2 -> BRS mag",
			Expected: 301.34, Patterns: []string{"301.34"},
			extract: clockRowMag(KeyBlueRockSprings), compare: within(1e-2)},
		{ID: "z32_mag", Label: "Z32 mag bearing", Source: "verify V2 -> z32 mag",
			Expected: 300.00, Patterns: []string{"300.00"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V2.Z32Solution.MagBearingDeg, 2) }),
			compare: within(1e-2)},

		{ID: "inner_sides", Label: "Inner triangle sides", Source: "verify V7 motif 0 sides",
			Expected: []float64{3.34, 3.31, 3.36}, Patterns: []string{"3.34", "3.31", "3.36"},
			extract: func(ev Evidence) (any, error) {
				m, err := innerMotif(ev)
				if err != nil {
					return nil, err
				}
				out := make([]float64, 0, len(m.SidesMi))
				for _, e := range m.SidesMi {
					out = append(out, round(e.DistanceMi, 2))
				}
				return out, nil
			}, compare: exact},
		{ID: "inner_angles", Label: "Inner triangle angles", Source: "verify V7 motif 0 angles",
			Expected: []float64{59.2, 60.7, 60.0}, Patterns: []string{"59.2", "60.7", "60.0"},
			extract: func(ev Evidence) (any, error) {
				m, err := innerMotif(ev)
				if err != nil {
					return nil, err
				}
				out := make([]float64, 0, len(m.AnglesDeg))
				for _, a := range m.AnglesDeg {
					out = append(out, round(a, 1))
				}
				return out, nil
			}, compare: exact},
		{ID: "inner_max_dev", Label: "Inner max angle dev", Source: "verify V7 motif 0 max dev",
			Expected: 0.8, Patterns: []string{"0.8"},
			extract: func(ev Evidence) (any, error) {
				m, err := innerMotif(ev)
				if err != nil {
					return nil, err
				}
				return round(m.MaxAbsAngleDeviation, 1), nil
			}, compare: within(0.1)},
		{ID: "angular_sep", Label: "Angular separation MD->Z32 vs MD->PH", Source: "verify V7 bearings",
			Expected: 59.07, Patterns: []string{"59.07"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V7.Bearings.AngularSeparation, 2) }),
			compare: within(1e-2)},
		{ID: "op_tri_sides", Label: "Operational triangle sides", Source: "verify V3 sides",
			Expected: []float64{50.2, 30.3, 54.9}, Patterns: []string{"50.2", "30.3", "54.9"},
			extract: value(func(ev Evidence) any {
				out := make([]float64, 0, len(ev.Verify.V3.SideLengthsMi))
				for _, s := range ev.Verify.V3.SideLengthsMi {
					out = append(out, round(s.DistanceMi, 1))
				}
				return out
			}), compare: exact},

		{ID: "survival_rate", Label: "Survival rate", Source: "verify V5 survival_rate",
			Expected: 2.64e-5, Patterns: []string{"2.64 × 10^-5"},
			extract: value(func(ev Evidence) any { return ev.Verify.V5.ConstraintFilter.SurvivalRate }),
			compare: relClose(0.01)},
		{ID: "zone_odds", Label: "Geographic zone odds", Source: "verify V5 zone odds",
			Expected: 506_000, Patterns: []string{"506,000"},
			extract: value(func(ev Evidence) any { return int(round(ev.Verify.V5.Geographic.OddsZone, -3)) }),
			compare: exact},
		{ID: "dist_87pct", Label: "Survivor 8/10 concentration", Source: "verify V8",
			Expected: map[string]float64{"hour8": 25, "hour10": 22, "combined": 47, "total": 54, "pct": 87.0, "enrichment": 5.2},
			Patterns: []string{"47/54", "87.0%", "5.2"},
			extract: value(func(ev Evidence) any {
				d := ev.Verify.V8
				return map[string]float64{
					"hour8":      float64(d.Hour8Count),
					"hour10":     float64(d.Hour10Count),
					"combined":   float64(d.Combined810Count),
					"total":      float64(d.SurvivorTotal),
					"pct":        round(d.Combined810Pct, 1),
					"enrichment": round(d.Enrichment, 1),
				}
			}), compare: exact},

		{ID: "ph_brs_sep", Label: "PH-BRS angular separation", Source: "verify V9 ph_brs_separation_deg",
			Expected: 60.41, Patterns: []string{"60.41"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V9.PHBRSSeparation, 2) }),
			compare: within(1e-2)},
		{ID: "ph_brs_delta", Label: "PH-BRS delta from 60 deg", Source: "verify V9 ph_brs_delta_from_60",
			Expected: 0.41, Patterns: []string{"0.41"},
			extract: value(func(ev Evidence) any { return round(ev.Verify.V9.PHBRSDelta, 2) }),
			compare: within(1e-2)},

		{ID: "lhr_solstice_offset", Label: "LHR-solstice offset", Source: "verify V10 lake_herman_road.offset_days",
			Expected: -1,
			extract:  value(func(ev Evidence) any { return ev.Verify.V10.LakeHermanRoad.OffsetDays }), compare: exact},
		{ID: "brs_aphelion_offset", Label: "BRS-aphelion offset", Source: "verify V10 blue_rock_springs.offset_days",
			Expected: 0,
			extract:  value(func(ev Evidence) any { return ev.Verify.V10.BlueRockSprings.OffsetDays }), compare: exact},
		{ID: "timer_postmark_offset", Label: "3.375-month timer postmark offset", Source: "verify V10 temporal_timer.offset_from_postmark_days",
			Expected: -2,
			extract:  value(func(ev Evidence) any { return ev.Verify.V10.Timer.OffsetFromPostmark }), compare: withinInt(1)},
		{ID: "timer_received_offset", Label: "3.375-month timer received offset", Source: "verify V10 temporal_timer.offset_from_received_days",
			Expected: 0,
			extract:  value(func(ev Evidence) any { return ev.Verify.V10.Timer.OffsetFromReceived }), compare: withinInt(1)},
	}
}
