// Package verify 从同一组常量与几何函数重新计算已发表的数值结论（V1–V10），
// 并按容差逐条核对。
package verify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/geo"
	"github.com/John-Robertt/Z32/internal/lock"
	"github.com/John-Robertt/Z32/internal/projector"
)

const (
	// SolutionText 是已发表解的 32 字符串。
	SolutionText = "INTHREEANDTHREEEIGHTHSRADIANSTEN"
	// SolutionReadable 是它的可读形式。
	SolutionReadable = "IN THREE AND THREE EIGHTHS RADIANS TEN"

	solutionInches = 3.375
	solutionHour   = 10

	exactMatchDeg     = 1e-4
	milesPerDegree    = 69.0
	feetPerMile       = 5280.0
	metersPerMile     = 1609.34
	triangleSideFeet  = 100.0
	crimeZoneRadiusMi = 5.0
	pPresidio8OClock  = 1.0 / 90
	areaRefLatDeg     = 38.0
	equilateralTolDeg = 0.8
)

// 参考点 key（与 config.Default 一致）。
const (
	KeyLakeHermanRoad  = "lake_herman_road"
	KeyBlueRockSprings = "blue_rock_springs"
	KeyLakeBerryessa   = "lake_berryessa"
	KeyPresidioHeights = "presidio_heights"
)

// ErrMissingReference 表示配置中缺少校验所需的参考点。
var ErrMissingReference = errors.New("verify: required reference point missing")

// Inputs 是校验所需的求解结果。
type Inputs struct {
	Funnel    domain.Funnel
	Survivors []domain.ScoredCandidate

	RunID      string
	ConfigPath string
	Now        time.Time
}

// InputsFromReport 从已保存的 z32_results.json 还原 Inputs。
func InputsFromReport(r domain.SolveReport) Inputs {
	return Inputs{
		Funnel:     r.Funnel(),
		Survivors:  r.Survivors,
		RunID:      r.Metadata.RunID,
		ConfigPath: r.Metadata.ConfigPath,
	}
}

type scenes struct {
	lhr, brs, lb, ph config.ReferencePoint
}

func lookupScenes(a config.Assumptions) (scenes, error) {
	var s scenes
	for key, dst := range map[string]*config.ReferencePoint{
		KeyLakeHermanRoad:  &s.lhr,
		KeyBlueRockSprings: &s.brs,
		KeyLakeBerryessa:   &s.lb,
		KeyPresidioHeights: &s.ph,
	} {
		r, ok := a.Reference(key)
		if !ok {
			return scenes{}, fmt.Errorf("%w: %s", ErrMissingReference, key)
		}
		*dst = r
	}
	return s, nil
}

// shortName 去掉标签末尾的日期括注。
func shortName(label string) string {
	if i := strings.Index(label, " ("); i > 0 {
		return label[:i]
	}
	return label
}

// calc 持有一次计算共享的常量。
type calc struct {
	a      config.Assumptions
	sphere geo.Sphere
	md     geo.Point
	dec    float64
	sol    geo.Point
	sc     scenes
}

func (c calc) dist(p, q geo.Point) float64 { return c.sphere.Distance(p, q) }

// Compute 计算全部 V1–V10。Monte Carlo 抽样可被 ctx 取消。
func Compute(ctx context.Context, a config.Assumptions, in Inputs) (Results, error) {
	if err := a.Validate(); err != nil {
		return Results{}, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}
	sc, err := lookupScenes(a)
	if err != nil {
		return Results{}, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}
	c := calc{
		a:      a,
		sphere: a.Sphere(),
		md:     a.Anchor.Point,
		dec:    a.Anchor.DeclinationDeg,
		sol:    a.Landmarks.Z32Solution,
		sc:     sc,
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	r := Results{
		Metadata: Metadata{
			Suite:       "z32_verify",
			RunID:       in.RunID,
			GeneratedAt: now.UTC().Format(time.RFC3339),
			ConfigPath:  in.ConfigPath,
		},
		Constants: Constants{
			EarthRadiusMiles: a.EarthRadiusMiles,
			Anchor:           c.md,
			DeclinationDeg:   c.dec,
			MapScale:         a.MapScaleMilesPerInch,
			Bounds:           a.Bounds,
			Locks:            append([]lock.Pair(nil), a.Locks...),
			CipherLength:     a.CipherLength,
		},
	}

	r.V1 = c.derivation(in.Survivors)
	r.V2 = c.clockGeometry()
	r.V3 = c.centroid()
	r.V4 = c.proximity()
	r.V5 = c.statistics(in.Funnel, len(in.Survivors))
	if r.V6, err = c.lockProof(); err != nil {
		return Results{}, err
	}
	if r.V7, err = c.nearEquilateral(ctx, r.V3.Centroid); err != nil {
		return Results{}, err
	}
	r.V8 = clockDistribution(in.Survivors)
	r.V9 = c.angularStructure(r.V7.Bearings)
	r.V10 = dateAlignments()
	return r, nil
}

func (c calc) derivation(survivors []domain.ScoredCandidate) CoordinateDerivation {
	v, pt := projector.New(c.a).ProjectVector(solutionInches, solutionHour)
	errLat := math.Abs(pt.Lat - c.sol.Lat)
	errLon := math.Abs(pt.Lon - c.sol.Lon)

	rank := 0
	for _, s := range survivors {
		if s.Text == SolutionText {
			rank = s.Rank
			break
		}
	}
	return CoordinateDerivation{
		Plaintext:      SolutionReadable,
		DistanceInches: v.DistanceInches,
		DistanceMiles:  v.DistanceMiles,
		ClockHour:      v.ClockHour,
		MagBearingDeg:  v.MagBearingDeg,
		TrueBearingDeg: v.TrueBearingDeg,
		Projected:      pt,
		StatedSolution: c.sol,
		Error: DerivationError{
			LatDeg:   errLat,
			LonDeg:   errLon,
			LatMiles: errLat * milesPerDegree,
			LonMiles: errLon * milesPerDegree * math.Cos(pt.Lat*math.Pi/180),
		},
		ExactMatchThresholdDeg: exactMatchDeg,
		ExactMatch:             errLat < exactMatchDeg && errLon < exactMatchDeg,
		SolverRank:             rank,
	}
}

func (c calc) reading(p geo.Point) ClockReading {
	mb := geo.MagneticBearing(c.md, p, c.dec)
	return ClockReading{MagBearingDeg: mb, ClockExact: geo.BearingToClock(mb)}
}

func (c calc) clockRow(key, label string, p geo.Point) ClockRow {
	rd := c.reading(p)
	nearest := int(math.Round(rd.ClockExact))
	if nearest == 0 {
		nearest = 12
	}
	return ClockRow{
		Key:                   key,
		Location:              label,
		TrueBearingDeg:        geo.InitialBearing(c.md, p),
		MagBearingDeg:         rd.MagBearingDeg,
		ClockExact:            rd.ClockExact,
		ClockNearestHour:      nearest,
		ErrorDegToNearestHour: math.Abs(rd.ClockExact-float64(nearest)) * 30,
		DistanceFromAnchorMi:  c.dist(c.md, p),
	}
}

func (c calc) clockGeometry() ClockGeometry {
	var g ClockGeometry
	for _, ref := range c.a.ReferencePoints {
		g.Rows = append(g.Rows, c.clockRow(ref.Key, ref.Label, ref.Point))
	}
	g.Rows = append(g.Rows, c.clockRow("z32_solution", "Z32 SOLUTION", c.sol))

	g.VallejoSubset = VallejoSubset{
		LakeHermanRoad:  c.reading(c.sc.lhr.Point),
		BlueRockSprings: c.reading(c.sc.brs.Point),
	}
	g.Z32Solution = c.reading(c.sol)
	ph := c.reading(c.sc.ph.Point)
	g.Presidio = PresidioReading{
		ClockReading:        ph,
		ErrorFrom8OclockDeg: math.Abs(ph.ClockExact-8) * 30,
	}
	return g
}

func (c calc) centroid() Centroid {
	card := []NamedPoint{
		{Name: "Mt. Diablo", Point: c.md},
		{Name: shortName(c.sc.lb.Label), Point: c.sc.lb.Point},
		{Name: shortName(c.sc.ph.Label), Point: c.sc.ph.Point},
	}
	cen := geo.Centroid(card[0].Point, card[1].Point, card[2].Point)
	toSol := c.dist(cen, c.sol)

	var sides []SideLength
	maxSpan := 0.0
	for i := range card {
		for j := i + 1; j < len(card); j++ {
			d := c.dist(card[i].Point, card[j].Point)
			sides = append(sides, SideLength{Pair: card[i].Name + " ↔ " + card[j].Name, DistanceMi: d})
			maxSpan = math.Max(maxSpan, d)
		}
	}

	mdPh := c.dist(c.md, c.sc.ph.Point)
	brsLb := c.dist(c.sc.brs.Point, c.sc.lb.Point)
	all := geo.Centroid(c.sc.lhr.Point, c.sc.brs.Point, c.sc.lb.Point, c.sc.ph.Point)

	out := Centroid{
		CardinalPoints:       card,
		Centroid:             cen,
		Solution:             c.sol,
		CentroidToSolutionMi: toSol,
		SideLengthsMi:        sides,
		MaxSpanMi:            maxSpan,
		DistanceSymmetry: DistanceSymmetry{
			AnchorToPresidioMi: mdPh,
			BRSToLBMi:          brsLb,
		},
		AllFourCentroid:             all,
		AllFourCentroidToSolutionMi: c.dist(all, c.sol),
	}
	if maxSpan > 0 {
		out.OffsetPctOfMaxSpan = toSol / maxSpan * 100
	}
	if mdPh > 0 {
		out.DistanceSymmetry.Ratio = brsLb / mdPh
	}
	return out
}

func (c calc) proximity() Proximity {
	p := Proximity{
		Solution:        c.sol,
		TriangleAnomaly: c.a.Landmarks.TriangleAnomaly,
	}
	for _, ref := range c.a.ReferencePoints {
		p.CrimeSceneDistances = append(p.CrimeSceneDistances, domain.SceneDistance{
			Key:   ref.Key,
			Label: ref.Label,
			Miles: c.dist(c.sol, ref.Point),
		})
	}
	d := c.dist(c.sol, p.TriangleAnomaly)
	p.SolutionToTriangle = TriangleDistance{
		Miles:     d,
		Feet:      d * feetPerMile,
		Meters:    d * metersPerMile,
		MapInches: d / c.a.MapScaleMilesPerInch,
	}
	return p
}

func (c calc) statistics(f domain.Funnel, survivors int) Statistics {
	survival := 0.0
	if f.Total > 0 {
		survival = float64(survivors) / float64(f.Total)
	}
	triSqFt := math.Sqrt(3) / 4 * triangleSideFeet * triangleSideFeet
	triSqMi := triSqFt / (feetPerMile * feetPerMile)
	mapSqMi := c.a.Bounds.AreaSqMiles(areaRefLatDeg)
	zoneArea := math.Pi * crimeZoneRadiusMi * crimeZoneRadiusMi
	pZone := triSqMi / zoneArea
	pJoint := survival * pZone * pPresidio8OClock

	s := Statistics{
		ConstraintFilter: ConstraintFilter{
			TotalCandidates: f.Total,
			Survivors:       survivors,
			SurvivalRate:    survival,
			SurvivalRatePct: survival * 100,
		},
		Geographic: GeoCoincidence{
			TriangleAreaSqFt:  triSqFt,
			TriangleAreaSqMi:  triSqMi,
			MapAreaSqMi:       mapSqMi,
			PRandomFull:       triSqMi / mapSqMi,
			OddsFullMap:       mapSqMi / triSqMi,
			CrimeZoneRadiusMi: crimeZoneRadiusMi,
			CrimeZoneAreaSqMi: zoneArea,
			PRandomZone:       pZone,
			OddsZone:          1 / pZone,
		},
		ClockAlignment: ClockAlignment{
			PPresidio8OClock:    pPresidio8OClock,
			PTwoVallejoIn10:     1.0 / 144,
			PSolutionIn10Sector: 1.0 / 12,
		},
		Joint: JointProbability{PJoint: pJoint},
	}
	if pJoint > 0 {
		s.Joint.Odds = 1 / pJoint
	}
	return s
}

func (c calc) lockProof() (LockProof, error) {
	cons, err := c.a.Constraint()
	if err != nil {
		return LockProof{}, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}
	ex := cons.Explain(SolutionText)
	return LockProof{
		SolutionString:    SolutionText,
		Length:            len(SolutionText),
		LockChecks:        ex.Pairs,
		AllLocksSatisfied: ex.Verdict == lock.Pass.String(),
		LetterFrequency:   letterFrequency(SolutionText),
	}, nil
}

// letterFrequency 按首次出现顺序统计，再按次数降序稳定排序。
func letterFrequency(s string) []LetterCount {
	var out []LetterCount
	at := map[byte]int{}
	for i := 0; i < len(s); i++ {
		k, ok := at[s[i]]
		if !ok {
			k = len(out)
			at[s[i]] = k
			out = append(out, LetterCount{Char: s[i : i+1]})
		}
		out[k].Count++
		out[k].Positions = append(out[k].Positions, i)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func motifRow(name string, sides, angles []float64, labels []string) Motif {
	mean := (sides[0] + sides[1] + sides[2]) / 3
	m := Motif{Motif: name, AnglesDeg: angles}
	for i, s := range sides {
		m.SidesMi = append(m.SidesMi, Edge{Edge: labels[i], DistanceMi: s})
		dev := (s/mean - 1) * 100
		m.SideDeviationPct = append(m.SideDeviationPct, dev)
		m.MaxAbsSideDeviationPct = math.Max(m.MaxAbsSideDeviationPct, math.Abs(dev))
	}
	for _, a := range angles {
		dev := a - 60
		m.AngleDeviationDeg = append(m.AngleDeviationDeg, dev)
		m.MaxAbsAngleDeviation = math.Max(m.MaxAbsAngleDeviation, math.Abs(dev))
	}
	return m
}

func (c calc) nearEquilateral(ctx context.Context, cen geo.Point) (NearEquilateral, error) {
	ph := c.sc.ph.Point
	bSol := geo.InitialBearing(c.md, c.sol)
	bPh := geo.InitialBearing(c.md, ph)

	sMdSol := c.dist(c.md, c.sol)
	sMdPh := c.dist(c.md, ph)
	sSolPh := c.dist(c.sol, ph)
	aMd := geo.AngleFromSides(sMdSol, sMdPh, sSolPh)
	aSol := geo.AngleFromSides(sMdSol, sSolPh, sMdPh)
	aPh := geo.AngleFromSides(sMdPh, sSolPh, sMdSol)

	outer := motifRow("near_equilateral_md_z32_presidio",
		[]float64{sMdSol, sMdPh, sSolPh},
		[]float64{aMd, aSol, aPh},
		[]string{"Mt. Diablo ↔ Z32", "Mt. Diablo ↔ Presidio", "Z32 ↔ Presidio"})

	brs, lhr := c.sc.brs.Point, c.sc.lhr.Point
	sBrsLhr := c.dist(brs, lhr)
	sLhrC := c.dist(lhr, cen)
	sCBrs := c.dist(cen, brs)
	inner := motifRow("inner_triangle_brs_lhr_centroid",
		[]float64{sBrsLhr, sLhrC, sCBrs},
		[]float64{
			geo.AngleFromSides(sBrsLhr, sCBrs, sLhrC),
			geo.AngleFromSides(sBrsLhr, sLhrC, sCBrs),
			geo.AngleFromSides(sLhrC, sCBrs, sBrsLhr),
		},
		[]string{"BRS ↔ LHR", "LHR ↔ Centroid", "Centroid ↔ BRS"})

	mc, err := c.monteCarlo(ctx, cen)
	if err != nil {
		return NearEquilateral{}, err
	}
	return NearEquilateral{
		Bearings: TriangleBearings{
			AnchorToSolution:  bSol,
			AnchorToPresidio:  bPh,
			AngularSeparation: geo.AngularSeparation(bSol, bPh),
		},
		Triangle: Triangle{
			SidesMi:   TriangleSides{AnchorToSolution: sMdSol, AnchorToPresidio: sMdPh, SolutionToPresidio: sSolPh},
			AnglesDeg: TriangleAngles{AtAnchor: aMd, AtSolution: aSol, AtPresidio: aPh},
			Deviation: EquilateralDeviation{
				SidePct: TriangleSides{
					AnchorToSolution:   outer.SideDeviationPct[0],
					AnchorToPresidio:   outer.SideDeviationPct[1],
					SolutionToPresidio: outer.SideDeviationPct[2],
				},
				AngleDeg: TriangleAngles{
					AtAnchor:   outer.AngleDeviationDeg[0],
					AtSolution: outer.AngleDeviationDeg[1],
					AtPresidio: outer.AngleDeviationDeg[2],
				},
				MaxAbsSidePct:  outer.MaxAbsSideDeviationPct,
				MaxAbsAngleDeg: outer.MaxAbsAngleDeviation,
			},
		},
		Motifs:     []Motif{inner, outer},
		MonteCarlo: mc,
	}, nil
}

func clockDistribution(survivors []domain.ScoredCandidate) ClockDistribution {
	counts := map[int]int{}
	for _, s := range survivors {
		counts[s.Vector.ClockHour]++
	}
	d := ClockDistribution{
		SurvivorTotal:    len(survivors),
		ByClockHour:      make(map[string]int, len(counts)),
		Hour8Count:       counts[8],
		Hour10Count:      counts[10],
		ExpectedFraction: 2.0 / 12,
	}
	for h, n := range counts {
		d.ByClockHour[strconv.Itoa(h)] = n
	}
	d.Combined810Count = d.Hour8Count + d.Hour10Count
	if d.SurvivorTotal > 0 {
		d.Combined810Fraction = float64(d.Combined810Count) / float64(d.SurvivorTotal)
	}
	d.Combined810Pct = d.Combined810Fraction * 100
	d.ExpectedPct = d.ExpectedFraction * 100
	d.Enrichment = d.Combined810Fraction / d.ExpectedFraction
	return d
}

func (c calc) angularStructure(b TriangleBearings) AngularStructure {
	bBrs := geo.InitialBearing(c.md, c.sc.brs.Point)
	bLhr := geo.InitialBearing(c.md, c.sc.lhr.Point)
	phBrs := geo.AngularSeparation(b.AnchorToPresidio, bBrs)
	phLhr := geo.AngularSeparation(b.AnchorToPresidio, bLhr)

	ph := c.reading(c.sc.ph.Point)
	brs := c.reading(c.sc.brs.Point)
	lhr := c.reading(c.sc.lhr.Point)
	sol := c.reading(c.sol)
	return AngularStructure{
		Description:     "Pre-existing crime-scene angular structure (independent of cipher solution)",
		PHBRSSeparation: phBrs,
		PHBRSDelta:      math.Abs(phBrs - 60),
		PHLHRSeparation: phLhr,
		PHLHRDelta:      math.Abs(phLhr - 60),
		PHSolSeparation: b.AngularSeparation,
		PHSolDelta:      math.Abs(b.AngularSeparation - 60),
		MagneticBearings: SceneBearings{
			PresidioHeights: ph.MagBearingDeg,
			BlueRockSprings: brs.MagBearingDeg,
			LakeHermanRoad:  lhr.MagBearingDeg,
			Z32Solution:     sol.MagBearingDeg,
		},
		ClockHours: SceneBearings{
			PresidioHeights: ph.ClockExact,
			BlueRockSprings: brs.ClockExact,
			LakeHermanRoad:  lhr.ClockExact,
			Z32Solution:     sol.ClockExact,
		},
	}
}
