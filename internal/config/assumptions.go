package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/John-Robertt/Z32/internal/geo"
	"github.com/John-Robertt/Z32/internal/lexicon"
	"github.com/John-Robertt/Z32/internal/lock"
)

// 评分规则名称。
const (
	RuleNearest = "nearest"
	RuleMean    = "mean"
	RuleBlend   = "blend"
)

// Anchor 是投影原点与该处的磁偏角（东偏为正）。
type Anchor struct {
	Point          geo.Point `json:"point" yaml:"point"`
	DeclinationDeg float64   `json:"declination_deg" yaml:"declination_deg"`
}

// ReferencePoint 只用于评分。
type ReferencePoint struct {
	Key   string    `json:"key" yaml:"key"`
	Label string    `json:"label" yaml:"label"`
	Point geo.Point `json:"point" yaml:"point"`
}

// Scoring 描述排序分数的计算方式。
//   - nearest：到最近参考点的距离
//   - mean：到所有参考点的平均距离
//   - blend：NearestWeight*min + (1-NearestWeight)*mean
type Scoring struct {
	Rule          string  `json:"rule" yaml:"rule"`
	NearestWeight float64 `json:"nearest_weight" yaml:"nearest_weight"`
}

// Landmarks 是校验用的已发布坐标。
type Landmarks struct {
	Z32Solution     geo.Point `json:"z32_solution" yaml:"z32_solution"`
	TriangleAnomaly geo.Point `json:"triangle_anomaly" yaml:"triangle_anomaly"`
}

// Assumptions 是一次运行的全部静态假设。构造后按值传递，不再修改。
type Assumptions struct {
	EarthRadiusMiles     float64          `json:"earth_radius_mi"`
	Anchor               Anchor           `json:"anchor"`
	ClockReferenceDeg    float64          `json:"clock_reference_deg"`
	MapScaleMilesPerInch float64          `json:"map_scale_mi_per_in"`
	Bounds               geo.Rect         `json:"bounds"`
	Polygon              []geo.Point      `json:"polygon,omitempty"`
	CipherLength         int              `json:"cipher_length"`
	Locks                []lock.Pair      `json:"locks"`
	Prefixes             []string         `json:"prefixes,omitempty"`
	Grammar              lexicon.Rules    `json:"grammar"`
	Scoring              Scoring          `json:"scoring"`
	ReferencePoints      []ReferencePoint `json:"reference_points"`
	Landmarks            Landmarks        `json:"landmarks"`
	MonteCarloSamples    int              `json:"monte_carlo_samples"`
	MonteCarloSeed       uint64           `json:"monte_carlo_seed"`
}

// Default 返回已发布结果所用的假设。这是这些常量的唯一来源。
func Default() Assumptions {
	return Assumptions{
		EarthRadiusMiles: geo.EarthRadiusMiles,
		Anchor: Anchor{
			Point:          geo.Point{Lat: 37.881628, Lon: -121.914382},
			DeclinationDeg: 17.0,
		},
		ClockReferenceDeg:    0,
		MapScaleMilesPerInch: 6.4,
		Bounds:               geo.Rect{South: 37.3, North: 38.8, West: -123.0, East: -121.0},
		CipherLength:         32,
		Locks:                []lock.Pair{{I: 0, J: 25}, {I: 1, J: 31}, {I: 5, J: 13}},
		Scoring:              Scoring{Rule: RuleNearest, NearestWeight: 1},
		ReferencePoints: []ReferencePoint{
			{Key: "lake_herman_road", Label: "Lake Herman Road (12/20/1968)", Point: geo.Point{Lat: 38.0949, Lon: -122.1441}},
			{Key: "blue_rock_springs", Label: "Blue Rock Springs (07/04/1969)", Point: geo.Point{Lat: 38.1260, Lon: -122.1911}},
			{Key: "lake_berryessa", Label: "Lake Berryessa (09/27/1969)", Point: geo.Point{Lat: 38.5636, Lon: -122.2317}},
			{Key: "presidio_heights", Label: "Presidio Heights (10/11/1969)", Point: geo.Point{Lat: 37.7887, Lon: -122.4571}},
		},
		Landmarks: Landmarks{
			Z32Solution:     geo.Point{Lat: 38.109952, Lon: -122.185349},
			TriangleAnomaly: geo.Point{Lat: 38.111152764676, Lon: -122.18781609349446},
		},
		MonteCarloSamples: 1_000_000,
		MonteCarloSeed:    32,
	}
}

// Sphere 返回按 EarthRadiusMiles 构造的球面模型。
func (a Assumptions) Sphere() geo.Sphere { return geo.Sphere{RadiusMiles: a.EarthRadiusMiles} }

// Region 返回边界过滤区域：配置了多边形时用多边形，否则用矩形。
func (a Assumptions) Region() geo.Region {
	if len(a.Polygon) > 0 {
		return geo.Polygon{Vertices: a.Polygon}
	}
	return a.Bounds
}

// Constraint 构造锁约束。
func (a Assumptions) Constraint() (lock.Constraint, error) {
	return lock.NewConstraint(a.CipherLength, a.Locks)
}

// Lexicon 构造文法。
func (a Assumptions) Lexicon() (*lexicon.Grammar, error) {
	if a.Prefixes == nil {
		return lexicon.Default(a.Grammar), nil
	}
	return lexicon.WithPrefixes(a.Prefixes, a.Grammar)
}

// Reference 按 key 查找参考点。
func (a Assumptions) Reference(key string) (ReferencePoint, bool) {
	for _, r := range a.ReferencePoints {
		if r.Key == key {
			return r, true
		}
	}
	return ReferencePoint{}, false
}

var (
	ErrNonPositive   = errors.New("config: value must be positive")
	ErrUnknownRule   = errors.New("config: unknown scoring rule")
	ErrWeightRange   = errors.New("config: nearest_weight must be within [0,1]")
	ErrNoReferences  = errors.New("config: at least one reference point is required")
	ErrDuplicateKey  = errors.New("config: duplicate reference point key")
	ErrAnchorInvalid = errors.New("config: anchor outside WGS84 range")
	ErrNotFinite     = errors.New("config: value must be finite")
)

// checkFinite 拒绝 NaN/Inf：它们能通过大小比较，但会让投影静默产出 NaN 坐标。
func (a Assumptions) checkFinite() error {
	type field struct {
		name string
		v    float64
	}
	fs := []field{
		{"earth_radius_mi", a.EarthRadiusMiles},
		{"anchor.lat", a.Anchor.Point.Lat},
		{"anchor.lon", a.Anchor.Point.Lon},
		{"declination_deg", a.Anchor.DeclinationDeg},
		{"clock_reference_deg", a.ClockReferenceDeg},
		{"map_scale_mi_per_in", a.MapScaleMilesPerInch},
		{"bounds.south", a.Bounds.South},
		{"bounds.north", a.Bounds.North},
		{"bounds.west", a.Bounds.West},
		{"bounds.east", a.Bounds.East},
		{"scoring.nearest_weight", a.Scoring.NearestWeight},
		{"landmarks.z32_solution.lat", a.Landmarks.Z32Solution.Lat},
		{"landmarks.z32_solution.lon", a.Landmarks.Z32Solution.Lon},
		{"landmarks.triangle_anomaly.lat", a.Landmarks.TriangleAnomaly.Lat},
		{"landmarks.triangle_anomaly.lon", a.Landmarks.TriangleAnomaly.Lon},
	}
	for i, p := range a.Polygon {
		fs = append(fs,
			field{fmt.Sprintf("polygon[%d].lat", i), p.Lat},
			field{fmt.Sprintf("polygon[%d].lon", i), p.Lon})
	}
	for _, r := range a.ReferencePoints {
		fs = append(fs,
			field{"reference_points." + r.Key + ".lat", r.Point.Lat},
			field{"reference_points." + r.Key + ".lon", r.Point.Lon})
	}
	for _, f := range fs {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrNotFinite, f.name, f.v)
		}
	}
	return nil
}

// Validate 检查所有配置不变量；任一失败都应拒绝运行。
func (a Assumptions) Validate() error {
	if err := a.checkFinite(); err != nil {
		return err
	}
	if !(a.EarthRadiusMiles > 0) {
		return fmt.Errorf("%w: earth_radius_mi=%v", ErrNonPositive, a.EarthRadiusMiles)
	}
	if !(a.MapScaleMilesPerInch > 0) {
		return fmt.Errorf("%w: map_scale_mi_per_in=%v", ErrNonPositive, a.MapScaleMilesPerInch)
	}
	p := a.Anchor.Point
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: %+v", ErrAnchorInvalid, p)
	}
	if err := a.Bounds.Validate(); err != nil {
		return err
	}
	if len(a.Polygon) > 0 {
		if err := (geo.Polygon{Vertices: a.Polygon}).Validate(); err != nil {
			return err
		}
	}
	if _, err := a.Constraint(); err != nil {
		return err
	}
	if _, err := a.Lexicon(); err != nil {
		return err
	}
	switch a.Scoring.Rule {
	case RuleNearest, RuleMean, RuleBlend:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRule, a.Scoring.Rule)
	}
	if a.Scoring.NearestWeight < 0 || a.Scoring.NearestWeight > 1 {
		return fmt.Errorf("%w: %v", ErrWeightRange, a.Scoring.NearestWeight)
	}
	if len(a.ReferencePoints) == 0 {
		return ErrNoReferences
	}
	seen := map[string]struct{}{}
	for _, r := range a.ReferencePoints {
		if _, ok := seen[r.Key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, r.Key)
		}
		seen[r.Key] = struct{}{}
	}
	if a.MonteCarloSamples < 0 {
		return fmt.Errorf("%w: monte_carlo_samples=%d", ErrNonPositive, a.MonteCarloSamples)
	}
	return nil
}
