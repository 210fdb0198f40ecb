package geo

import (
	"errors"
	"fmt"
	"math"
)

// Region 是静态的地图覆盖范围。边界是闭合的：落在边界上的点视为在内。
type Region interface {
	Contains(p Point) bool
}

// Rect 是经纬度矩形（不处理跨 180° 经线的情况）。
type Rect struct {
	South float64 `json:"south" yaml:"south"`
	North float64 `json:"north" yaml:"north"`
	West  float64 `json:"west" yaml:"west"`
	East  float64 `json:"east" yaml:"east"`
}

var (
	ErrEmptyRect      = errors.New("geo: rect must satisfy south < north and west < east")
	ErrPolygonTooFew  = errors.New("geo: polygon needs at least 3 vertices")
	ErrOutOfWGS84Span = errors.New("geo: coordinate outside lat [-90,90] / lon [-180,180]")
)

// Validate 检查矩形是否非空且坐标合法。
func (r Rect) Validate() error {
	for _, p := range []Point{{r.South, r.West}, {r.North, r.East}} {
		if !validPoint(p) {
			return fmt.Errorf("%w: %+v", ErrOutOfWGS84Span, p)
		}
	}
	if !(r.South < r.North) || !(r.West < r.East) {
		return fmt.Errorf("%w: %+v", ErrEmptyRect, r)
	}
	return nil
}

func (r Rect) Contains(p Point) bool {
	return r.South <= p.Lat && p.Lat <= r.North && r.West <= p.Lon && p.Lon <= r.East
}

// AreaSqMiles 用 69 mi/° 与参考纬度的余弦做平面近似。
func (r Rect) AreaSqMiles(refLat float64) float64 {
	return (r.North - r.South) * 69.0 * (r.East - r.West) * 69.0 * cosDeg(refLat)
}

// Polygon 是经纬度多边形（顶点按顺序，首尾自动闭合）。
type Polygon struct {
	Vertices []Point `json:"vertices" yaml:"vertices"`
}

func (g Polygon) Validate() error {
	if len(g.Vertices) < 3 {
		return ErrPolygonTooFew
	}
	for _, v := range g.Vertices {
		if !validPoint(v) {
			return fmt.Errorf("%w: %+v", ErrOutOfWGS84Span, v)
		}
	}
	return nil
}

// Contains 先判断是否落在某条边上（闭合边界），再做射线法奇偶判断。
func (g Polygon) Contains(p Point) bool {
	n := len(g.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := g.Vertices[i], g.Vertices[j]
		if onSegment(p, a, b) {
			return true
		}
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lon-a.Lon)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lon
			if p.Lon < x {
				inside = !inside
			}
		}
	}
	return inside
}

const segmentEps = 1e-12

func onSegment(p, a, b Point) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if cross > segmentEps || cross < -segmentEps {
		return false
	}
	return p.Lon >= minf(a.Lon, b.Lon)-segmentEps && p.Lon <= maxf(a.Lon, b.Lon)+segmentEps &&
		p.Lat >= minf(a.Lat, b.Lat)-segmentEps && p.Lat <= maxf(a.Lat, b.Lat)+segmentEps
}

func validPoint(p Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func cosDeg(d float64) float64 { return math.Cos(rad(d)) }
