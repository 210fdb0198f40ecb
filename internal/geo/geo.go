// Package geo 提供球面近似下的测地计算（距离/方位/正解投影）以及少量平面几何辅助函数。
//
// 约定：
// - 角度一律使用度（degree），距离一律使用英里（mile）
// - 同一个 Sphere 的 Distance / Project 使用同一半径，避免函数间系统偏差
package geo

import (
	"math"
	"math/rand/v2"
)

// EarthRadiusMiles 是地球平均半径（约 6371.0 km）。
// 已发布的数值都基于 3958.8；修改它会让对照值整体漂移。
const EarthRadiusMiles = 3958.8

// Point 是 WGS84 经纬度坐标（度）。
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Sphere 以固定半径描述球面模型。
type Sphere struct {
	RadiusMiles float64
}

// Earth 是默认球面（EarthRadiusMiles）。
var Earth = Sphere{RadiusMiles: EarthRadiusMiles}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

// Distance 用 haversine 公式计算两点的大圆距离（英里）。
//
// 对称性：公式中只出现 dlat/dlon 的平方项与 cos(lat1)cos(lat2)，交换参数后逐项相等。
func (s Sphere) Distance(p1, p2 Point) float64 {
	lat1, lat2 := rad(p1.Lat), rad(p2.Lat)
	dlat := lat2 - lat1
	dlon := rad(p2.Lon) - rad(p1.Lon)
	sa := math.Sin(dlat / 2)
	so := math.Sin(dlon / 2)
	a := sa*sa + math.Cos(lat1)*math.Cos(lat2)*so*so
	if a > 1 {
		a = 1
	}
	return s.RadiusMiles * 2 * math.Asin(math.Sqrt(a))
}

// Project 解测地正问题：从 origin 沿 bearingDeg（真方位）走 miles 英里后的落点。
func (s Sphere) Project(origin Point, bearingDeg, miles float64) Point {
	lat1 := rad(origin.Lat)
	lon1 := rad(origin.Lon)
	brng := rad(bearingDeg)
	d := miles / s.RadiusMiles

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)
	return Point{
		Lat: ClampLatitude(deg(lat2)),
		Lon: WrapLongitude(deg(lon2)),
	}
}

// Distance 使用默认 Earth。
func Distance(p1, p2 Point) float64 { return Earth.Distance(p1, p2) }

// Project 使用默认 Earth。
func Project(origin Point, bearingDeg, miles float64) Point {
	return Earth.Project(origin, bearingDeg, miles)
}

// InitialBearing 返回从 p1 到 p2 的大圆初始真方位，范围 [0, 360)。
func InitialBearing(p1, p2 Point) float64 {
	lat1, lat2 := rad(p1.Lat), rad(p2.Lat)
	dlon := rad(p2.Lon) - rad(p1.Lon)
	x := math.Sin(dlon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	return NormalizeBearing(deg(math.Atan2(x, y)))
}

// MagneticBearing 返回磁方位：真方位减去东偏磁偏角。
func MagneticBearing(p1, p2 Point, declinationEast float64) float64 {
	return NormalizeBearing(InitialBearing(p1, p2) - declinationEast)
}

// BearingToClock 把磁方位换算为连续钟点（每小时 30°）；正北记为 12 而不是 0。
func BearingToClock(magBearingDeg float64) float64 {
	h := magBearingDeg / 30.0
	if math.Abs(h) < 1e-12 {
		return 12
	}
	return h
}

// ClockToBearing 把整点钟点换算为方位：0 点（12 点）对应 referenceDeg。
func ClockToBearing(hour int, referenceDeg float64) float64 {
	h := hour % 12
	if h < 0 {
		h += 12
	}
	return NormalizeBearing(float64(h)*30 + referenceDeg)
}

// NormalizeBearing 把任意角度归一到 [0, 360)。
func NormalizeBearing(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	// -1e-15 之类的输入加 360 后会得到 360。
	if d >= 360 {
		d = 0
	}
	return d
}

// WrapLongitude 把经度归一到 (-180, 180]。
func WrapLongitude(lon float64) float64 {
	if lon > -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon <= 0 {
		lon += 360
	}
	return lon - 180
}

// ClampLatitude 把纬度截断到 [-90, 90]。
func ClampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// AngularSeparation 返回两个方位之间的最小夹角（[0, 180]）。
func AngularSeparation(a, b float64) float64 {
	diff := math.Mod(a-b+180, 360)
	if diff < 0 {
		diff += 360
	}
	return math.Abs(diff - 180)
}

// AngleFromSides 用余弦定理求 opposite 边所对的内角（度）。
func AngleFromSides(adj1, adj2, opposite float64) float64 {
	denom := math.Max(2*adj1*adj2, 1e-12)
	c := (adj1*adj1 + adj2*adj2 - opposite*opposite) / denom
	c = math.Max(-1, math.Min(1, c))
	return deg(math.Acos(c))
}

// XY 是切平面坐标（英里）。
type XY struct {
	X float64
	Y float64
}

// ToLocalMiles 以 origin 为原点做切平面近似（1° ≈ 69 mi），仅适用于湾区尺度。
func ToLocalMiles(p, origin Point) XY {
	return XY{
		X: (p.Lon - origin.Lon) * 69.0 * math.Cos(rad(origin.Lat)),
		Y: (p.Lat - origin.Lat) * 69.0,
	}
}

// Dist 返回平面欧氏距离。
func (a XY) Dist(b XY) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

// SampleInTriangle 在三角形 abc 内均匀采样一个点。
func SampleInTriangle(a, b, c XY, rng *rand.Rand) XY {
	r1, r2 := rng.Float64(), rng.Float64()
	s := math.Sqrt(r1)
	return XY{
		X: (1-s)*a.X + s*(1-r2)*b.X + s*r2*c.X,
		Y: (1-s)*a.Y + s*(1-r2)*b.Y + s*r2*c.Y,
	}
}

// Centroid 返回经纬度的算术平均（小范围内足够）。
func Centroid(pts ...Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c.Lat += p.Lat
		c.Lon += p.Lon
	}
	n := float64(len(pts))
	return Point{Lat: c.Lat / n, Lon: c.Lon / n}
}
