// Package projector 把候选解析为（距离, 钟点）向量，并从锚点做测地正解投影。
package projector

import (
	"errors"
	"fmt"

	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/geo"
	"github.com/John-Robertt/Z32/internal/lexicon"
)

// ErrTemplateMismatch 表示模板与词表对不上（缺少必需槽位）。这是程序缺陷，整次运行应中止。
var ErrTemplateMismatch = errors.New("projector: template does not provide required field")

// Projector 把候选的时钟方位与距离投影为锚点出发的大地坐标。
type Projector struct {
	sphere   geo.Sphere
	anchor   geo.Point
	decl     float64
	clockRef float64
	scale    float64
}

// New 从已校验的假设中取出锚点、磁偏角、钟面基准与比例尺。
func New(a config.Assumptions) *Projector {
	return &Projector{
		sphere:   a.Sphere(),
		anchor:   a.Anchor.Point,
		decl:     a.Anchor.DeclinationDeg,
		clockRef: a.ClockReferenceDeg,
		scale:    a.MapScaleMilesPerInch,
	}
}

// Vector 提取 magnitude + fraction（英寸）与钟点，并换算方位：
// mag = (hour mod 12)*30 + clockRef；true = mag + 磁偏角（归一到 [0,360)）。
func (p *Projector) Vector(c lexicon.Candidate) (domain.GeoVector, error) {
	mag, ok := c.Field(lexicon.Magnitude)
	if !ok {
		return domain.GeoVector{}, mismatch(c, lexicon.Magnitude)
	}
	frac, ok := c.Field(lexicon.Fraction)
	if !ok {
		return domain.GeoVector{}, mismatch(c, lexicon.Fraction)
	}
	hour, ok := c.Field(lexicon.ClockHour)
	if !ok {
		return domain.GeoVector{}, mismatch(c, lexicon.ClockHour)
	}

	h := int(hour.Value)
	inches := mag.Value + frac.Value
	magBearing := geo.ClockToBearing(h, p.clockRef)
	return domain.GeoVector{
		DistanceInches: inches,
		DistanceMiles:  inches * p.scale,
		ClockHour:      h,
		MagBearingDeg:  magBearing,
		TrueBearingDeg: geo.NormalizeBearing(magBearing + p.decl),
	}, nil
}

// Project 计算向量并投影到地面坐标。
func (p *Projector) Project(c lexicon.Candidate) (domain.Projected, error) {
	v, err := p.Vector(c)
	if err != nil {
		return domain.Projected{}, err
	}
	return domain.Projected{
		Index:    c.Index,
		Text:     c.Text,
		Readable: c.Readable(),
		Family:   c.Family,
		Vector:   v,
		Point:    p.sphere.Project(p.anchor, v.TrueBearingDeg, v.DistanceMiles),
	}, nil
}

// ProjectVector 直接投影一个已知向量（校验与 lock 命令使用）。
func (p *Projector) ProjectVector(inches float64, hour int) (domain.GeoVector, geo.Point) {
	magBearing := geo.ClockToBearing(hour, p.clockRef)
	v := domain.GeoVector{
		DistanceInches: inches,
		DistanceMiles:  inches * p.scale,
		ClockHour:      hour,
		MagBearingDeg:  magBearing,
		TrueBearingDeg: geo.NormalizeBearing(magBearing + p.decl),
	}
	return v, p.sphere.Project(p.anchor, v.TrueBearingDeg, v.DistanceMiles)
}

func mismatch(c lexicon.Candidate, cat lexicon.Category) error {
	return fmt.Errorf("%w: family %s has no %s slot (index %d %q)", ErrTemplateMismatch, c.Family, cat, c.Index, c.Text)
}

// CheckGrammar 在运行前确认每个模板族都带有投影所需的槽位。
func CheckGrammar(g *lexicon.Grammar) error {
	for _, f := range g.Families {
		for _, need := range []lexicon.Category{lexicon.Magnitude, lexicon.Fraction, lexicon.ClockHour} {
			found := false
			for _, s := range f.Slots {
				if s == need {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: family %s has no %s slot", ErrTemplateMismatch, f.ID, need)
			}
		}
	}
	return nil
}
