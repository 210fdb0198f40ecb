package verify

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/John-Robertt/Z32/internal/geo"
)

// mcCheckEvery 是抽样循环中检查取消的间隔。
const mcCheckEvery = 1 << 16

// monteCarlo 在 Mt. Diablo–Lake Berryessa–Presidio 三角形内均匀撒点，
// 统计与 LHR–BRS 构成近等边三角形（三个内角都在 60°±tol 内）的比例。
// 平面坐标以 origin（三角形质心）为原点。
func (c calc) monteCarlo(ctx context.Context, origin geo.Point) (MonteCarlo, error) {
	n := c.a.MonteCarloSamples
	seed := c.a.MonteCarloSeed
	mc := MonteCarlo{
		Region:       "operational_triangle_md_lb_ph",
		FixedEdge:    "LHR_BRS",
		ToleranceDeg: equilateralTolDeg,
		Samples:      n,
		Seed:         seed,
	}

	ta := geo.ToLocalMiles(c.md, origin)
	tb := geo.ToLocalMiles(c.sc.lb.Point, origin)
	tc := geo.ToLocalMiles(c.sc.ph.Point, origin)
	lhr := geo.ToLocalMiles(c.sc.lhr.Point, origin)
	brs := geo.ToLocalMiles(c.sc.brs.Point, origin)
	base := lhr.Dist(brs)

	rng := rand.New(rand.NewPCG(seed, seed))
	for i := 0; i < n; i++ {
		if i%mcCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return MonteCarlo{}, err
			}
		}
		p := geo.SampleInTriangle(ta, tb, tc, rng)
		d1, d2 := lhr.Dist(p), brs.Dist(p)
		if nearEquilateral(base, d1, d2, equilateralTolDeg) {
			mc.Hits++
		}
	}

	if n > 0 {
		mc.Probability = float64(mc.Hits) / float64(n)
		mc.StandardError = math.Sqrt(mc.Probability * (1 - mc.Probability) / float64(n))
	}
	if mc.Probability > 0 {
		odds := 1 / mc.Probability
		mc.Odds = &odds
	}
	return mc, nil
}

// nearEquilateral 判断边长为 base、d1、d2 的三角形三个内角是否都在 60°±tol 内。
func nearEquilateral(base, d1, d2, tol float64) bool {
	for _, a := range [3]float64{
		geo.AngleFromSides(base, d1, d2),
		geo.AngleFromSides(base, d2, d1),
		geo.AngleFromSides(d1, d2, base),
	} {
		if math.Abs(a-60) > tol {
			return false
		}
	}
	return true
}
