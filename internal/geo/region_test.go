package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bay = Rect{South: 37.3, North: 38.8, West: -123.0, East: -121.0}

func TestRect_Contains(t *testing.T) {
	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Point{38.1, -122.2}, true},
		{"south edge", Point{37.3, -122.0}, true},
		{"north-east corner", Point{38.8, -121.0}, true},
		{"west edge", Point{38.0, -123.0}, true},
		{"just outside north", Point{38.8000001, -122.0}, false},
		{"just outside east", Point{38.0, -120.9999999}, false},
		{"antipode", Point{-38.1, 57.8}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, bay.Contains(c.p))
		})
	}
}

func TestRect_Validate(t *testing.T) {
	require.NoError(t, bay.Validate())
	assert.ErrorIs(t, Rect{South: 38, North: 37, West: -123, East: -121}.Validate(), ErrEmptyRect)
	assert.ErrorIs(t, Rect{South: 37, North: 95, West: -123, East: -121}.Validate(), ErrOutOfWGS84Span)
}

func TestRect_AreaSqMiles(t *testing.T) {
	// 1.5° × 2.0° @38°N
	assert.InDelta(t, 1.5*69*2.0*69*0.788010753606722, bay.AreaSqMiles(38), 1e-6)
}

func TestPolygon_ContainsClosedBoundary(t *testing.T) {
	sq := Polygon{Vertices: []Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}}}
	require.NoError(t, sq.Validate())

	assert.True(t, sq.Contains(Point{5, 5}))
	assert.True(t, sq.Contains(Point{0, 5}), "edge")
	assert.True(t, sq.Contains(Point{10, 10}), "vertex")
	assert.False(t, sq.Contains(Point{10.5, 5}))
	assert.False(t, sq.Contains(Point{-45, -170}))
}

func TestPolygon_Validate(t *testing.T) {
	assert.ErrorIs(t, Polygon{Vertices: []Point{{0, 0}, {1, 1}}}.Validate(), ErrPolygonTooFew)
	assert.False(t, Polygon{}.Contains(Point{0, 0}))
}

func TestRegion_MatchesRectAsPolygon(t *testing.T) {
	poly := Polygon{Vertices: []Point{
		{bay.South, bay.West}, {bay.North, bay.West}, {bay.North, bay.East}, {bay.South, bay.East},
	}}
	for _, p := range []Point{{38.1, -122.2}, {37.3, -121.5}, {39, -122}, {38, -124}} {
		var r1, r2 Region = bay, poly
		assert.Equal(t, r1.Contains(p), r2.Contains(p), "p=%+v", p)
	}
}
