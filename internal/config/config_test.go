package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/Z32/internal/geo"
	"github.com/John-Robertt/Z32/internal/lexicon"
	"github.com/John-Robertt/Z32/internal/lock"
)

func TestDefault_Valid(t *testing.T) {
	a := Default()
	if err := a.Validate(); err != nil {
		t.Fatalf("默认假设应合法：%v", err)
	}
	g, err := a.Lexicon()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if g.Count() != 2044224 {
		t.Fatalf("期望 2044224，实际 %d", g.Count())
	}
	if _, ok := a.Region().(geo.Rect); !ok {
		t.Fatalf("未配置多边形时应使用矩形")
	}
}

func TestLoadEffective_NoConfigUsesDefaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigPath != "" {
		t.Fatalf("不应读取配置文件，实际 %q", eff.ConfigPath)
	}
	if eff.Shards != DefaultShards || eff.Workers < 1 {
		t.Fatalf("默认值不符：%+v", eff)
	}
	if eff.OutDir != filepath.Join(cwd, DefaultOutDir) {
		t.Fatalf("期望 out=%q，实际 %q", filepath.Join(cwd, DefaultOutDir), eff.OutDir)
	}
	if eff.Assumptions.MapScaleMilesPerInch != 6.4 {
		t.Fatalf("期望默认比例尺 6.4，实际 %v", eff.Assumptions.MapScaleMilesPerInch)
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{ConfigPath: "missing.yaml"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("应可 unwrap 到 os.ErrNotExist：%v", err)
	}
}

func TestLoadEffective_FileOverrides(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(`
map_scale_mi_per_in: 6.5
declination_deg: 16.5
exclude_zero_with_fraction: true
scoring:
  rule: blend
  nearest_weight: 0.25
workers: 3
shards: 9
out_dir: res
`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	a := eff.Assumptions
	if a.MapScaleMilesPerInch != 6.5 || a.Anchor.DeclinationDeg != 16.5 || !a.Grammar.ExcludeZeroWithFraction {
		t.Fatalf("文件覆盖未生效：%+v", a)
	}
	if a.Scoring != (Scoring{Rule: RuleBlend, NearestWeight: 0.25}) {
		t.Fatalf("scoring 不符：%+v", a.Scoring)
	}
	if eff.Workers != 3 || eff.Shards != 9 || eff.OutDir != filepath.Join(cwd, "res") {
		t.Fatalf("运行参数不符：%+v", eff)
	}
	// 未出现的字段保持默认。
	if a.EarthRadiusMiles != geo.EarthRadiusMiles || len(a.ReferencePoints) != 4 {
		t.Fatalf("未覆盖字段被改动：%+v", a)
	}
}

func TestValidate_NonFinitePoints(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name   string
		mutate func(a *Assumptions)
	}{
		{"anchor", func(a *Assumptions) { a.Anchor.Point.Lat = nan }},
		{"polygon", func(a *Assumptions) {
			a.Polygon = []geo.Point{{Lat: 38, Lon: -122}, {Lat: 38.5, Lon: nan}, {Lat: 38, Lon: -121.5}}
		}},
		{"reference", func(a *Assumptions) {
			a.ReferencePoints = append([]ReferencePoint(nil), a.ReferencePoints...)
			a.ReferencePoints[0].Point.Lon = math.Inf(-1)
		}},
		{"landmark", func(a *Assumptions) { a.Landmarks.Z32Solution.Lat = math.Inf(1) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := Default()
			c.mutate(&a)
			if err := a.Validate(); !errors.Is(err, ErrNotFinite) {
				t.Fatalf("期望 ErrNotFinite，实际 %v", err)
			}
		})
	}
}

func TestLoadEffective_PartialScoringKeepsWeight(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("scoring: {rule: blend}\n"))
	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := Scoring{Rule: RuleBlend, NearestWeight: Default().Scoring.NearestWeight}
	if eff.Assumptions.Scoring != want {
		t.Fatalf("只写 rule 时权重应保留默认：期望 %+v，实际 %+v", want, eff.Assumptions.Scoring)
	}

	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("scoring: {nearest_weight: 0.5}\n"))
	eff, err = LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Assumptions.Scoring != (Scoring{Rule: RuleNearest, NearestWeight: 0.5}) {
		t.Fatalf("只写权重时 rule 应保留默认：%+v", eff.Assumptions.Scoring)
	}
}

func TestLoadEffective_CLIOverridesFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "alt.yaml"), []byte("workers: 3\nshards: 9\nmonte_carlo_samples: 500\n"))

	eff, err := LoadEffective(cwd, CLIArgs{
		ConfigPath: "alt.yaml",
		Workers:    1, WorkersSet: true,
		Shards: 2, ShardsSet: true,
		MonteCarloSamples: 0, MonteCarloSamplesSet: true,
		OutDir: "/tmp/z32-out", OutDirSet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Workers != 1 || eff.Shards != 2 || eff.Assumptions.MonteCarloSamples != 0 {
		t.Fatalf("CLI 覆盖未生效：%+v", eff)
	}
	if eff.OutDir != "/tmp/z32-out" {
		t.Fatalf("期望绝对路径原样保留，实际 %q", eff.OutDir)
	}
	if eff.ConfigPath != filepath.Join(cwd, "alt.yaml") {
		t.Fatalf("ConfigPath 不符：%q", eff.ConfigPath)
	}
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"lock out of range", "locks:\n  - {i: 0, j: 32}\n", lock.ErrIndexRange},
		{"self pair", "locks:\n  - {i: 4, j: 4}\n", lock.ErrSelfPair},
		{"non-positive scale", "map_scale_mi_per_in: 0\n", ErrNonPositive},
		{"bad bounds", "bounds: {south: 38.8, north: 37.3, west: -123, east: -121}\n", geo.ErrEmptyRect},
		{"unknown rule", "scoring: {rule: closest}\n", ErrUnknownRule},
		{"weight range", "scoring: {rule: blend, nearest_weight: 1.5}\n", ErrWeightRange},
		{"empty prefixes", "prefixes: []\n", lexicon.ErrEmptyCategory},
		{"no references", "reference_points: []\n", ErrNoReferences},
		{"polygon too few", "polygon:\n  - {lat: 38, lon: -122}\n  - {lat: 38.5, lon: -122}\n", geo.ErrPolygonTooFew},
		{"inf scale", "map_scale_mi_per_in: .inf\n", ErrNotFinite},
		{"inf radius", "earth_radius_mi: .inf\n", ErrNotFinite},
		{"nan declination", "declination_deg: .nan\n", ErrNotFinite},
		{"nan clock reference", "clock_reference_deg: .nan\n", ErrNotFinite},
		{"nan weight", "scoring: {rule: blend, nearest_weight: .nan}\n", ErrNotFinite},
		{"inf bounds", "bounds: {south: 37.3, north: .inf, west: -123, east: -121}\n", ErrNotFinite},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(c.body))
			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
			}
			if !errors.Is(err, c.want) {
				t.Fatalf("期望包装 %v，实际 %v", c.want, err)
			}
		})
	}
}

func TestLoadEffective_MalformedYAML(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("workers: [1, 2\n"))
	if _, err := LoadEffective(cwd, CLIArgs{}); Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
	}

	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("unknown_field: 1\n"))
	if _, err := LoadEffective(cwd, CLIArgs{}); Code(err) != ErrCodeInvalid {
		t.Fatalf("未知字段应报 %q，实际 err=%v", ErrCodeInvalid, err)
	}

	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("proxy_url: \"::bad\"\n"))
	if _, err := LoadEffective(cwd, CLIArgs{}); Code(err) != ErrCodeInvalid {
		t.Fatalf("非法代理应报 %q，实际 err=%v", ErrCodeInvalid, err)
	}
}

func TestLoadEffective_EmptyFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), nil)
	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("空文件应等价于空配置：%v", err)
	}
	if eff.ConfigPath == "" {
		t.Fatalf("空文件仍应记录路径")
	}
}

func TestAssumptions_PolygonRegion(t *testing.T) {
	a := Default()
	a.Polygon = []geo.Point{{Lat: 37, Lon: -123}, {Lat: 39, Lon: -123}, {Lat: 39, Lon: -121}}
	if err := a.Validate(); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, ok := a.Region().(geo.Polygon); !ok {
		t.Fatalf("配置多边形后应使用多边形")
	}
}

func TestAssumptions_DuplicateReference(t *testing.T) {
	a := Default()
	a.ReferencePoints = append(a.ReferencePoints, a.ReferencePoints[0])
	if err := a.Validate(); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("期望 ErrDuplicateKey，实际 %v", err)
	}
	if r, ok := a.Reference("presidio_heights"); !ok || r.Point.Lat != 37.7887 {
		t.Fatalf("查找参考点失败：%+v", r)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir 失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
}
