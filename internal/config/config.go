// Package config 负责发现/读取 z32.yaml，并与 CLI 参数合并为一次运行的最终配置。
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/Z32/internal/geo"
	"github.com/John-Robertt/Z32/internal/lexicon"
	"github.com/John-Robertt/Z32/internal/lock"
)

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultFileName 是在 cwd 下自动发现的配置文件名（可选）。
	DefaultFileName = "z32.yaml"
	// DefaultShards 是索引空间的默认分片数。
	DefaultShards = 64
	// DefaultOutDir 是结果文件的默认输出目录。
	DefaultOutDir = "output"
	// MaxWorkers 是 worker 数的上限。
	MaxWorkers = 64
)

// CLIArgs 保留“是否显式指定”的信息，保证 CLI 可以覆盖配置文件中的同名项（包括置零）。
type CLIArgs struct {
	ConfigPath string

	OutDir    string
	OutDirSet bool

	Workers    int
	WorkersSet bool

	Shards    int
	ShardsSet bool

	MonteCarloSamples    int
	MonteCarloSamplesSet bool
}

// FileConfig 对应 z32.yaml。所有字段都是可选覆盖项：未出现的字段沿用 Default()。
type FileConfig struct {
	EarthRadiusMiles     *float64          `yaml:"earth_radius_mi"`
	Anchor               *geo.Point        `yaml:"anchor"`
	DeclinationDeg       *float64          `yaml:"declination_deg"`
	ClockReferenceDeg    *float64          `yaml:"clock_reference_deg"`
	MapScaleMilesPerInch *float64          `yaml:"map_scale_mi_per_in"`
	Bounds               *geo.Rect         `yaml:"bounds"`
	Polygon              []geo.Point       `yaml:"polygon"`
	CipherLength         *int              `yaml:"cipher_length"`
	Locks                *[]lock.Pair      `yaml:"locks"`
	Prefixes             *[]string         `yaml:"prefixes"`
	Grammar              *lexicon.Rules    `yaml:"grammar"`
	ExcludeZeroFraction  *bool             `yaml:"exclude_zero_with_fraction"`
	Scoring              *FileScoring      `yaml:"scoring"`
	ReferencePoints      *[]ReferencePoint `yaml:"reference_points"`
	Landmarks            *Landmarks        `yaml:"landmarks"`
	MonteCarloSamples    *int              `yaml:"monte_carlo_samples"`
	MonteCarloSeed       *uint64           `yaml:"monte_carlo_seed"`

	Workers  int    `yaml:"workers"`
	Shards   int    `yaml:"shards"`
	OutDir   string `yaml:"out_dir"`
	ProxyURL string `yaml:"proxy_url"`
}

// FileScoring 是 scoring 的文件形式：只覆盖出现的字段，未写 nearest_weight 时保留默认权重。
type FileScoring struct {
	Rule          string   `yaml:"rule"`
	NearestWeight *float64 `yaml:"nearest_weight"`
}

// EffectiveConfig 是合并后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；未使用配置文件时为空。
	ConfigPath string

	Assumptions Assumptions

	Workers  int
	Shards   int
	OutDir   string
	ProxyURL string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			if e.Path == "" {
				return fmt.Sprintf("%s：%v", e.Code, e.Err)
			}
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试 <cwd>/z32.yaml（可选）
//
// 覆盖优先级（固定）：CLI > 配置文件 > Default()。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath  string
		required bool
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	} else {
		cfgPath = filepath.Join(cwdAbs, DefaultFileName)
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		cfgPath = ""
	}
	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	a := fc.apply(Default())
	if cli.MonteCarloSamplesSet {
		a.MonteCarloSamples = cli.MonteCarloSamples
	}
	if err := a.Validate(); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	workers := fc.Workers
	if cli.WorkersSet {
		workers = cli.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(max(workers, 1), MaxWorkers)

	shards := fc.Shards
	if cli.ShardsSet {
		shards = cli.Shards
	}
	if shards <= 0 {
		shards = DefaultShards
	}

	outDir := DefaultOutDir
	if cli.OutDirSet && strings.TrimSpace(cli.OutDir) != "" {
		outDir = cli.OutDir
	} else if strings.TrimSpace(fc.OutDir) != "" {
		outDir = fc.OutDir
	}

	proxyURL := strings.TrimSpace(fc.ProxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy_url 无效：%q", proxyURL)}
		}
	}

	return EffectiveConfig{
		ConfigPath:  cfgPath,
		Assumptions: a,
		Workers:     workers,
		Shards:      shards,
		OutDir:      absCleanFrom(cwdAbs, outDir),
		ProxyURL:    proxyURL,
	}, nil
}

// apply 把文件中出现的字段覆盖到 base 上。
func (fc FileConfig) apply(a Assumptions) Assumptions {
	if fc.EarthRadiusMiles != nil {
		a.EarthRadiusMiles = *fc.EarthRadiusMiles
	}
	if fc.Anchor != nil {
		a.Anchor.Point = *fc.Anchor
	}
	if fc.DeclinationDeg != nil {
		a.Anchor.DeclinationDeg = *fc.DeclinationDeg
	}
	if fc.ClockReferenceDeg != nil {
		a.ClockReferenceDeg = *fc.ClockReferenceDeg
	}
	if fc.MapScaleMilesPerInch != nil {
		a.MapScaleMilesPerInch = *fc.MapScaleMilesPerInch
	}
	if fc.Bounds != nil {
		a.Bounds = *fc.Bounds
	}
	if len(fc.Polygon) > 0 {
		a.Polygon = append([]geo.Point(nil), fc.Polygon...)
	}
	if fc.CipherLength != nil {
		a.CipherLength = *fc.CipherLength
	}
	if fc.Locks != nil {
		a.Locks = append([]lock.Pair(nil), (*fc.Locks)...)
	}
	if fc.Prefixes != nil {
		a.Prefixes = append([]string{}, (*fc.Prefixes)...)
	}
	if fc.Grammar != nil {
		a.Grammar = *fc.Grammar
	}
	if fc.ExcludeZeroFraction != nil {
		a.Grammar.ExcludeZeroWithFraction = *fc.ExcludeZeroFraction
	}
	if fc.Scoring != nil {
		if fc.Scoring.Rule != "" {
			a.Scoring.Rule = fc.Scoring.Rule
		}
		if fc.Scoring.NearestWeight != nil {
			a.Scoring.NearestWeight = *fc.Scoring.NearestWeight
		}
	}
	if fc.ReferencePoints != nil {
		a.ReferencePoints = append([]ReferencePoint{}, (*fc.ReferencePoints)...)
	}
	if fc.Landmarks != nil {
		a.Landmarks = *fc.Landmarks
	}
	if fc.MonteCarloSamples != nil {
		a.MonteCarloSamples = *fc.MonteCarloSamples
	}
	if fc.MonteCarloSeed != nil {
		a.MonteCarloSeed = *fc.MonteCarloSeed
	}
	return a
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件；未知字段视为错误。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		// 空文件等价于空配置。
		if errors.Is(err, io.EOF) {
			return FileConfig{}, true, nil
		}
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
