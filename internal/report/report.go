// Package report 负责把求解/校验结果组装为稳定的输出文件（JSON/CSV/KML）。
//
// 所有写入都经过 fsx 原子写：中途失败不会留下半个文件。
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/John-Robertt/Z32/internal/app/run"
	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/infra/fsx"
	"github.com/John-Robertt/Z32/internal/kml"
)

// 输出文件名（与已发布的目录结构一致）。
const (
	SolveJSONName  = "z32_results.json"
	SolveCSVName   = "z32_results.csv"
	SolveKMLName   = "z32_survivors.kml"
	VerifyJSONName = "verify_results.json"
	ClaimMapName   = "claim_map.json"
)

// Build 把一次运行结果组装为 SolveReport。
func Build(res run.Result, eff config.EffectiveConfig, runID string) domain.SolveReport {
	a := eff.Assumptions
	locks := make([][2]int, 0, len(a.Locks))
	for _, p := range a.Locks {
		locks = append(locks, [2]int{p.I, p.J})
	}
	rep := domain.SolveReport{
		Metadata: domain.Metadata{
			RunID:      runID,
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
			ConfigPath: eff.ConfigPath,
		},
		Constants: domain.Constants{
			Anchor:           [2]float64{a.Anchor.Point.Lat, a.Anchor.Point.Lon},
			MagDeclination:   a.Anchor.DeclinationDeg,
			MapScale:         a.MapScaleMilesPerInch,
			EarthRadiusMiles: a.EarthRadiusMiles,
			Locks:            locks,
			Bounds:           [4]float64{a.Bounds.South, a.Bounds.North, a.Bounds.West, a.Bounds.East},
			ScoringRule:      a.Scoring.Rule,
		},
		ClockHours: res.ClockHours,
		Survivors:  res.Survivors,
	}
	if g := res.Grammar; g != nil {
		rep.LexiconSizes = domain.LexiconSizes{
			Integers:  len(g.Magnitudes),
			Fractions: len(g.Fractions),
			Prefixes:  len(g.Prefixes),
			RadUnits:  len(g.AngleUnits),
			DistUnits: len(g.DistanceUnits),
			Families:  len(g.Families),
			Forms:     len(g.Forms),
		}
	}
	rep.Finalize(res.Funnel)
	return rep
}

// CSVHeader 返回表头：固定列 + 每个参考点一列距离。
func CSVHeader(refs []config.ReferencePoint) []string {
	h := []string{
		"rank", "score", "plaintext", "phrase", "template", "distance_in", "clock_hour",
		"latitude", "longitude", "nearest_scene", "nearest_mi",
	}
	for _, r := range refs {
		h = append(h, "dist_"+r.Key+"_mi")
	}
	return h
}

// WriteCSV 写出幸存者表。数值格式固定，保证不同 worker/分片数下字节一致。
//
// 距离列按 refs 的顺序按 key 查找；缺失的 key 写空串。
func WriteCSV(w io.Writer, survivors []domain.ScoredCandidate, refs []config.ReferencePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader(refs)); err != nil {
		return err
	}
	for _, s := range survivors {
		row := []string{
			strconv.Itoa(s.Rank),
			strconv.FormatFloat(s.Score, 'f', 4, 64),
			s.Readable,
			s.Text,
			s.Family,
			strconv.FormatFloat(s.Vector.DistanceInches, 'f', -1, 64),
			strconv.Itoa(s.Vector.ClockHour),
			strconv.FormatFloat(s.Point.Lat, 'f', 6, 64),
			strconv.FormatFloat(s.Point.Lon, 'f', 6, 64),
			s.Nearest.Label,
			strconv.FormatFloat(s.Nearest.Miles, 'f', 2, 64),
		}
		for _, r := range refs {
			row = append(row, distanceTo(s.Distances, r.Key))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func distanceTo(ds []domain.SceneDistance, key string) string {
	for _, d := range ds {
		if d.Key == key {
			return strconv.FormatFloat(d.Miles, 'f', 2, 64)
		}
	}
	return ""
}

// MarshalJSON 以两空格缩进编码，并以换行结尾。
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON 原子写 dir/name。
func WriteJSON(dir, name string, v any) error {
	b, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := fsx.WriteFileAtomic(dir, name, b); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Paths 是一次 solve 实际写出的文件。
type Paths struct {
	JSON string `json:"json"`
	CSV  string `json:"csv"`
	KML  string `json:"kml,omitempty"`
}

// SaveSolve 写出 z32_results.json 与 z32_results.csv；withKML 时额外写 KML。
func SaveSolve(dir string, rep domain.SolveReport, a config.Assumptions, withKML bool) (Paths, error) {
	var p Paths
	if err := WriteJSON(dir, SolveJSONName, rep); err != nil {
		return p, err
	}
	p.JSON = filepath.Join(dir, SolveJSONName)

	err := fsx.WriteAtomicFunc(dir, SolveCSVName, func(w io.Writer) error {
		return WriteCSV(w, rep.Survivors, a.ReferencePoints)
	})
	if err != nil {
		return p, fmt.Errorf("write %s: %w", SolveCSVName, err)
	}
	p.CSV = filepath.Join(dir, SolveCSVName)

	if withKML {
		b, err := kml.Encode(a, rep.Survivors, rep.ClockHours)
		if err != nil {
			return p, err
		}
		if err := fsx.WriteFileAtomic(dir, SolveKMLName, b); err != nil {
			return p, fmt.Errorf("write %s: %w", SolveKMLName, err)
		}
		p.KML = filepath.Join(dir, SolveKMLName)
	}
	return p, nil
}

// LoadSolve 读取已保存的 z32_results.json（verify/claims 的 --skip-run 使用）。
func LoadSolve(path string) (domain.SolveReport, error) {
	var rep domain.SolveReport
	err := ReadJSON(path, &rep)
	return rep, err
}

// ReadJSON 读取 JSON 文件到 v。
func ReadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
