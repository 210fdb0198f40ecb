package domain

import (
	"encoding/json"
	"time"
)

// SolverVersion 写入报告元数据。
const SolverVersion = "2.0"

// SolveReport 是对外稳定输出（z32_results.json / stdout JSON）的结构。
type SolveReport struct {
	Metadata     Metadata          `json:"metadata"`
	Constants    Constants         `json:"constants"`
	LexiconSizes LexiconSizes      `json:"lexicon_sizes"`
	ClockHours   []ClockHourGroup  `json:"clock_hours"`
	Survivors    []ScoredCandidate `json:"survivors"`
}

type Metadata struct {
	RunID            string    `json:"run_id"`
	SolverVersion    string    `json:"solver_version"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	ConfigPath       string    `json:"config_path,omitempty"`
	TotalCandidates  int       `json:"total_candidates"`
	PassedLength     int       `json:"passed_length"`
	PassedLocks      int       `json:"passed_locks"`
	PassedBounds     int       `json:"passed_bounds"`
	RejectionRatePct float64   `json:"rejection_rate_pct"`
	NumSurvivors     int       `json:"num_survivors"`
}

type Constants struct {
	Anchor           [2]float64 `json:"anchor"`
	MagDeclination   float64    `json:"mag_declination"`
	MapScale         float64    `json:"map_scale_mi_per_inch"`
	EarthRadiusMiles float64    `json:"earth_radius_mi"`
	Locks            [][2]int   `json:"locks"`
	Bounds           [4]float64 `json:"bounds"`
	ScoringRule      string     `json:"scoring_rule"`
}

type LexiconSizes struct {
	Integers  int `json:"integers"`
	Fractions int `json:"fractions"`
	Prefixes  int `json:"prefixes"`
	RadUnits  int `json:"rad_units"`
	DistUnits int `json:"dist_units"`
	Families  int `json:"families"`
	Forms     int `json:"forms"`
}

// ClockHourGroup 是按钟点分组的幸存者统计。
type ClockHourGroup struct {
	Hour    int      `json:"hour"`
	Count   int      `json:"count"`
	Indexes []int    `json:"indexes"`
	Phrases []string `json:"phrases"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) 元数据中的漏斗计数由 funnel 填入
// 3) NumSurvivors 由 Survivors 计算得出
func (r *SolveReport) Finalize(f Funnel) {
	r.Metadata.StartedAt = r.Metadata.StartedAt.UTC()
	r.Metadata.FinishedAt = r.Metadata.FinishedAt.UTC()
	if r.Metadata.SolverVersion == "" {
		r.Metadata.SolverVersion = SolverVersion
	}
	r.Metadata.TotalCandidates = f.Total
	r.Metadata.PassedLength = f.PassedLength
	r.Metadata.PassedLocks = f.PassedLocks
	r.Metadata.PassedBounds = f.PassedBounds
	r.Metadata.RejectionRatePct = f.RejectionRatePct()
	r.Metadata.NumSurvivors = len(r.Survivors)
	if r.Survivors == nil {
		r.Survivors = []ScoredCandidate{}
	}
	if r.ClockHours == nil {
		r.ClockHours = []ClockHourGroup{}
	}
}

// Funnel 从元数据还原漏斗计数（读取已保存的报告时使用）。
func (r SolveReport) Funnel() Funnel {
	return Funnel{
		Total:        r.Metadata.TotalCandidates,
		PassedLength: r.Metadata.PassedLength,
		PassedLocks:  r.Metadata.PassedLocks,
		PassedBounds: r.Metadata.PassedBounds,
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r SolveReport) MarshalJSON() ([]byte, error) {
	type Alias SolveReport
	return json.Marshal(Alias(r))
}
