package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestSolveReport_Finalize_FunnelAndUTC(t *testing.T) {
	r := SolveReport{
		Metadata: Metadata{
			StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
			FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		},
		Survivors: []ScoredCandidate{{Rank: 1}, {Rank: 2}},
	}
	f := Funnel{Total: 2044224, PassedLength: 154572, PassedLocks: 61, PassedBounds: 54}

	r.Finalize(f)

	if r.Metadata.NumSurvivors != 2 || r.Metadata.PassedLocks != 61 || r.Metadata.SolverVersion != SolverVersion {
		t.Fatalf("metadata 不正确：%+v", r.Metadata)
	}
	if math.Abs(r.Metadata.RejectionRatePct-99.9974) > 1e-4 {
		t.Fatalf("rejection rate 不正确：%v", r.Metadata.RejectionRatePct)
	}
	if r.Funnel() != f {
		t.Fatalf("Funnel() 应还原计数：%+v", r.Funnel())
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
	// 空分组输出 [] 而不是 null。
	if !bytes.Contains(b, []byte("\"clock_hours\":[]")) {
		t.Fatalf("clock_hours 应为 []：%s", string(b))
	}
}

func TestFunnel_AddAndRates(t *testing.T) {
	var f Funnel
	f.Add(Funnel{Total: 10, PassedLength: 5, PassedLocks: 2, PassedBounds: 1})
	f.Add(Funnel{Total: 30, PassedLength: 1, PassedLocks: 1, PassedBounds: 1})
	if f != (Funnel{Total: 40, PassedLength: 6, PassedLocks: 3, PassedBounds: 2}) {
		t.Fatalf("累加不正确：%+v", f)
	}
	if f.SurvivalRate() != 0.05 {
		t.Fatalf("survival rate 不正确：%v", f.SurvivalRate())
	}
	if (Funnel{}).RejectionRatePct() != 0 || (Funnel{}).SurvivalRate() != 0 {
		t.Fatalf("空漏斗应返回 0")
	}
}

func TestScoredCandidate_JSONFlattensProjected(t *testing.T) {
	sc := ScoredCandidate{Rank: 1, Projected: Projected{Index: 7, Text: "X", Family: "A"}}
	b, err := json.Marshal(sc)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"rank":1`, `"index":7`, `"phrase":"X"`, `"template":"A"`} {
		if !bytes.Contains(b, []byte(want)) {
			t.Fatalf("缺少 %s：%s", want, b)
		}
	}
}
