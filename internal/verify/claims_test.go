package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/Z32/internal/domain"
)

func publishedEvidence(t *testing.T) Evidence {
	t.Helper()
	in := publishedInputs()
	rep := domain.SolveReport{Survivors: in.Survivors}
	rep.Finalize(in.Funnel)
	return Evidence{Solve: rep.Metadata, Verify: compute(t)}
}

func TestClaims_TableShape(t *testing.T) {
	claims := Claims()
	assert.Len(t, claims, 36)

	seen := map[string]bool{}
	for _, c := range claims {
		require.False(t, seen[c.ID], "重复的 id：%s", c.ID)
		seen[c.ID] = true
		assert.NotNil(t, c.extract, c.ID)
		assert.NotNil(t, c.compare, c.ID)
	}
}

func TestEvaluate_PublishedValuesPass(t *testing.T) {
	outs := Evaluate(publishedEvidence(t))
	require.Len(t, outs, 36)
	for _, o := range outs {
		assert.True(t, o.ValueOK, "%s: expected=%v actual=%v err=%s", o.ID, o.Expected, o.Actual, o.Error)
	}
	assert.Empty(t, Mismatches(outs))
}

func TestEvaluate_CollectsAllMismatches(t *testing.T) {
	ev := publishedEvidence(t)
	ev.Solve.PassedLocks = 60
	ev.Verify.V10.Timer.OffsetFromPostmark = -4
	ev.Verify.V4.CrimeSceneDistances = nil

	bad := Mismatches(Evaluate(ev))
	var ids []string
	for _, o := range bad {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []string{"passed_locks", "timer_postmark_offset", "dist_brs", "dist_lhr"}, ids)
	for _, o := range bad {
		if o.ID == "dist_brs" {
			assert.Contains(t, o.Error, KeyBlueRockSprings)
		}
	}
}

func TestEvaluate_Tolerances(t *testing.T) {
	ev := publishedEvidence(t)
	// 邮戳偏差允许 ±1 天。
	ev.Verify.V10.Timer.OffsetFromPostmark = -3
	assert.Empty(t, Mismatches(Evaluate(ev)))
}

func TestBuildClaimMap(t *testing.T) {
	outs := Evaluate(publishedEvidence(t))
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	all := BuildClaimMap(outs, "paper.tex", func(string) bool { return true }, now)
	assert.Equal(t, ClaimSummary{Total: 36, Passed: 36, Failed: 0, AllPass: true}, all.Summary)
	assert.Equal(t, "2026-03-04T05:06:07Z", all.GeneratedAt)

	// 正文缺少 "506,000"：只有 zone_odds 失败；没有文本要求的结论不受影响。
	missing := BuildClaimMap(outs, "paper.tex", func(p string) bool { return p != "506,000" }, now)
	assert.False(t, missing.Summary.AllPass)
	assert.Equal(t, 1, missing.Summary.Failed)
	for _, r := range missing.Claims {
		if r.ID == "zone_odds" {
			assert.False(t, r.TextOK)
			assert.Equal(t, []string{"506,000"}, r.MissingPatterns)
		}
		if r.ID == "lhr_solstice_offset" {
			assert.True(t, r.Pass)
		}
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 38.109952, round(38.10995162847465, 6))
	assert.Equal(t, 2.37, round(2.3688, 2))
	assert.Equal(t, 506000.0, round(505658.24, -3))
	assert.Equal(t, -122.2011, round(-122.20106066666666, 4))
}
