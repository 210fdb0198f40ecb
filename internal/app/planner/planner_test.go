package planner

import "testing"

func TestPlanShards_CoverWithoutOverlap(t *testing.T) {
	for _, c := range []struct{ span, n int }{
		{2044224, 64}, {2044224, 1}, {10, 3}, {10, 10}, {5, 9}, {7, 0},
	} {
		shards := PlanShards(c.span, c.n)
		if len(shards) == 0 {
			t.Fatalf("span=%d n=%d：不应为空", c.span, c.n)
		}
		next := 0
		minLen, maxLen := shards[0].Len(), shards[0].Len()
		for i, s := range shards {
			if s.ID != i || s.Lo != next || s.Len() <= 0 {
				t.Fatalf("span=%d n=%d：分片 %s 不连续或为空", c.span, c.n, s)
			}
			next = s.Hi
			minLen = min(minLen, s.Len())
			maxLen = max(maxLen, s.Len())
		}
		if next != c.span {
			t.Fatalf("span=%d n=%d：覆盖到 %d", c.span, c.n, next)
		}
		if maxLen-minLen > 1 {
			t.Fatalf("span=%d n=%d：分片大小差超过 1（%d..%d）", c.span, c.n, minLen, maxLen)
		}
	}
}

func TestPlanShards_Clamp(t *testing.T) {
	if got := len(PlanShards(5, 9)); got != 5 {
		t.Fatalf("分片数不应超过 span：%d", got)
	}
	if got := len(PlanShards(7, 0)); got != 1 {
		t.Fatalf("n<1 时应为 1 个分片：%d", got)
	}
	if PlanShards(0, 4) != nil {
		t.Fatalf("span=0 应返回 nil")
	}
}
