package run

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/John-Robertt/Z32/internal/app"
	"github.com/John-Robertt/Z32/internal/app/planner"
	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func effective(workers, shards int) config.EffectiveConfig {
	return config.EffectiveConfig{
		Assumptions: config.Default(),
		Workers:     workers,
		Shards:      shards,
	}
}

var (
	baseOnce sync.Once
	baseRes  Result
	baseErr  error
)

// baseline 只跑一次完整求解，供多个测试共享。
func baseline(t *testing.T) Result {
	t.Helper()
	baseOnce.Do(func() {
		baseRes, baseErr = Execute(context.Background(), effective(4, 64), zap.NewNop())
	})
	require.NoError(t, baseErr)
	return baseRes
}

func TestExecute_Funnel(t *testing.T) {
	r := baseline(t)

	want := domain.Funnel{Total: 2044224, PassedLength: 154572, PassedLocks: 61, PassedBounds: 54}
	assert.Equal(t, want, r.Funnel)
	assert.Len(t, r.Survivors, 54)
	assert.Equal(t, 2044224, r.Span)
	assert.Equal(t, 64, r.Shards)
	assert.Equal(t, 4, r.Workers)
	assert.False(t, r.FinishedAt.Before(r.StartedAt))
}

func TestExecute_TopCandidate(t *testing.T) {
	r := baseline(t)
	require.NotEmpty(t, r.Survivors)

	top := r.Survivors[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, 597120, top.Index)
	assert.Equal(t, "INTHREEANDTHREEEIGHTHSRADIANSTEN", top.Text)
	assert.Equal(t, "A", top.Family)
	assert.Equal(t, "blue_rock_springs", top.Nearest.Key)
	assert.InDelta(t, 1.152, top.Nearest.Miles, 1e-3)
	assert.InDelta(t, 38.109952, top.Point.Lat, 5e-7)
	assert.InDelta(t, -122.185349, top.Point.Lon, 5e-7)

	last := r.Survivors[len(r.Survivors)-1]
	assert.Equal(t, 54, last.Rank)
	assert.Equal(t, "ONSEVENANDTHREEQUARTERSTWORADIAN", last.Text)
	assert.InDelta(t, 60.93, last.Score, 0.01)
}

func TestExecute_RanksAreOrdered(t *testing.T) {
	r := baseline(t)
	for i, s := range r.Survivors {
		if s.Rank != i+1 {
			t.Fatalf("第 %d 个幸存者 rank=%d", i, s.Rank)
		}
		if i > 0 && s.Score < r.Survivors[i-1].Score {
			t.Fatalf("分数未升序：%d(%f) < %d(%f)", i, s.Score, i-1, r.Survivors[i-1].Score)
		}
		if !effective(1, 1).Assumptions.Bounds.Contains(s.Point) {
			t.Fatalf("幸存者越界：%+v", s.Point)
		}
	}
}

func TestExecute_ClockHours(t *testing.T) {
	r := baseline(t)

	assert.Equal(t, map[int]int{2: 5, 3: 1, 8: 25, 10: 22, 12: 1}, app.HourCounts(r.ClockHours))
	assert.Equal(t, 47, app.CountHours(r.ClockHours, 8, 10))
}

func TestExecute_IndependentOfWorkersAndShards(t *testing.T) {
	r := baseline(t)

	other, err := Execute(context.Background(), effective(1, 7), nil)
	require.NoError(t, err)

	ignore := cmpopts.IgnoreFields(Result{}, "StartedAt", "FinishedAt", "Shards", "Workers", "Grammar")
	if diff := cmp.Diff(r, other, ignore); diff != "" {
		t.Fatalf("不同分片/worker 下结果不一致（-4x64 +1x7）：\n%s", diff)
	}
}

func TestExecute_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, effective(2, 8), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExecute_InvalidAssumptions(t *testing.T) {
	eff := effective(1, 1)
	eff.Assumptions.EarthRadiusMiles = 0

	_, err := Execute(context.Background(), eff, nil)
	require.Error(t, err)
	assert.Equal(t, config.ErrCodeInvalid, config.Code(err))
}

type recordObserver struct {
	mu sync.Mutex

	startCalls int
	phases     []string
	shards     []int
	lastDone   int
	sum        domain.Funnel
}

func (o *recordObserver) OnStart(eff config.EffectiveConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
}

func (o *recordObserver) OnShardDone(done, total int, sh planner.Shard, f domain.Funnel, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.shards = append(o.shards, sh.ID)
	o.lastDone = max(o.lastDone, done)
	o.sum.Add(f)
}

func (o *recordObserver) OnProgress(done, total int, f domain.Funnel, elapsed time.Duration) {
	// keepalive 由 CLI 触发；这里无需断言。
}

func TestExecuteWithObserver_EmitsPhaseAndShardEvents(t *testing.T) {
	obs := &recordObserver{}
	r, err := ExecuteWithObserver(context.Background(), effective(3, 12), nil, obs)
	require.NoError(t, err)

	if obs.startCalls != 1 {
		t.Fatalf("期望 OnStart 调用 1 次，实际 %d", obs.startCalls)
	}
	assert.Equal(t, []string{"plan", "filter", "rank"}, obs.phases)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, obs.shards)
	assert.Equal(t, 12, obs.lastDone)
	assert.Equal(t, r.Funnel, obs.sum)
}
