// Package run 串起整条流水线：生成 -> 锁过滤 -> 投影 -> 边界过滤 -> 评分排序。
//
// 索引空间按分片并发处理，结果按分片顺序合并后做规范排序，因此输出与 worker/分片数无关。
package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/Z32/internal/app"
	"github.com/John-Robertt/Z32/internal/app/planner"
	"github.com/John-Robertt/Z32/internal/candidate"
	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/geo"
	"github.com/John-Robertt/Z32/internal/lexicon"
	"github.com/John-Robertt/Z32/internal/lock"
	"github.com/John-Robertt/Z32/internal/logging"
	"github.com/John-Robertt/Z32/internal/projector"
	"github.com/John-Robertt/Z32/internal/rank"
)

// ctxCheckEvery 是分片内检查取消的间隔（候选数）。
const ctxCheckEvery = 1 << 14

// Result 是一次求解的完整结果。
type Result struct {
	Funnel     domain.Funnel
	Survivors  []domain.ScoredCandidate
	ClockHours []domain.ClockHourGroup

	Grammar *lexicon.Grammar
	Span    int
	Shards  int
	Workers int

	StartedAt  time.Time
	FinishedAt time.Time
}

// Stages 是一次运行所需的、已校验的各阶段组件。
type Stages struct {
	Generator  *candidate.Generator
	Constraint lock.Constraint
	Projector  *projector.Projector
	Region     geo.Region
	Scorer     *rank.Scorer
}

// NewStages 根据假设构造各阶段；任何配置错误都在这里暴露。
func NewStages(a config.Assumptions) (Stages, error) {
	if err := a.Validate(); err != nil {
		return Stages{}, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}
	g, err := a.Lexicon()
	if err != nil {
		return Stages{}, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}
	if err := projector.CheckGrammar(g); err != nil {
		return Stages{}, err
	}
	cons, err := a.Constraint()
	if err != nil {
		return Stages{}, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}
	return Stages{
		Generator:  candidate.New(g),
		Constraint: cons,
		Projector:  projector.New(a),
		Region:     a.Region(),
		Scorer:     rank.NewScorer(a),
	}, nil
}

// Execute 执行一次求解。
func Execute(ctx context.Context, eff config.EffectiveConfig, log *zap.Logger) (Result, error) {
	return ExecuteWithObserver(ctx, eff, log, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, log *zap.Logger, obs Observer) (Result, error) {
	log = logging.OrNop(log)
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	st, err := NewStages(eff.Assumptions)
	if err != nil {
		return Result{}, err
	}

	planStarted := time.Now()
	span := st.Generator.Span()
	shards := planner.PlanShards(span, eff.Shards)
	workers := max(eff.Workers, 1)
	if obs != nil {
		obs.OnPhaseDone("plan", map[string]any{
			"span":    span,
			"shards":  len(shards),
			"workers": workers,
		}, time.Since(planStarted))
	}
	log.Debug("plan ready", zap.Int("span", span), zap.Int("shards", len(shards)), zap.Int("workers", workers))

	filterStarted := time.Now()
	parts := make([]shardResult, len(shards))

	var (
		mu      sync.Mutex
		done    int
		running domain.Funnel
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, sh := range shards {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			oneStarted := time.Now()
			r, err := evalShard(egCtx, st, sh)
			if err != nil {
				return err
			}
			parts[i] = r

			mu.Lock()
			done++
			running.Add(r.funnel)
			n := done
			mu.Unlock()

			dur := time.Since(oneStarted)
			log.Debug("shard done",
				zap.Stringer("shard", sh),
				zap.Int("passed_locks", r.funnel.PassedLocks),
				zap.Int("passed_bounds", r.funnel.PassedBounds),
				zap.Duration("dur", dur))
			if obs != nil {
				obs.OnShardDone(n, len(shards), sh, r.funnel, dur)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}
	// 父 ctx 在最后一个分片派发前被取消时，eg.Wait 可能返回 nil。
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var (
		funnel    domain.Funnel
		projected []domain.Projected
	)
	for _, p := range parts {
		funnel.Add(p.funnel)
		projected = append(projected, p.survivors...)
	}
	if obs != nil {
		obs.OnPhaseDone("filter", map[string]any{
			"total":         funnel.Total,
			"passed_length": funnel.PassedLength,
			"passed_locks":  funnel.PassedLocks,
			"passed_bounds": funnel.PassedBounds,
		}, time.Since(filterStarted))
	}

	rankStarted := time.Now()
	survivors := st.Scorer.Rank(projected)
	groups := app.GroupByClockHour(survivors)
	if obs != nil {
		obs.OnPhaseDone("rank", map[string]any{
			"survivors": len(survivors),
		}, time.Since(rankStarted))
	}

	log.Info("solve finished",
		zap.Int("total", funnel.Total),
		zap.Int("passed_length", funnel.PassedLength),
		zap.Int("passed_locks", funnel.PassedLocks),
		zap.Int("passed_bounds", funnel.PassedBounds),
		zap.Int("survivors", len(survivors)))

	return Result{
		Funnel:     funnel,
		Survivors:  survivors,
		ClockHours: groups,
		Grammar:    st.Generator.Grammar(),
		Span:       span,
		Shards:     len(shards),
		Workers:    workers,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}, nil
}

type shardResult struct {
	funnel    domain.Funnel
	survivors []domain.Projected
}

// evalShard 顺序处理一个分片。结构性拒绝只计数；模板不匹配是致命错误。
func evalShard(ctx context.Context, st Stages, sh planner.Shard) (shardResult, error) {
	var r shardResult
	if err := ctx.Err(); err != nil {
		return r, err
	}
	n := 0
	for c := range st.Generator.Range(sh.Lo, sh.Hi) {
		if n++; n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return r, err
			}
		}
		r.funnel.Total++

		switch st.Constraint.Check(c.Text) {
		case lock.RejectLength:
			continue
		case lock.RejectLock:
			r.funnel.PassedLength++
			continue
		}
		r.funnel.PassedLength++
		r.funnel.PassedLocks++

		p, err := st.Projector.Project(c)
		if err != nil {
			if errors.Is(err, projector.ErrTemplateMismatch) {
				return r, err
			}
			return r, fmt.Errorf("投影失败（index %d）：%w", c.Index, err)
		}
		if !st.Region.Contains(p.Point) {
			continue
		}
		r.funnel.PassedBounds++
		r.survivors = append(r.survivors, p)
	}
	return r, nil
}
