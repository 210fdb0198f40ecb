package run

import (
	"time"

	"github.com/John-Robertt/Z32/internal/app/planner"
	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
)

// Observer 用于把“运行进度/阶段/分片结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - Observer 的实现必须并发安全：事件可能来自多个 goroutine。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnShardDone 在某个分片处理完成时调用；done 是已完成的分片数。
	OnShardDone(done, total int, shard planner.Shard, f domain.Funnel, dur time.Duration)
	// OnProgress 用于 keepalive（通常由 CLI 自己 ticker 触发；run 层不强制调用）。
	OnProgress(done, total int, f domain.Funnel, elapsed time.Duration)
}

// Observers 把事件依次转发给多个 Observer（nil 元素跳过）。
type Observers []Observer

func (obs Observers) OnStart(eff config.EffectiveConfig) {
	for _, o := range obs {
		if o != nil {
			o.OnStart(eff)
		}
	}
}

func (obs Observers) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	for _, o := range obs {
		if o != nil {
			o.OnPhaseDone(name, fields, dur)
		}
	}
}

func (obs Observers) OnShardDone(done, total int, shard planner.Shard, f domain.Funnel, dur time.Duration) {
	for _, o := range obs {
		if o != nil {
			o.OnShardDone(done, total, shard, f, dur)
		}
	}
}

func (obs Observers) OnProgress(done, total int, f domain.Funnel, elapsed time.Duration) {
	for _, o := range obs {
		if o != nil {
			o.OnProgress(done, total, f, elapsed)
		}
	}
}
