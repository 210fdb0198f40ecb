// Package metrics 把一次求解的漏斗与耗时导出为 Prometheus 指标。
//
// 使用私有 Registry：批处理 CLI 不开 HTTP 端口，运行结束后写 node_exporter textfile。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/John-Robertt/Z32/internal/app/planner"
	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
)

const namespace = "z32"

// 漏斗阶段标签值。
const (
	StageTotal        = "total"
	StagePassedLength = "passed_length"
	StagePassedLocks  = "passed_locks"
	StagePassedBounds = "passed_bounds"
)

// Recorder 同时实现 run.Observer：分片/阶段事件直接进入指标。并发安全。
type Recorder struct {
	reg *prometheus.Registry

	funnel        *prometheus.GaugeVec
	survivors     prometheus.Gauge
	clockHour     *prometheus.GaugeVec
	phaseSeconds  *prometheus.GaugeVec
	shardSeconds  prometheus.Histogram
	shardsDone    prometheus.Counter
	workers       prometheus.Gauge
	lastSuccessTS prometheus.Gauge
}

// New 创建带私有 Registry 的 Recorder。
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		funnel: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "funnel",
			Name:      "candidates",
			Help:      "Candidates remaining after each pipeline stage",
		}, []string{"stage"}),
		survivors: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "survivors",
			Help:      "Ranked survivors of the last solve",
		}),
		clockHour: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "survivors_by_clock_hour",
			Help:      "Survivors per clock hour",
		}, []string{"hour"}),
		phaseSeconds: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall time of each solve phase",
		}, []string{"phase"}),
		shardSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shard_duration_seconds",
			Help:      "Wall time per shard",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		shardsDone: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shards_completed_total",
			Help:      "Shards evaluated",
		}),
		workers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers",
			Help:      "Configured worker count",
		}),
		lastSuccessTS: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed solve",
		}),
	}
}

// Registry 暴露底层 Gatherer（测试与自定义导出用）。
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) OnStart(eff config.EffectiveConfig) {
	r.workers.Set(float64(eff.Workers))
}

func (r *Recorder) OnPhaseDone(name string, _ map[string]any, dur time.Duration) {
	r.phaseSeconds.WithLabelValues(name).Set(dur.Seconds())
}

func (r *Recorder) OnShardDone(_, _ int, _ planner.Shard, _ domain.Funnel, dur time.Duration) {
	r.shardSeconds.Observe(dur.Seconds())
	r.shardsDone.Inc()
}

func (r *Recorder) OnProgress(int, int, domain.Funnel, time.Duration) {}

// Finish 记录最终漏斗、幸存者与钟点分布。
func (r *Recorder) Finish(f domain.Funnel, groups []domain.ClockHourGroup, survivors int, at time.Time) {
	r.funnel.WithLabelValues(StageTotal).Set(float64(f.Total))
	r.funnel.WithLabelValues(StagePassedLength).Set(float64(f.PassedLength))
	r.funnel.WithLabelValues(StagePassedLocks).Set(float64(f.PassedLocks))
	r.funnel.WithLabelValues(StagePassedBounds).Set(float64(f.PassedBounds))
	r.survivors.Set(float64(survivors))
	for _, g := range groups {
		r.clockHour.WithLabelValues(strconv.Itoa(g.Hour)).Set(float64(g.Count))
	}
	r.lastSuccessTS.Set(float64(at.Unix()))
}

// WriteTextfile 以 textfile collector 格式写出（内部先写临时文件再 rename）。
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
