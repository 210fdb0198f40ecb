package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/John-Robertt/Z32/internal/app/planner"
	"github.com/John-Robertt/Z32/internal/app/run"
	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的简洁进度输出。
//
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 分片完成只在跨过 10% 档位时打印一行
// - keepalive：长时间没有输出时定期打印当前计数
type progressUI struct {
	w io.Writer
	p *message.Printer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	workers  int
	total    int
	done     int
	lastStep int
	funnel   domain.Funnel

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		p:                  message.NewPrinter(language.English),
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()
	a := eff.Assumptions

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	fmt.Fprintf(p.w, "[%s] Z32 solve\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  config: %s\n", orDefault(eff.ConfigPath, "(内置默认)"))
	fmt.Fprintf(p.w, "  anchor: (%.6f, %.6f) dec=%g°E\n", a.Anchor.Point.Lat, a.Anchor.Point.Lon, a.Anchor.DeclinationDeg)
	fmt.Fprintf(p.w, "  map_scale: %g mi/in  earth_radius: %g mi\n", a.MapScaleMilesPerInch, a.EarthRadiusMiles)
	fmt.Fprintf(p.w, "  locks: %s  length: %d\n", formatLocks(a), a.CipherLength)
	fmt.Fprintf(p.w, "  scoring: %s\n", a.Scoring.Rule)
	fmt.Fprintf(p.w, "  workers: %d  shards: %d\n", eff.Workers, eff.Shards)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(p.w, "  out: %s\n\n", eff.OutDir)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "plan":
		p.workers = intField(fields, "workers")
		p.total = intField(fields, "shards")
		p.p.Fprintf(p.w, "规划: span=%d shards=%d workers=%d (%s)\n",
			intField(fields, "span"), p.total, p.workers, formatShortDuration(dur))
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	case "filter":
		p.p.Fprintf(p.w, "过滤: total=%d length=%d locks=%d bounds=%d (%s)\n",
			intField(fields, "total"),
			intField(fields, "passed_length"),
			intField(fields, "passed_locks"),
			intField(fields, "passed_bounds"),
			formatShortDuration(dur))
	case "rank":
		fmt.Fprintf(p.w, "排序: survivors=%d (%s)\n", intField(fields, "survivors"), formatShortDuration(dur))
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnShardDone(done, total int, _ planner.Shard, f domain.Funnel, _ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.total = total
	p.funnel.Add(f)

	step := 10
	if total > 0 {
		step = done * 10 / total
	}
	if step > p.lastStep || done == total {
		p.lastStep = step
		p.printProgressLocked()
	}
	if p.tickerStarted && p.done >= p.total {
		p.stopTickerLocked()
	}
}

func (p *progressUI) OnProgress(done, total int, f domain.Funnel, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done, p.total, p.funnel = done, total, f
	p.printProgressLocked()
}

// Stop 停止 keepalive（运行失败/取消时由调用方保证调用）。
func (p *progressUI) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tickerStarted {
		p.stopTickerLocked()
	}
}

func (p *progressUI) printProgressLocked() {
	elapsed := time.Duration(0)
	if !p.startedAt.IsZero() {
		elapsed = time.Since(p.startedAt)
	}
	p.p.Fprintf(p.w, "进度: shards=%d/%d candidates=%d locks=%d bounds=%d elapsed=%s\n",
		p.done, p.total, p.funnel.Total, p.funnel.PassedLocks, p.funnel.PassedBounds, formatElapsed(elapsed))
	p.lastPrinted = time.Now()
}

func (p *progressUI) stopTickerLocked() {
	close(p.stopCh)
	p.tickerStarted = false
}

func (p *progressUI) startTickerLocked() {
	stop := make(chan struct{})
	p.stopCh = stop
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done < p.total && time.Since(p.lastPrinted) > threshold {
					p.printProgressLocked()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func formatLocks(a config.Assumptions) string {
	parts := make([]string, 0, len(a.Locks))
	for _, l := range a.Locks {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, " ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
