package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/John-Robertt/Z32/internal/app"
	"github.com/John-Robertt/Z32/internal/app/run"
	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/metrics"
	"github.com/John-Robertt/Z32/internal/report"
)

type solveFlags struct {
	workers    int
	shards     int
	noWrite    bool
	kml        bool
	metricsOut string
}

func (c *cli) solveCmd() *cobra.Command {
	var f solveFlags
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "运行完整求解流水线并写出结果",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSolve(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&f.workers, "workers", 0, "并发 worker 数（默认 CPU 数）")
	fl.IntVar(&f.shards, "shards", 0, fmt.Sprintf("索引空间分片数（默认 %d）", config.DefaultShards))
	fl.BoolVar(&f.noWrite, "no-write", false, "不写出结果文件")
	fl.BoolVar(&f.kml, "kml", false, "额外写出幸存者 KML")
	fl.StringVar(&f.metricsOut, "metrics-out", "", "写出 Prometheus textfile 指标")
	return cmd
}

// solveSummary 是 stdout 非 TTY 时输出的唯一 JSON 文档。
type solveSummary struct {
	Metadata    domain.Metadata         `json:"metadata"`
	Top         *domain.ScoredCandidate `json:"top,omitempty"`
	ClockHours  map[int]int             `json:"clock_hours"`
	Hours8And10 int                     `json:"hours_8_and_10"`
	Files       *report.Paths           `json:"files,omitempty"`
	Metrics     string                  `json:"metrics,omitempty"`
}

func (c *cli) runSolve(cmd *cobra.Command, f solveFlags) error {
	eff, err := c.loadEffective(cmd, func(a *config.CLIArgs) {
		a.Workers, a.WorkersSet = f.workers, cmd.Flags().Changed("workers")
		a.Shards, a.ShardsSet = f.shards, cmd.Flags().Changed("shards")
	})
	if err != nil {
		return err
	}

	var obs run.Observers
	progressW, interactive := c.pickProgressWriter()
	var ui *progressUI
	if interactive {
		ui = newProgressUI(progressW)
		obs = append(obs, ui)
	}
	var rec *metrics.Recorder
	if f.metricsOut != "" {
		rec = metrics.New()
		obs = append(obs, rec)
	}

	res, err := run.ExecuteWithObserver(cmd.Context(), eff, c.log, obs)
	if ui != nil {
		ui.Stop()
	}
	if err != nil {
		return err
	}
	rep := report.Build(res, eff, uuid.NewString())

	sum := solveSummary{
		Metadata:    rep.Metadata,
		ClockHours:  app.HourCounts(rep.ClockHours),
		Hours8And10: app.CountHours(rep.ClockHours, 8, 10),
	}
	if len(rep.Survivors) > 0 {
		sum.Top = &rep.Survivors[0]
	}
	if !f.noWrite {
		paths, err := report.SaveSolve(eff.OutDir, rep, eff.Assumptions, f.kml)
		if err != nil {
			return err
		}
		sum.Files = &paths
	}
	if rec != nil {
		rec.Finish(res.Funnel, res.ClockHours, len(res.Survivors), time.Now())
		if err := rec.WriteTextfile(f.metricsOut); err != nil {
			return fmt.Errorf("写入指标失败：%w", err)
		}
		sum.Metrics = f.metricsOut
	}

	if isTTY(c.stdout) {
		printSolveHuman(c.stdout, eff, rep, sum)
		return nil
	}
	return json.NewEncoder(c.stdout).Encode(sum)
}

func printSolveHuman(w io.Writer, eff config.EffectiveConfig, rep domain.SolveReport, sum solveSummary) {
	p := message.NewPrinter(language.English)
	m := rep.Metadata
	p.Fprintf(w, "候选总数:          %12d\n", m.TotalCandidates)
	p.Fprintf(w, "长度 = %d:         %12d\n", eff.Assumptions.CipherLength, m.PassedLength)
	p.Fprintf(w, "通过锁约束:        %12d\n", m.PassedLocks)
	p.Fprintf(w, "通过地图边界:      %12d\n", m.PassedBounds)
	p.Fprintf(w, "拒绝率:            %11.4f%%\n", m.RejectionRatePct)
	p.Fprintf(w, "幸存者:            %12d\n", m.NumSurvivors)

	if top := sum.Top; top != nil {
		scale := eff.Assumptions.MapScaleMilesPerInch
		fmt.Fprintf(w, "\n首选解：%s\n", top.Readable)
		fmt.Fprintf(w, "  %g in x %g mi/in = %.1f mi @ %d 点\n",
			top.Vector.DistanceInches, scale, top.Vector.DistanceMiles, top.Vector.ClockHour)
		fmt.Fprintf(w, "  (%.6f, %.6f)\n", top.Point.Lat, top.Point.Lon)
		fmt.Fprintf(w, "  最近：%s (%.2f mi)\n", top.Nearest.Label, top.Nearest.Miles)
	}

	if len(rep.ClockHours) > 0 {
		fmt.Fprint(w, "\n钟点分布：")
		for _, g := range rep.ClockHours {
			fmt.Fprintf(w, " %d:%d", g.Hour, g.Count)
		}
		fmt.Fprintf(w, "  (8/10 点：%d/%d)\n", sum.Hours8And10, m.NumSurvivors)
	}

	if sum.Files != nil {
		fmt.Fprintf(w, "\njson: %s\ncsv:  %s\n", sum.Files.JSON, sum.Files.CSV)
		if sum.Files.KML != "" {
			fmt.Fprintf(w, "kml:  %s\n", sum.Files.KML)
		}
	}
	if sum.Metrics != "" {
		fmt.Fprintf(w, "metrics: %s\n", sum.Metrics)
	}
}

// obtainSolve 返回求解报告：skipRun 时读取 <out>/z32_results.json，否则就地求解（save 时同时落盘）。
func (c *cli) obtainSolve(ctx context.Context, eff config.EffectiveConfig, skipRun, save bool) (domain.SolveReport, error) {
	if skipRun {
		return report.LoadSolve(filepath.Join(eff.OutDir, report.SolveJSONName))
	}
	res, err := run.Execute(ctx, eff, c.log)
	if err != nil {
		return domain.SolveReport{}, err
	}
	rep := report.Build(res, eff, uuid.NewString())
	if save {
		if _, err := report.SaveSolve(eff.OutDir, rep, eff.Assumptions, false); err != nil {
			return rep, err
		}
	}
	return rep, nil
}
