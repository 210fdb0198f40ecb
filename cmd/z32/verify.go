package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/report"
	"github.com/John-Robertt/Z32/internal/verify"
)

type verifyFlags struct {
	jsonOut   string
	noJSON    bool
	mcSamples int
	skipRun   bool
}

func (c *cli) verifyCmd() *cobra.Command {
	var f verifyFlags
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "重新计算已发表的数值结论并逐条核对",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runVerify(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.jsonOut, "json-out", "", "校验结果 JSON 路径（默认 <out>/"+report.VerifyJSONName+"）")
	fl.BoolVar(&f.noJSON, "no-json", false, "不写出校验结果 JSON")
	fl.IntVar(&f.mcSamples, "mc-samples", 0, "Monte Carlo 抽样数（未指定时取配置 monte_carlo_samples，默认 1,000,000；0 表示跳过）")
	fl.BoolVar(&f.skipRun, "skip-run", false, "读取 <out>/"+report.SolveJSONName+" 而不是重新求解")
	return cmd
}

// verifySummary 是 verify 在 stdout 非 TTY 时输出的 JSON。
type verifySummary struct {
	RunID      string           `json:"run_id,omitempty"`
	Total      int              `json:"total"`
	Passed     int              `json:"passed"`
	Mismatches []verify.Outcome `json:"mismatches"`
	ErrorCode  string           `json:"error_code,omitempty"`
	Output     string           `json:"output,omitempty"`
}

func (c *cli) runVerify(cmd *cobra.Command, f verifyFlags) error {
	eff, err := c.loadEffective(cmd, func(a *config.CLIArgs) {
		a.MonteCarloSamples, a.MonteCarloSamplesSet = f.mcSamples, cmd.Flags().Changed("mc-samples")
	})
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	rep, err := c.obtainSolve(ctx, eff, f.skipRun, false)
	if err != nil {
		return err
	}
	res, err := computeVerify(ctx, eff, rep)
	if err != nil {
		return err
	}

	out := ""
	if !f.noJSON {
		out = f.jsonOut
		if out == "" {
			out = filepath.Join(eff.OutDir, report.VerifyJSONName)
		}
		if err := report.WriteJSON(filepath.Dir(out), filepath.Base(out), res); err != nil {
			return err
		}
	}

	outs := verify.Evaluate(verify.Evidence{Solve: rep.Metadata, Verify: res})
	mm := verify.Mismatches(outs)

	if isTTY(c.stdout) {
		printOutcomes(c.stdout, outs)
		if out != "" {
			fmt.Fprintf(c.stdout, "\nsaved: %s\n", out)
		}
	} else {
		sum := verifySummary{
			RunID:      res.Metadata.RunID,
			Total:      len(outs),
			Passed:     len(outs) - len(mm),
			Mismatches: mm,
			Output:     out,
		}
		if sum.Mismatches == nil {
			sum.Mismatches = []verify.Outcome{}
		}
		if len(mm) > 0 {
			sum.ErrorCode = domain.ErrCodeVerifyMismatch
		}
		if err := json.NewEncoder(c.stdout).Encode(sum); err != nil {
			return err
		}
	}

	if len(mm) > 0 {
		fmt.Fprintf(c.stderr, "校验失败：%d/%d 条结论不匹配\n", len(mm), len(outs))
		for _, o := range mm {
			fmt.Fprintf(c.stderr, "  %s: expected=%v actual=%v %s\n", o.ID, o.Expected, o.Actual, o.Error)
		}
		return errReported
	}
	fmt.Fprintf(c.stderr, "校验通过：%d/%d\n", len(outs), len(outs))
	return nil
}

func computeVerify(ctx context.Context, eff config.EffectiveConfig, rep domain.SolveReport) (verify.Results, error) {
	in := verify.InputsFromReport(rep)
	in.ConfigPath = eff.ConfigPath
	in.Now = time.Now()
	return verify.Compute(ctx, eff.Assumptions, in)
}

func printOutcomes(w io.Writer, outs []verify.Outcome) {
	for _, o := range outs {
		status := "PASS"
		if !o.ValueOK {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %-28s %v", status, o.ID, o.Actual)
		if !o.ValueOK {
			fmt.Fprintf(w, " (expected %v)", o.Expected)
		}
		if o.Error != "" {
			fmt.Fprintf(w, " %s", o.Error)
		}
		fmt.Fprintln(w)
	}
}
