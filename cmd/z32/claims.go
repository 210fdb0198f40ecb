package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/infra/cache"
	"github.com/John-Robertt/Z32/internal/infra/httpx"
	"github.com/John-Robertt/Z32/internal/narrative"
	"github.com/John-Robertt/Z32/internal/report"
	"github.com/John-Robertt/Z32/internal/verify"
)

type claimsFlags struct {
	doc     string
	skipRun bool
	refresh bool
	noWrite bool
}

func (c *cli) claimsCmd() *cobra.Command {
	var f claimsFlags
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "把数值结论与叙述文档交叉核对，写出 claim_map.json",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runClaims(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.doc, "doc", "", "叙述文档：本地路径或 http(s) URL（HTML/TeX/纯文本）")
	fl.BoolVar(&f.skipRun, "skip-run", false, "直接读取 <out> 下已有的求解与校验结果")
	fl.BoolVar(&f.refresh, "refresh", false, "忽略文档缓存，重新下载")
	fl.BoolVar(&f.noWrite, "no-write", false, "不写出任何文件（包括文档缓存）")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

// claimsSummary 是 claims 在 stdout 非 TTY 时输出的 JSON。
type claimsSummary struct {
	Document  string               `json:"document"`
	Summary   verify.ClaimSummary  `json:"summary"`
	Failed    []verify.ClaimRecord `json:"failed"`
	ErrorCode string               `json:"error_code,omitempty"`
	Output    string               `json:"output,omitempty"`
}

func (c *cli) runClaims(cmd *cobra.Command, f claimsFlags) error {
	eff, err := c.loadEffective(cmd, nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	save := !f.noWrite

	rep, err := c.obtainSolve(ctx, eff, f.skipRun, save)
	if err != nil {
		return err
	}
	var res verify.Results
	if f.skipRun {
		if err := report.ReadJSON(filepath.Join(eff.OutDir, report.VerifyJSONName), &res); err != nil {
			return err
		}
	} else {
		if res, err = computeVerify(ctx, eff, rep); err != nil {
			return err
		}
		if save {
			if err := report.WriteJSON(eff.OutDir, report.VerifyJSONName, res); err != nil {
				return err
			}
		}
	}

	client, err := httpx.NewDocClient(eff.ProxyURL)
	if err != nil {
		return &config.Error{Code: config.ErrCodeInvalid, Path: eff.ConfigPath, Err: err}
	}
	store := cache.New(eff.OutDir, !save)
	loader := narrative.Loader{Client: client, Cache: &store, Refresh: f.refresh, Log: c.log}
	doc, err := loader.Load(ctx, f.doc)
	if err != nil {
		return err
	}

	outs := verify.Evaluate(verify.Evidence{Solve: rep.Metadata, Verify: res})
	cm := verify.BuildClaimMap(outs, doc.Source, doc.Contains, time.Now())
	c.log.Info("claims checked",
		zap.String("document", doc.Source),
		zap.Int("total", cm.Summary.Total),
		zap.Int("failed", cm.Summary.Failed))

	out := ""
	if save {
		if err := report.WriteJSON(eff.OutDir, report.ClaimMapName, cm); err != nil {
			return err
		}
		out = filepath.Join(eff.OutDir, report.ClaimMapName)
	}

	failed := make([]verify.ClaimRecord, 0)
	for _, r := range cm.Claims {
		if !r.Pass {
			failed = append(failed, r)
		}
	}

	if isTTY(c.stdout) {
		for _, r := range cm.Claims {
			status := "PASS"
			if !r.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(c.stdout, "[%s] %-28s value=%t text=%t", status, r.ID, r.ValueOK, r.TextOK)
			if len(r.MissingPatterns) > 0 {
				fmt.Fprintf(c.stdout, " missing=%q", r.MissingPatterns)
			}
			fmt.Fprintln(c.stdout)
		}
		fmt.Fprintf(c.stdout, "\n%d/%d passed\n", cm.Summary.Passed, cm.Summary.Total)
		if out != "" {
			fmt.Fprintf(c.stdout, "saved: %s\n", out)
		}
	} else {
		sum := claimsSummary{Document: doc.Source, Summary: cm.Summary, Failed: failed, Output: out}
		if !cm.Summary.AllPass {
			sum.ErrorCode = domain.ErrCodeClaimFailed
		}
		if err := json.NewEncoder(c.stdout).Encode(sum); err != nil {
			return err
		}
	}

	if !cm.Summary.AllPass {
		fmt.Fprintf(c.stderr, "结论核对失败：%d/%d\n", cm.Summary.Failed, cm.Summary.Total)
		return errReported
	}
	return nil
}
