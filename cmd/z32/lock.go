package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/lexicon"
	"github.com/John-Robertt/Z32/internal/lock"
)

func (c *cli) lockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock PHRASE...",
		Short: "检查任意短语是否满足长度与锁约束",
		Example: `  z32 lock "in three and three eighths radians ten"
  z32 lock INTHREEANDTHREEEIGHTHSRADIANSTEN ONTWORADIANSEIGHT`,
		Args: minArgs(1),
		RunE: c.runLock,
	}
}

// lockCheck 是单个短语的检查结果。
type lockCheck struct {
	Input     string            `json:"input"`
	Readable  string            `json:"readable,omitempty"`
	Check     *lock.Explanation `json:"check,omitempty"`
	Pass      bool              `json:"pass"`
	ErrorCode string            `json:"error_code,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func (c *cli) runLock(cmd *cobra.Command, args []string) error {
	eff, err := c.loadEffective(cmd, nil)
	if err != nil {
		return err
	}
	a := eff.Assumptions
	cons, err := a.Constraint()
	if err != nil {
		return &config.Error{Code: config.ErrCodeInvalid, Path: eff.ConfigPath, Err: err}
	}
	g, err := a.Lexicon()
	if err != nil {
		return &config.Error{Code: config.ErrCodeInvalid, Path: eff.ConfigPath, Err: err}
	}

	checks := make([]lockCheck, 0, len(args))
	failed := 0
	for _, in := range args {
		lc := checkPhrase(cons, g, in)
		if !lc.Pass {
			failed++
		}
		checks = append(checks, lc)
	}

	if isTTY(c.stdout) {
		for _, lc := range checks {
			printLockCheck(c, lc)
		}
	} else if err := json.NewEncoder(c.stdout).Encode(checks); err != nil {
		return err
	}

	if failed > 0 {
		fmt.Fprintf(c.stderr, "锁检查失败：%d/%d\n", failed, len(checks))
		return errReported
	}
	return nil
}

func checkPhrase(cons lock.Constraint, g *lexicon.Grammar, in string) lockCheck {
	lc := lockCheck{Input: in}
	text, err := lexicon.NormalizePhrase(in)
	if err != nil {
		lc.ErrorCode = domain.ErrCodeLockFailed
		lc.Error = err.Error()
		return lc
	}
	e := cons.Explain(text)
	lc.Check = &e
	lc.Readable = strings.Join(g.Segment(text), " ")
	lc.Pass = e.Verdict == lock.Pass.String()
	if !lc.Pass {
		lc.ErrorCode = domain.ErrCodeLockFailed
	}
	return lc
}

func printLockCheck(c *cli, lc lockCheck) {
	w := c.stdout
	if lc.Check == nil {
		fmt.Fprintf(w, "%q: %s\n", lc.Input, lc.Error)
		return
	}
	e := lc.Check
	fmt.Fprintf(w, "%s (%d) %s\n", e.Text, e.Length, e.Verdict)
	fmt.Fprintf(w, "  %s\n", lc.Readable)
	for _, p := range e.Pairs {
		mark := "ok"
		if !p.OK {
			mark = "MISMATCH"
		}
		fmt.Fprintf(w, "  %s %s=%s %s\n", p.Pair, p.A, p.B, mark)
	}
}
