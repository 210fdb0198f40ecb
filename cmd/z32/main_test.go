package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/John-Robertt/Z32/internal/report"
	"github.com/John-Robertt/Z32/internal/verify"
)

func nopLogger(bool) (*zap.Logger, error) { return zap.NewNop(), nil }

// runCLI 在内存中执行命令；stdout/stderr 不是 TTY，因此走 JSON 输出契约。
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := &cli{stdout: &stdout, stderr: &stderr, newLogger: nopLogger}
	code := c.run(context.Background(), args)
	return code, stdout.String(), stderr.String()
}

func TestCLI_UsageErrors(t *testing.T) {
	cases := [][]string{
		{"nope"},
		{"solve", "--bogus"},
		{"solve", "extra"},
		{"lock"},
		{"claims"},
	}
	for _, args := range cases {
		code, stdout, _ := runCLI(t, args...)
		if code != exitUsage {
			t.Fatalf("%v: 退出码 %d，期望 %d", args, code, exitUsage)
		}
		if stdout != "" {
			t.Fatalf("%v: 用法错误不应写 stdout：%q", args, stdout)
		}
	}
}

func TestCLI_Help(t *testing.T) {
	code, stdout, _ := runCLI(t, "--help")
	require.Equal(t, exitOK, code)
	for _, sub := range []string{"solve", "verify", "claims", "lock"} {
		assert.Contains(t, stdout, sub)
	}
}

func TestCLI_VerifyHelpNamesSampleDefault(t *testing.T) {
	code, stdout, _ := runCLI(t, "verify", "--help")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "--mc-samples")
	assert.Contains(t, stdout, "monte_carlo_samples")
	assert.Contains(t, stdout, "1,000,000")
}

func TestCLI_ConfigNotFound(t *testing.T) {
	code, stdout, stderr := runCLI(t, "lock", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "ONE")
	assert.Equal(t, exitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "config_not_found")
}

func TestCLI_ConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "z32.yaml")
	for _, body := range []string{"map_scale_mi_per_in: 0\n", "map_scale_mi_per_in: .inf\n", "declination_deg: .nan\n"} {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		code, _, stderr := runCLI(t, "lock", "--config", path, "ONE")
		assert.Equal(t, exitFailure, code, body)
		assert.Contains(t, stderr, "config_invalid", body)
	}
}

func TestCLI_LockPass(t *testing.T) {
	code, stdout, stderr := runCLI(t, "lock", "in three and three eighths radians ten")
	require.Equal(t, exitOK, code, stderr)

	var checks []lockCheck
	require.NoError(t, json.Unmarshal([]byte(stdout), &checks))
	require.Len(t, checks, 1)
	c := checks[0]
	assert.True(t, c.Pass)
	assert.Equal(t, "IN THREE AND THREE EIGHTHS RADIANS TEN", c.Readable)
	require.NotNil(t, c.Check)
	assert.Equal(t, "INTHREEANDTHREEEIGHTHSRADIANSTEN", c.Check.Text)
	assert.Equal(t, 32, c.Check.Length)
	assert.Len(t, c.Check.Pairs, 3)
	for _, p := range c.Check.Pairs {
		assert.True(t, p.OK, p.Pair.String())
	}
}

func TestCLI_LockFailures(t *testing.T) {
	// 第二个短语只改动一个锁位置（下标 25：I -> A）。
	code, stdout, stderr := runCLI(t, "lock",
		"INTHREEANDTHREEEIGHTHSRADIANSTEN",
		"INTHREEANDTHREEEIGHTHSRADAANSTEN",
		"ONE TWO",
		"abc123",
	)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "3/4")

	var checks []lockCheck
	require.NoError(t, json.Unmarshal([]byte(stdout), &checks))
	require.Len(t, checks, 4)
	assert.True(t, checks[0].Pass)
	assert.Equal(t, "reject_lock", checks[1].Check.Verdict)
	assert.Equal(t, "reject_length", checks[2].Check.Verdict)
	assert.Nil(t, checks[3].Check)
	assert.Equal(t, "lock_failed", checks[3].ErrorCode)
}

// 完整流程：solve 写出结果，verify/claims 以 --skip-run 读取。
func TestCLI_SolveVerifyClaims(t *testing.T) {
	if testing.Short() {
		t.Skip("完整求解")
	}
	out := t.TempDir()
	prom := filepath.Join(out, "z32.prom")

	code, stdout, stderr := runCLI(t, "solve", "--out", out, "--workers", "4", "--kml", "--metrics-out", prom)
	require.Equal(t, exitOK, code, stderr)

	var sum solveSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &sum), stdout)
	assert.Equal(t, 2044224, sum.Metadata.TotalCandidates)
	assert.Equal(t, 154572, sum.Metadata.PassedLength)
	assert.Equal(t, 61, sum.Metadata.PassedLocks)
	assert.Equal(t, 54, sum.Metadata.NumSurvivors)
	assert.Equal(t, 47, sum.Hours8And10)
	assert.Equal(t, 25, sum.ClockHours[8])
	require.NotNil(t, sum.Top)
	assert.Equal(t, "INTHREEANDTHREEEIGHTHSRADIANSTEN", sum.Top.Text)
	require.NotNil(t, sum.Files)
	for _, p := range []string{sum.Files.JSON, sum.Files.CSV, sum.Files.KML, prom} {
		_, err := os.Stat(p)
		require.NoError(t, err, p)
	}

	code, stdout, stderr = runCLI(t, "verify", "--out", out, "--skip-run", "--mc-samples", "0")
	require.Equal(t, exitOK, code, stderr+stdout)
	var vs verifySummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &vs))
	assert.Equal(t, len(verify.Claims()), vs.Total)
	assert.Empty(t, vs.Mismatches)
	assert.Equal(t, filepath.Join(out, report.VerifyJSONName), vs.Output)

	// 正文只缺一条结论的文本时，只有这一条失败。
	var patterns []string
	for _, c := range verify.Claims() {
		if c.ID == "zone_odds" {
			continue
		}
		patterns = append(patterns, c.Patterns...)
	}
	doc := filepath.Join(out, "paper.txt")
	require.NoError(t, os.WriteFile(doc, []byte(strings.Join(patterns, "\n")), 0o644))

	code, stdout, _ = runCLI(t, "claims", "--out", out, "--skip-run", "--doc", doc)
	assert.Equal(t, exitFailure, code)
	var cs claimsSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &cs))
	assert.Equal(t, "claim_failed", cs.ErrorCode)
	assert.Equal(t, len(verify.Claims()), cs.Summary.Total)
	require.Len(t, cs.Failed, 1)
	assert.Equal(t, "zone_odds", cs.Failed[0].ID)
	assert.True(t, cs.Failed[0].ValueOK)

	var cm verify.ClaimMap
	require.NoError(t, report.ReadJSON(filepath.Join(out, report.ClaimMapName), &cm))
	assert.Equal(t, cs.Summary, cm.Summary)

	// 补齐文本后全部通过。
	patterns = append(patterns, "506,000")
	require.NoError(t, os.WriteFile(doc, []byte(strings.Join(patterns, "\n")), 0o644))
	code, _, stderr = runCLI(t, "claims", "--out", out, "--skip-run", "--doc", doc)
	assert.Equal(t, exitOK, code, stderr)
}

func TestCLI_VerifySkipRunMissingResults(t *testing.T) {
	code, _, stderr := runCLI(t, "verify", "--out", t.TempDir(), "--skip-run")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, report.SolveJSONName)
}
