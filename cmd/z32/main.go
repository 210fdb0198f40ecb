package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/logging"
	"github.com/John-Robertt/Z32/internal/narrative"
	"github.com/John-Robertt/Z32/internal/projector"
)

// 退出码。
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// errReported 表示失败已经输出给用户（例如校验不匹配），main 只需要返回退出码 1。
var errReported = errors.New("failure already reported")

// usageError 是参数/用法错误（退出码 2）。
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// cli 持有一次进程运行的共享状态。
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	outDir     string
	verbose    bool

	newLogger func(verbose bool) (*zap.Logger, error)
	log       *zap.Logger
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr, newLogger: logging.New}
	return c.run(ctx, args)
}

func (c *cli) run(ctx context.Context, args []string) int {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	err := root.ExecuteContext(ctx)
	if c.log != nil {
		_ = c.log.Sync()
	}
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errReported) {
		return exitFailure
	}
	if isUsageError(err) {
		fmt.Fprintf(c.stderr, "参数错误：%v\n\n", err)
		fmt.Fprint(c.stderr, root.UsageString())
		return exitUsage
	}
	if code := errorCode(err); code != "" {
		fmt.Fprintf(c.stderr, "错误 [%s]：%v\n", code, err)
	} else {
		fmt.Fprintf(c.stderr, "错误：%v\n", err)
	}
	return exitFailure
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "z32",
		Short:         "Z32 cipher geographic constraint solver",
		Long:          "z32 枚举候选明文，经过锁过滤、从 Mt. Diablo 的测地投影与地图边界过滤后按到参考点的距离排序。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			l, err := c.newLogger(c.verbose)
			if err != nil {
				return err
			}
			c.log = l
			return nil
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML 配置文件（默认尝试 ./"+config.DefaultFileName+"）")
	pf.StringVar(&c.outDir, "out", "", "输出目录（默认 "+config.DefaultOutDir+"）")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "输出 debug 日志")

	root.AddCommand(c.solveCmd(), c.verifyCmd(), c.claimsCmd(), c.lockCmd())
	return root
}

// loadEffective 读取配置并合并 CLI 覆盖项。extra 可以补充子命令自己的覆盖项。
func (c *cli) loadEffective(cmd *cobra.Command, extra func(*config.CLIArgs)) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, fmt.Errorf("读取当前目录失败：%w", err)
	}
	args := config.CLIArgs{
		ConfigPath: c.configPath,
		OutDir:     c.outDir,
		OutDirSet:  cmd.Flags().Changed("out"),
	}
	if extra != nil {
		extra(&args)
	}
	return config.LoadEffective(cwd, args)
}

// minArgs 与 cobra.MinimumNArgs 相同，但错误归类为用法错误。
func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err: err}
	}
	return nil
}

func isUsageError(err error) bool {
	var ue usageError
	if errors.As(err, &ue) {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "required flag") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// errorCode 提取结构化错误码（配置/叙述文档/取消）。
func errorCode(err error) string {
	if code := config.Code(err); code != "" {
		return code
	}
	var ne *narrative.Error
	if errors.As(err, &ne) {
		return ne.Code
	}
	if errors.Is(err, projector.ErrTemplateMismatch) {
		return domain.ErrCodeTemplateMismatch
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrCodeCanceled
	}
	return ""
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// pickProgressWriter 选择进度输出：只在交互终端启用，优先 stderr（不污染 stdout JSON）。
func (c *cli) pickProgressWriter() (io.Writer, bool) {
	if isTTY(c.stderr) {
		return c.stderr, true
	}
	// 只重定向了 stderr 时 stdout 可能仍是 TTY：退化输出到 stdout。
	if isTTY(c.stdout) {
		return c.stdout, true
	}
	return nil, false
}
