package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "paste2excel/internal/config"
	"paste2excel/internal/diag"
	"paste2excel/internal/pipeline"
	"paste2excel/internal/server"
	"paste2excel/pkg/registry"
)

// 退出码：0 成功；1 运行期失败；3 配置/装配失败。
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 3
)

// 测试替换点。
var (
	pipelineRun = pipeline.Run
	newLogger   = diag.NewLogger
	serveApp    = func(ctx context.Context, s *server.Server, addr string) error {
		errCh := make(chan error, 1)
		go func() { errCh <- s.Listen(addr) }()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.Shutdown(sctx)
		}
	}
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// exitError 携带退出码。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configErr(stage string, err error) error {
	return &exitError{code: exitConfig, err: fmt.Errorf("%s: %w", stage, err)}
}

func runtimeErr(err error) error {
	return &exitError{code: exitRuntime, err: err}
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	corrID string

	configPath string
	reader     string
	sink       string
	workbook   string
	sheet      string
	logLevel   string
	addr       string
	dryRun     bool
	allowEmpty bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fprintf(stderr, "提示：.env 读取失败（已跳过）：%v\n", err)
	}
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, corrID: uuid.NewString()}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		// cobra 的参数/旗标错误
		fprintf(stderr, "参数错误: %v\n", err)
		return exitConfig
	}
	if !errors.Is(err, context.Canceled) {
		fprintf(stderr, "%v\n", err)
	}
	return ee.code
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "paste2excel [inputs...]",
		Short: "Append labelled contract details to the shared job workbook",
		Long: `paste2excel extracts the labelled fields of a contract (Job Name, Job Address,
GC/Property Owner/Customer Name, Architect, Job Contract Price Total,
Retainage on Contract, Date Contract Awarded) and appends them as one row.

Inputs are files, directories or "-" for STDIN. Without inputs the contract is
pasted interactively and ends at the first empty line.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runAppend,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "配置文件（YAML/JSON）；缺省读取 P2X_CONFIG_FILE 或 ./config.yaml、./config.json（若存在）")
	pf.StringVar(&c.sink, "sink", "", "Sink 名称：xlsx|jsonl|sqlite（覆盖配置）")
	pf.StringVar(&c.workbook, "workbook", "", "xlsx 工作簿路径（覆盖配置）")
	pf.StringVar(&c.sheet, "sheet", "", "xlsx 工作表名（覆盖配置）")
	pf.StringVar(&c.logLevel, "log-level", "", "日志等级：debug|info|warn|error")

	f := root.Flags()
	f.StringVar(&c.reader, "reader", "", "Reader 名称：fs|console（覆盖配置）")
	f.BoolVar(&c.dryRun, "dry-run", false, "只打印映射结果，不写入")
	f.BoolVar(&c.allowEmpty, "allow-empty", false, "未识别到任何字段时仍追加空行")

	root.AddCommand(c.initConfigCmd(), c.serveCmd())
	return root
}

// loadConfig 按 Defaults ← 文件 ← ENV ← CLI 合并并校验。
func (c *cli) loadConfig(args []string) (cfgpkg.Config, error) {
	cfg := cfgpkg.Defaults()
	path := c.configPath
	if path == "" {
		path = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if path == "" {
		for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path != "" {
		base, err := cfgpkg.Load(path, nil)
		if err != nil {
			return cfg, configErr("配置解析失败", err)
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, configErr("环境变量解析失败", err)
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	var overCLI cfgpkg.Config
	overCLI.Inputs = args
	overCLI.Components.Reader = c.reader
	overCLI.Components.Sink = c.sink
	overCLI.Workbook = c.workbook
	overCLI.Sheet = c.sheet
	overCLI.Logging.Level = c.logLevel
	if c.allowEmpty {
		off := false
		overCLI.SkipEmpty = &off
	}
	cfg = cfgpkg.Merge(cfg, overCLI)

	if err := cfgpkg.Validate(cfg); err != nil {
		c.dumpConfig(cfg)
		return cfg, configErr("配置校验失败", err)
	}
	return cfg, nil
}

func (c *cli) runAppend(cmd *cobra.Command, args []string) error {
	start := time.Now()
	cfg, err := c.loadConfig(args)
	if err != nil {
		return err
	}
	// 无输入且仍为默认 fs Reader 时改为交互粘贴
	if len(cfg.Inputs) == 0 && cfg.Components.Reader == "fs" {
		cfg.Components.Reader = "console"
		cfg.Options.Reader = nil
	}

	logger := newLogger(c.corrID, cfg.Logging.Level)
	defer logger.Close()

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		logger.Error("config", string(diag.Classify(err)), "assemble failed", &start)
		return configErr("装配失败", err)
	}
	if cfg.Components.Reader == "console" {
		r, err := registry.Console(cfg.Options.Reader, c.stdin, c.stderr)
		if err != nil {
			logger.Error("config", string(diag.Classify(err)), "console options", &start)
			return configErr("装配失败", fmt.Errorf("reader console options: %w", err))
		}
		comp.Reader = r
	}
	if c.dryRun {
		comp.Sink = nil
	}
	logger.DebugStart("config", "effective", "", map[string]string{
		"inputs_count": fmt.Sprintf("%d", len(cfg.Inputs)),
		"reader":       cfg.Components.Reader,
		"sink":         cfg.Components.Sink,
		"skip_empty":   fmt.Sprintf("%t", set.SkipEmpty),
		"dry_run":      fmt.Sprintf("%t", c.dryRun),
	})

	set.Observe = c.report
	sum, err := pipelineRun(cmd.Context(), comp, set, logger)
	if err != nil {
		code := string(diag.Classify(err))
		logger.Error("pipeline", code, "first error", &start)
		diag.IncOp("pipeline", "error", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		return runtimeErr(fmt.Errorf("运行失败: %w", err))
	}
	diag.IncOp("pipeline", "finish", "success")
	if sum.Contracts != 1 {
		fprintf(c.stderr, "%d contract(s): %d appended, %d skipped\n", sum.Contracts, sum.Appended, sum.Skipped)
	}
	return nil
}

// report 输出每份合同的回执。
func (c *cli) report(res pipeline.Result) {
	switch {
	case res.Skipped:
		fprintf(c.stdout, "%s: skipped (no fields recognized)\n", res.ID)
	case res.Appended:
		fprintf(c.stdout, "%s: appended row %d (%d fields)\n", res.ID, res.Append.Row, len(res.Fields))
	default:
		b, err := json.Marshal(res.Record)
		if err != nil {
			fprintf(c.stdout, "%s: %v\n", res.ID, err)
			return
		}
		fprintf(c.stdout, "%s: %s\n", res.ID, b)
	}
}

func (c *cli) initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [dir]",
		Short: "Write config.yaml and a .env template (existing files are never overwritten)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = strings.TrimSpace(args[0])
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return configErr("生成默认配置失败", err)
			}
			b, err := cfgpkg.RenderTemplate()
			if err != nil {
				return configErr("生成默认配置失败", err)
			}
			cfgPath := filepath.Join(dir, "config.yaml")
			if err := writeNew(cfgPath, b); err != nil {
				return configErr("生成默认配置失败", err)
			}
			fprintf(c.stdout, "wrote %s\n", cfgPath)
			envPath := filepath.Join(dir, ".env")
			switch err := writeNew(envPath, []byte(cfgpkg.EnvTemplate)); {
			case err == nil:
				fprintf(c.stdout, "wrote %s\n", envPath)
			case errors.Is(err, os.ErrExist):
			default:
				fprintf(c.stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
			}
			return nil
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept contracts over HTTP (POST /contracts, POST /extract)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			cfg, err := c.loadConfig(nil)
			if err != nil {
				return err
			}
			if c.addr != "" {
				cfg.Server.Addr = c.addr
			}
			logger := newLogger(c.corrID, cfg.Logging.Level)
			defer logger.Close()
			comp, _, err := cfgpkg.Assemble(cfg)
			if err != nil {
				logger.Error("config", string(diag.Classify(err)), "assemble failed", &start)
				return configErr("装配失败", err)
			}
			comp.Reader = nil
			fprintf(c.stderr, "listening on %s\n", cfg.Server.Addr)
			if err := serveApp(cmd.Context(), server.New(comp, logger), cfg.Server.Addr); err != nil {
				logger.Error("server", string(diag.Classify(err)), "serve failed", &start)
				return runtimeErr(fmt.Errorf("服务失败: %w", err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&c.addr, "addr", "", "监听地址（默认 :8080）")
	return cmd
}

// writeNew 创建新文件；已存在时返回 os.ErrExist，不覆盖。
func writeNew(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (c *cli) dumpConfig(cfg cfgpkg.Config) {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return
	}
	fprintf(c.stderr, "有效配置:\n%s\n", b)
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }
