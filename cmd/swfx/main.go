package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/swfx/internal/app/run"
	"github.com/John-Robertt/swfx/internal/config"
	"github.com/John-Robertt/swfx/internal/domain"
	"github.com/John-Robertt/swfx/internal/infra/cache"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	var code int
	switch args[0] {
	case "extract":
		code = extractCmd(args[1:])
	case "info":
		code = infoCmd(args[1:])
	case "unpack":
		code = unpackCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

func extractCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printExtractUsage()
			return 0
		}
	}

	ea, err := parseExtractArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printExtractUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:           ea.Path,
		Apply:          ea.Apply,
		ApplySet:       ea.ApplySet,
		Sounds:         ea.Sounds,
		SoundsSet:      ea.SoundsSet,
		Concurrency:    ea.Concurrency,
		ConcurrencySet: ea.ConcurrencySet,
	})
	if err != nil {
		rr := reportForConfigError(cwdAbs, ea, err)
		emitReport(rr)
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rr := run.ExecuteWithObserver(ctx, eff, obs)

	// apply：必须写入 <root>/cache/report.json；dry-run 禁止落盘。
	if eff.Apply {
		if err := writeReportFile(eff.Root, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	if rr.Summary.Failed == 0 && rr.Summary.AssetsFailed == 0 {
		return 0
	}
	return 1
}

type extractArgs struct {
	Path string

	Apply    bool
	ApplySet bool

	Sounds    bool
	SoundsSet bool

	Concurrency    int
	ConcurrencySet bool
}

func parseExtractArgs(args []string) (extractArgs, error) {
	ea := extractArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--apply":
			ea.Apply, ea.ApplySet = true, true
		case strings.HasPrefix(a, "--apply="):
			v, err := parseBoolFlag("--apply", strings.TrimPrefix(a, "--apply="))
			if err != nil {
				return extractArgs{}, err
			}
			ea.Apply, ea.ApplySet = v, true
		case a == "--sounds":
			ea.Sounds, ea.SoundsSet = true, true
		case strings.HasPrefix(a, "--sounds="):
			v, err := parseBoolFlag("--sounds", strings.TrimPrefix(a, "--sounds="))
			if err != nil {
				return extractArgs{}, err
			}
			ea.Sounds, ea.SoundsSet = v, true
		case a == "--concurrency":
			if i+1 >= len(args) {
				return extractArgs{}, fmt.Errorf("--concurrency 需要一个值")
			}
			i++
			n, err := parseConcurrency(args[i])
			if err != nil {
				return extractArgs{}, err
			}
			ea.Concurrency, ea.ConcurrencySet = n, true
		case strings.HasPrefix(a, "--concurrency="):
			n, err := parseConcurrency(strings.TrimPrefix(a, "--concurrency="))
			if err != nil {
				return extractArgs{}, err
			}
			ea.Concurrency, ea.ConcurrencySet = n, true
		case strings.HasPrefix(a, "-"):
			return extractArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ea.Path != "" {
				return extractArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ea.Path, a)
			}
			ea.Path = a
		}
	}
	return ea, nil
}

func parseBoolFlag(name, v string) (bool, error) {
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", name, v)
	}
}

func parseConcurrency(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > config.MaxConcurrency {
		return 0, fmt.Errorf("--concurrency 必须是 1–%d 的整数，实际是 %q", config.MaxConcurrency, v)
	}
	return n, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  swfx extract [path|url] [--apply[=true|false]] [--sounds[=true|false]] [--concurrency N]
  swfx info <file|url>
  swfx unpack <file> [-o out.swf]

命令：
  extract  提取图片（及可选的 MP3 声音），默认 dry-run
  info     输出容器头与 tag 列表（JSON）
  unpack   写出未压缩（FWS）形式的 SWF

使用 "swfx <命令> --help" 查看详细说明。
`)
}

func printExtractUsage() {
	fmt.Fprint(os.Stdout, `用法：
  swfx extract [path|url] [--apply[=true|false]] [--sounds[=true|false]] [--concurrency N]

参数：
  path          目录（递归扫描 .swf）、单个 .swf 文件或 http(s) URL；省略时读取 ./swfx.json 中的 path
  --apply       写出产物到 <root>/out/（默认 dry-run）；支持 --apply=false 覆盖配置中的 apply=true
  --sounds      同时提取 MP3 格式的 DefineSound
  --concurrency 并发度 1–32（默认 4）
  -h, --help    显示帮助
`)
}

func summaryLine(rr domain.RunReport) string {
	s := rr.Summary
	return fmt.Sprintf("完成：processed=%d skipped=%d failed=%d images=%d sounds=%d assets_failed=%d warnings=%d",
		s.Processed, s.Skipped, s.Failed, s.Images, s.Sounds, s.AssetsFailed, s.Warnings,
	)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintln(os.Stdout, summaryLine(rr))
		if rr.Summary.Failed > 0 || rr.Summary.AssetsFailed > 0 {
			for _, it := range rr.Items {
				key := it.Source
				if key == "" {
					key = "<config>"
				}
				if it.Status == domain.StatusFailed {
					fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
				}
				for _, a := range it.Assets {
					if a.Status == domain.AssetStatusFailed {
						fmt.Fprintf(os.Stderr, "%s %s_%d %s: %s\n", key, a.Tag, a.CharacterID, a.ErrorCode, a.ErrorMsg)
					}
				}
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintln(os.Stderr, summaryLine(rr))
}

func reportForConfigError(cwdAbs string, ea extractArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Path:       cwdAbs,
		DryRun:     !(ea.ApplySet && ea.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
			Warnings:  []domain.WarningEntry{},
			Assets:    []domain.AssetResult{},
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(root string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return cache.New(root, false).WriteReport(b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if w == nil {
		return
	}
	if eff.Apply {
		fmt.Fprintf(w, "report: %s\n", cache.New(eff.Root, true).ReportPath())
	}
	fmt.Fprintf(w, "out: %s\n", filepath.Join(eff.Root, "out"))
}
