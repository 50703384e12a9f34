package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// FileName 是配置文件名。
const FileName = "swfx.json"

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 swfx.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// DefaultConcurrency 是并发的内置默认值（当 CLI 与配置都未指定时）。
	DefaultConcurrency = 4
	MaxConcurrency     = 32
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Path string

	Apply    bool
	ApplySet bool

	Sounds    bool
	SoundsSet bool

	Concurrency    int
	ConcurrencySet bool
}

// FileConfig 对应 swfx.json 的解析结构。
type FileConfig struct {
	Path          string       `json:"path"`
	Apply         *bool        `json:"apply"`
	Sounds        *bool        `json:"sounds"`
	Concurrency   int          `json:"concurrency"`
	Proxy         *ProxyConfig `json:"proxy"`
	ExcludeDirs   []string     `json:"exclude_dirs"`
	LegacyCharset string       `json:"legacy_charset"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// Root 是运行根目录：out/ 与 cache/ 都位于其下。
	Root string
	// Input 为空表示扫描 Root；否则是单个 .swf 的绝对路径或 http(s) URL。
	Input string

	Apply       bool
	Sounds      bool
	Concurrency int
	ProxyURL    string
	ExcludeDirs []string

	LegacyCharsetName string
	// LegacyCharset 用于 SWF 5 及更早版本的字符串；nil 表示按 UTF-8 处理。
	LegacyCharset encoding.Encoding
}

// IsRemote 报告输入是否是 http(s) URL。
func (c EffectiveConfig) IsRemote() bool { return IsURL(c.Input) }

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按约定发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：目录 → 读取 <path>/swfx.json（可选）；单个文件 → 读取 <文件所在目录>/swfx.json（可选）；
// URL → 读取 <cwd>/swfx.json（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/swfx.json（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：
// - path：CLI path > config path
// - apply / sounds / concurrency：CLI > config > 默认
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		root, input := resolveInput(cwdAbs, cli.Path)
		cfgPath := filepath.Join(root, FileName)

		fc, _, err := readFileConfig(cfgPath) // 不存在也不报错
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(root, input, cli, fc, cfgPath)
	}

	// CLI 没给 path：必须读取 <cwd>/swfx.json，且其中必须包含 path。
	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	root, input := resolveInput(cwdAbs, fc.Path)
	return merge(root, input, cli, fc, cfgPath)
}

// resolveInput 把 path 参数解析为 (运行根目录, 输入)。
func resolveInput(cwdAbs, p string) (root, input string) {
	p = strings.TrimSpace(p)
	if IsURL(p) {
		return cwdAbs, p
	}
	abs := absCleanFrom(cwdAbs, p)
	if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
		return filepath.Dir(abs), abs
	}
	return abs, ""
}

// IsURL 报告 s 是否是 http(s) URL。
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func merge(root, input string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// apply：CLI > config > 默认 false
	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	sounds := false
	if cli.SoundsSet {
		sounds = cli.Sounds
	} else if fc.Sounds != nil {
		sounds = *fc.Sounds
	}

	concurrency := fc.Concurrency
	if cli.ConcurrencySet {
		concurrency = cli.Concurrency
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy.url 无效：%w", err)}
		}
	}

	name := strings.ToLower(strings.TrimSpace(fc.LegacyCharset))
	enc, err := LegacyCharset(name)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	return EffectiveConfig{
		Root:              root,
		Input:             input,
		Apply:             apply,
		Sounds:            sounds,
		Concurrency:       concurrency,
		ProxyURL:          proxyURL,
		ExcludeDirs:       append([]string(nil), fc.ExcludeDirs...),
		LegacyCharsetName: name,
		LegacyCharset:     enc,
	}, nil
}

// LegacyCharset 按名字返回旧式字符集；空名字返回 nil（按 UTF-8 处理）。
func LegacyCharset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252", "latin1":
		return charmap.Windows1252, nil
	case "shift_jis", "sjis":
		return japanese.ShiftJIS, nil
	case "gbk", "cp936":
		return simplifiedchinese.GBK, nil
	default:
		return nil, fmt.Errorf("legacy_charset 只能是 windows-1252 / shift_jis / gbk，实际是 %q", name)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
