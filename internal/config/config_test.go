package config

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestLoadEffective_ConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ConfigMissingPath(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"sounds":true}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingPath {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingPath, err, Code(err))
	}
}

func TestLoadEffective_ApplyCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"path":"movies","apply":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{
		Apply:    false,
		ApplySet: true, // --apply=false
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Apply != false {
		t.Fatalf("期望 apply=false，实际=%v", eff.Apply)
	}

	wantRoot := filepath.Join(cwd, "movies")
	if eff.Root != wantRoot || eff.Input != "" {
		t.Fatalf("期望 root=%q input=\"\"，实际 root=%q input=%q", wantRoot, eff.Root, eff.Input)
	}
}

func TestLoadEffective_MergeOrder(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"path":"p","sounds":true,"concurrency":8}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !eff.Sounds || eff.Concurrency != 8 {
		t.Fatalf("应使用配置文件中的值：%+v", eff)
	}

	// CLI 显式指定，则覆盖配置文件；超出范围截断。
	eff2, err := LoadEffective(cwd, CLIArgs{
		Sounds: false, SoundsSet: true,
		Concurrency: 100, ConcurrencySet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff2.Sounds || eff2.Concurrency != MaxConcurrency {
		t.Fatalf("CLI 应覆盖配置文件：%+v", eff2)
	}
}

func TestLoadEffective_CLIPath_ConfigOptional(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{Path: root})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Root != root {
		t.Fatalf("期望 root=%q，实际=%q", root, eff.Root)
	}
	if eff.Concurrency != DefaultConcurrency || eff.LegacyCharset != nil {
		t.Fatalf("期望默认值：%+v", eff)
	}
}

func TestLoadEffective_CLIPath_SingleFile(t *testing.T) {
	cwd := t.TempDir()
	dir := filepath.Join(cwd, "games")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	swf := filepath.Join(dir, "menu.swf")
	writeFile(t, swf, []byte("FWS"))
	writeFile(t, filepath.Join(dir, FileName), []byte(`{"legacy_charset":"shift_jis"}`))

	eff, err := LoadEffective(cwd, CLIArgs{Path: "games/menu.swf"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Root != dir || eff.Input != swf {
		t.Fatalf("单文件输入应以所在目录为根：%+v", eff)
	}
	if eff.LegacyCharset != japanese.ShiftJIS {
		t.Fatalf("应读取同目录下的配置：%+v", eff)
	}
}

func TestLoadEffective_CLIPath_URL(t *testing.T) {
	cwd := t.TempDir()
	eff, err := LoadEffective(cwd, CLIArgs{Path: "https://example.com/a.swf"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Root != cwd || !eff.IsRemote() {
		t.Fatalf("URL 输入应以 cwd 为根：%+v", eff)
	}
}

func TestLoadEffective_CLIPath_InvalidConfig(t *testing.T) {
	cwd := t.TempDir()
	root := filepath.Join(cwd, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	writeFile(t, filepath.Join(root, FileName), []byte(`{`))

	_, err := LoadEffective(cwd, CLIArgs{Path: root})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_InvalidCharset(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"path":"p","legacy_charset":"klingon"}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_InvalidProxyURL(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"path":"p","proxy":{"url":"http://[::1"}}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
