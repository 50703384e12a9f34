package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/swfx/internal/config"
	"github.com/John-Robertt/swfx/internal/infra/cache"
	"github.com/John-Robertt/swfx/internal/infra/fsx"
	"github.com/John-Robertt/swfx/internal/swf"
)

type unpackArgs struct {
	Path string
	Out  string
}

func parseUnpackArgs(args []string) (unpackArgs, error) {
	ua := unpackArgs{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-o" || a == "--out":
			if i+1 >= len(args) {
				return unpackArgs{}, fmt.Errorf("%s 需要一个值", a)
			}
			i++
			ua.Out = args[i]
		case strings.HasPrefix(a, "--out="):
			ua.Out = strings.TrimPrefix(a, "--out=")
		case strings.HasPrefix(a, "-"):
			return unpackArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ua.Path != "" {
				return unpackArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ua.Path, a)
			}
			ua.Path = a
		}
	}
	if ua.Path == "" {
		return unpackArgs{}, fmt.Errorf("需要一个 .swf 文件")
	}
	return ua, nil
}

// unpackCmd 写出未压缩（FWS）形式的 SWF。
// 未指定 -o 时写到 <root>/cache/unpacked/<name>.swf（远程输入按 URL 派生文件名）。
func unpackCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			fmt.Fprint(os.Stdout, "用法：\n  swfx unpack <file|url> [-o out.swf]\n")
			return 0
		}
	}
	ua, err := parseUnpackArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n", err)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{Path: ua.Path})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s：%v\n", config.Code(err), err)
		return 1
	}

	blobs, err := loadBlobs(context.Background(), eff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取输入失败：%v\n", err)
		return 1
	}
	if ua.Out != "" && len(blobs) != 1 {
		fmt.Fprintf(os.Stderr, "输入展开为 %d 个 SWF，不能使用 -o\n", len(blobs))
		return 2
	}

	store := cache.New(eff.Root, false)
	code := 0
	for _, b := range blobs {
		dst, err := unpackOne(store, b, ua.Out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s：%v\n", b.source, err)
			code = 1
			continue
		}
		fmt.Fprintln(os.Stdout, dst)
	}
	return code
}

func unpackOne(store cache.Store, b namedBlob, out string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	f, err := swf.Parse(b.data)
	if err != nil {
		return "", err
	}
	data := f.Canonical()

	if out != "" {
		abs, err := filepath.Abs(out)
		if err != nil {
			return "", err
		}
		return abs, fsx.WriteFileAtomicReplace(filepath.Dir(abs), filepath.Base(abs), data)
	}

	rel := b.source
	if b.url != "" {
		p, err := store.RemotePath(b.url)
		if err != nil {
			return "", err
		}
		rel = filepath.Base(p)
	}
	return store.WriteUnpacked(rel, data)
}
