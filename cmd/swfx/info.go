package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/John-Robertt/swfx/internal/config"
	"github.com/John-Robertt/swfx/internal/infra/httpx"
	"github.com/John-Robertt/swfx/internal/source"
	"github.com/John-Robertt/swfx/internal/swf"
)

type tagInfo struct {
	Index  int    `json:"index"`
	Code   uint16 `json:"code"`
	Name   string `json:"name"`
	Length uint32 `json:"length"`
	Offset int    `json:"offset"`
}

type infoReport struct {
	Source    string            `json:"source"`
	URL       string            `json:"url,omitempty"`
	Signature string            `json:"signature,omitempty"`
	Header    *swf.Header       `json:"header,omitempty"`
	Tags      []tagInfo         `json:"tags"`
	Symbols   map[uint16]string `json:"symbols,omitempty"`
	Warnings  []string          `json:"warnings"`
	Error     string            `json:"error,omitempty"`
}

// namedBlob 是一个待描述的 SWF 字节流。
type namedBlob struct {
	source string
	url    string
	data   []byte
	err    error
}

func infoCmd(args []string) int {
	if len(args) != 1 || isHelp(args[0]) {
		fmt.Fprint(os.Stdout, "用法：\n  swfx info <file|url>\n")
		if len(args) == 1 {
			return 0
		}
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{Path: args[0]})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s：%v\n", config.Code(err), err)
		return 1
	}

	blobs, err := loadBlobs(context.Background(), eff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取输入失败：%v\n", err)
		return 1
	}

	code := 0
	out := make([]infoReport, 0, len(blobs))
	for _, b := range blobs {
		r := describe(b, eff)
		if r.Error != "" {
			code = 1
		}
		out = append(out, r)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
	return code
}

// loadBlobs 读取 info/unpack 的输入：单个本地文件，或 URL（可能是页面，展开为多个 SWF）。
func loadBlobs(ctx context.Context, eff config.EffectiveConfig) ([]namedBlob, error) {
	if eff.IsRemote() {
		c, err := httpx.NewClient(eff.ProxyURL)
		if err != nil {
			return nil, err
		}
		remotes, err := source.Resolver{Client: c}.Resolve(ctx, eff.Input)
		if err != nil {
			return nil, err
		}
		out := make([]namedBlob, 0, len(remotes))
		for _, r := range remotes {
			out = append(out, namedBlob{source: r.URL, url: r.URL, data: r.Data, err: r.Err})
		}
		return out, nil
	}

	if eff.Input == "" {
		return nil, errors.New("需要一个 .swf 文件或 URL（不接受目录）")
	}
	b, err := os.ReadFile(eff.Input)
	if err != nil {
		return nil, err
	}
	return []namedBlob{{source: filepath.Base(eff.Input), data: b}}, nil
}

func describe(b namedBlob, eff config.EffectiveConfig) infoReport {
	r := infoReport{Source: b.source, URL: b.url, Tags: []tagInfo{}, Warnings: []string{}}
	if b.err != nil {
		r.Error = b.err.Error()
		return r
	}

	f, err := swf.Parse(b.data,
		swf.WithWarnings(func(w swf.Warning) { r.Warnings = append(r.Warnings, w.String()) }),
		swf.WithLegacyCharset(eff.LegacyCharset),
	)
	if err != nil {
		r.Error = err.Error()
		return r
	}

	r.Signature = f.Header.SignatureString()
	r.Header = &f.Header
	for i, t := range f.Tags {
		r.Tags = append(r.Tags, tagInfo{
			Index:  i,
			Code:   uint16(t.Code),
			Name:   t.Code.String(),
			Length: t.Length,
			Offset: t.Offset,
		})
	}
	if names := f.SymbolNames(); len(names) > 0 {
		r.Symbols = names
	}
	return r
}
