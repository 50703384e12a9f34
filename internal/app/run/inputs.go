package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/swfx/internal/config"
	"github.com/John-Robertt/swfx/internal/domain"
	"github.com/John-Robertt/swfx/internal/infra/cache"
	"github.com/John-Robertt/swfx/internal/infra/httpx"
	"github.com/John-Robertt/swfx/internal/scan"
	"github.com/John-Robertt/swfx/internal/source"
)

// input 是一个待处理的 SWF。data 非 nil 时直接使用（远程下载），否则从 src.AbsPath 读取。
type input struct {
	src  domain.SourceFile
	data []byte
}

// collectInputs 按输入类型（目录 / 单文件 / URL）收集待处理的 SWF。
// 无法进入处理阶段的输入以 failed item 返回。
func collectInputs(ctx context.Context, eff config.EffectiveConfig, store cache.Store) ([]input, []domain.ItemResult) {
	switch {
	case eff.IsRemote():
		return remoteInputs(ctx, eff, store)

	case eff.Input != "":
		src, err := scan.Single(eff.Root, eff.Input)
		if err != nil {
			return nil, []domain.ItemResult{syntheticFailed(filepath.Base(eff.Input), "", domain.ErrCodeIOFailed, fmt.Sprintf("读取输入失败：%v", err))}
		}
		return []input{{src: src}}, nil

	default:
		files, err := scan.ScanSWFs(eff.Root, eff.ExcludeDirs)
		if err != nil {
			return nil, []domain.ItemResult{syntheticFailed("", "", domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err))}
		}
		out := make([]input, 0, len(files))
		for _, f := range files {
			out = append(out, input{src: f})
		}
		return out, nil
	}
}

func remoteInputs(ctx context.Context, eff config.EffectiveConfig, store cache.Store) ([]input, []domain.ItemResult) {
	client, err := httpx.NewClient(eff.ProxyURL)
	if err != nil {
		return nil, []domain.ItemResult{syntheticFailed("", eff.Input, domain.ErrCodeConfigInvalid, fmt.Sprintf("proxy.url 无效：%v", err))}
	}

	r := source.Resolver{
		Client: client,
		Lookup: func(u string) ([]byte, bool) {
			b, ok, err := store.ReadRemote(u)
			return b, err == nil && ok
		},
	}
	remotes, err := r.Resolve(ctx, eff.Input)
	if err != nil {
		return nil, []domain.ItemResult{remoteFailed(eff.Input, err)}
	}

	var (
		inputs []input
		failed []domain.ItemResult
	)
	for _, rem := range remotes {
		if rem.Err != nil {
			failed = append(failed, remoteFailed(rem.URL, rem.Err))
			continue
		}

		src, err := remoteSource(store, rem)
		if err != nil {
			failed = append(failed, syntheticFailed(rem.URL, rem.URL, domain.ErrCodeIOFailed, err.Error()))
			continue
		}
		// apply：下载结果落入 cache/remote/，再次运行时直接命中。dry-run 禁止写入。
		if !rem.Cached && !store.ReadOnly {
			if err := store.WriteRemote(rem.URL, rem.Data); err != nil {
				failed = append(failed, syntheticFailed(src.RelPath, rem.URL, domain.ErrCodeIOFailed, fmt.Sprintf("写入缓存失败：%v", err)))
				continue
			}
		}
		inputs = append(inputs, input{src: src, data: rem.Data})
	}
	return inputs, failed
}

// remoteSource 为远程 SWF 构造 SourceFile：RelPath 为 remote/<host>/<name>.swf，
// 产物因此落在 out/remote/<host>/<name>/ 下。
func remoteSource(store cache.Store, rem source.Remote) (domain.SourceFile, error) {
	abs, err := store.RemotePath(rem.URL)
	if err != nil {
		return domain.SourceFile{}, err
	}
	rel, err := filepath.Rel(filepath.Join(store.Root, "cache"), abs)
	if err != nil {
		return domain.SourceFile{}, err
	}
	name := filepath.Base(abs)
	return domain.SourceFile{
		AbsPath: abs,
		RelPath: rel,
		Base:    strings.TrimSuffix(name, filepath.Ext(name)),
		Size:    int64(len(rem.Data)),
		URL:     rem.URL,
	}, nil
}

func remoteFailed(u string, err error) domain.ItemResult {
	code := domain.ErrCodeFetchFailed
	var se *source.Error
	if errors.As(err, &se) && se.Stage == "parse" {
		code = domain.ErrCodeParseFailed
	}
	return syntheticFailed(u, u, code, humanizeFetchError(err))
}

// humanizeFetchError 尽量给出可操作提示（限流/不存在/超时是最常见问题）。
func humanizeFetchError(err error) string {
	var hs *httpx.StatusError
	if errors.As(err, &hs) {
		switch hs.StatusCode {
		case 403, 429:
			return fmt.Sprintf("HTTP %d（可能触发反爬/限流）。建议降低并发或配置 proxy.url：%s", hs.StatusCode, hs.URL)
		case 404:
			return fmt.Sprintf("HTTP 404（资源不存在）：%s", hs.URL)
		}
		return err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return fmt.Sprintf("下载超时。建议检查网络/代理后重试：%v", err)
	}
	return err.Error()
}
