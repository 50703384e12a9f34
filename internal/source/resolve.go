package source

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/John-Robertt/swfx/internal/infra/httpx"
)

// ErrNoSWF 表示页面里没有找到任何 SWF 引用。
var ErrNoSWF = errors.New("页面中没有 SWF 引用")

// Resolver 把一个 URL 解析为若干 Remote。
type Resolver struct {
	Client *http.Client

	// Lookup 可选：按 URL 查询本地缓存，命中则不再下载。
	Lookup func(url string) ([]byte, bool)
}

// Resolve 下载 rawURL；它本身是 SWF 则直接返回，否则按页面解析并下载其中引用的每个 SWF。
// 返回的 error 只表示入口本身失败（下载失败 / 既不是 SWF 也不是可解析的页面）。
func (r Resolver) Resolve(ctx context.Context, rawURL string) ([]Remote, error) {
	if b, ok := r.lookup(rawURL); ok {
		return []Remote{{URL: rawURL, Data: b, Cached: true}}, nil
	}

	resp, err := httpx.Get(ctx, r.Client, rawURL)
	if err != nil {
		return nil, &Error{URL: rawURL, Stage: "fetch", Err: err}
	}
	if IsSWF(resp.Body) {
		return []Remote{{URL: rawURL, Data: resp.Body}}, nil
	}
	if !isHTML(resp.ContentType, resp.Body) {
		return nil, &Error{URL: rawURL, Stage: "parse", Err: fmt.Errorf("既不是 SWF 也不是 HTML（content-type=%q）", resp.ContentType)}
	}

	refs, err := PageSWFs(resp.Body, resp.FinalURL)
	if err != nil {
		return nil, &Error{URL: rawURL, Stage: "parse", Err: err}
	}
	if len(refs) == 0 {
		return nil, &Error{URL: rawURL, Stage: "parse", Err: ErrNoSWF}
	}

	out := make([]Remote, 0, len(refs))
	for _, u := range refs {
		out = append(out, r.fetchOne(ctx, u, rawURL))
	}
	return out, nil
}

func (r Resolver) fetchOne(ctx context.Context, u, pageURL string) Remote {
	rem := Remote{URL: u, PageURL: pageURL}
	if b, ok := r.lookup(u); ok {
		rem.Data, rem.Cached = b, true
		return rem
	}

	resp, err := httpx.Get(ctx, r.Client, u)
	if err != nil {
		rem.Err = &Error{URL: u, Stage: "fetch", Err: err}
		return rem
	}
	if !IsSWF(resp.Body) {
		rem.Err = &Error{URL: u, Stage: "parse", Err: errors.New("响应不是 SWF")}
		return rem
	}
	rem.Data = resp.Body
	return rem
}

func (r Resolver) lookup(u string) ([]byte, bool) {
	if r.Lookup == nil {
		return nil, false
	}
	return r.Lookup(u)
}

func isHTML(contentType string, body []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if mt == "text/html" || mt == "application/xhtml+xml" {
			return true
		}
	}
	// 没有可靠的 content-type 时退回嗅探。
	return strings.HasPrefix(http.DetectContentType(body), "text/html")
}
