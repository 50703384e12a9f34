// Package source 把远程输入解析为一个或多个 SWF 字节流。
//
// 输入是一个 http(s) URL：
// - 响应体以 FWS/CWS/ZWS 签名开头：它就是 SWF
// - 否则按 HTML 页面解析，收集 <embed>/<object>/<param name=movie> 等引用的 SWF 并逐个下载
//
// 约束：
// - 不做缓存（缓存由上层通过 Resolver.Lookup 注入）
// - 页面解析是纯函数：相同 html + pageURL => 相同结果
// - 单个引用下载失败只记录在该 Remote 上，不影响其他引用
package source

import (
	"bytes"
	"fmt"
)

// Remote 是一个远程 SWF。Err 非 nil 时 Data 无效。
type Remote struct {
	URL     string // SWF 的最终地址
	PageURL string // 引用它的页面（直接下载时为空）
	Data    []byte
	Cached  bool // Data 来自 Lookup 而不是网络
	Err     error
}

// Error 是 source 阶段的可追溯错误。
// 上层可以据此把失败归类为 fetch_failed / parse_failed，并写入 report。
type Error struct {
	URL   string
	Stage string // "fetch" 或 "parse"
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("url=%s stage=%s: %v", e.URL, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsSWF 按签名判断 b 是否像 SWF（只看前 3 字节）。
func IsSWF(b []byte) bool {
	if len(b) < 3 {
		return false
	}
	switch {
	case bytes.HasPrefix(b, []byte("FWS")), bytes.HasPrefix(b, []byte("CWS")), bytes.HasPrefix(b, []byte("ZWS")):
		return true
	default:
		return false
	}
}
