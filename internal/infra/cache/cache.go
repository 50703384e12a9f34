package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/swfx/internal/infra/fsx"
)

// Store 提供 <root>/cache/ 下的文件缓存读写。
//
// 布局：
// - cache/remote/<host>/<name>-<hash>.swf：远程下载的 SWF 原始字节
// - cache/unpacked/<rel>.swf：unpack 命令输出的未压缩形式
// - cache/report.json：最近一次 apply 的运行报告
//
// 约束：
// - dry-run：只允许读（ReadOnly=true）
// - apply：允许写（ReadOnly=false）
type Store struct {
	Root     string // 运行根目录
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

func (s Store) dir(parts ...string) string {
	return filepath.Join(append([]string{s.Root, "cache"}, parts...)...)
}

// RemotePath 返回远程 SWF 缓存的绝对路径。同一 URL 总是映射到同一路径。
func (s Store) RemotePath(rawURL string) (string, error) {
	host, name, err := remoteKey(rawURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir("remote", host), name), nil
}

// RemoteRelPath 返回远程 SWF 相对运行根目录的路径（用作报告键与产物子目录）。
func (s Store) RemoteRelPath(rawURL string) (string, error) {
	p, err := s.RemotePath(rawURL)
	if err != nil {
		return "", err
	}
	return filepath.Rel(s.Root, p)
}

func (s Store) ReadRemote(rawURL string) ([]byte, bool, error) {
	p, err := s.RemotePath(rawURL)
	if err != nil {
		return nil, false, err
	}
	return readOptional(p)
}

func (s Store) WriteRemote(rawURL string, b []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	p, err := s.RemotePath(rawURL)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(filepath.Dir(p), filepath.Base(p), b)
}

// UnpackedPath 返回 rel（相对运行根目录的 .swf 路径）对应的未压缩输出路径。
func (s Store) UnpackedPath(rel string) (string, error) {
	rel = filepath.Clean(strings.TrimSpace(rel))
	if rel == "." || rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("非法相对路径：%q", rel)
	}
	return s.dir("unpacked", rel), nil
}

func (s Store) WriteUnpacked(rel string, b []byte) (string, error) {
	if s.ReadOnly {
		return "", ErrReadOnly
	}
	p, err := s.UnpackedPath(rel)
	if err != nil {
		return "", err
	}
	return p, fsx.WriteFileAtomicReplace(filepath.Dir(p), filepath.Base(p), b)
}

// ReportPath 返回 report.json 的绝对路径。
func (s Store) ReportPath() string { return s.dir("report.json") }

func (s Store) WriteReport(b []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	return fsx.WriteFileAtomicReplace(s.dir(), "report.json", b)
}

func readOptional(p string) ([]byte, bool, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

var unsafeNameRE = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// remoteKey 把 URL 映射为 (host 目录, 文件名)。文件名保留原 basename 便于辨认，
// 追加 URL 的短哈希以区分同名资源（例如不同查询串）。
func remoteKey(rawURL string) (host, name string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", fmt.Errorf("非法 URL：%q", rawURL)
	}

	host = cleanName(strings.ToLower(u.Host))
	base := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	base = cleanName(base)
	if base == "" || base == "." {
		base = "index"
	}

	sum := sha1.Sum([]byte(u.String()))
	return host, fmt.Sprintf("%s-%s.swf", base, hex.EncodeToString(sum[:])[:10]), nil
}

// cleanName 只保留安全字符，避免路径穿越。
func cleanName(s string) string {
	s = unsafeNameRE.ReplaceAllString(s, "_")
	return strings.Trim(s, "._")
}
