package source

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageSWFs 从 HTML 页面中收集引用的 SWF 地址（已解析为绝对 URL，去重并保持文档顺序）。
//
// 识别：
// - <embed src>
// - <object data>（type 为 flash 或地址以 .swf 结尾）
// - <param name="movie"|"src" value>
// - <a href> 指向 .swf
func PageSWFs(html []byte, pageURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	base := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		base = resolveURL(pageURL, href)
	}

	var refs []string
	doc.Find("embed, object, param, a").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "embed":
			if src, ok := s.Attr("src"); ok {
				refs = append(refs, src)
			}
		case "object":
			data, ok := s.Attr("data")
			if !ok {
				return
			}
			typ, _ := s.Attr("type")
			if strings.Contains(strings.ToLower(typ), "flash") || hasSWFExt(data) {
				refs = append(refs, data)
			}
		case "param":
			name, _ := s.Attr("name")
			switch strings.ToLower(strings.TrimSpace(name)) {
			case "movie", "src":
				if v, ok := s.Attr("value"); ok {
					refs = append(refs, v)
				}
			}
		case "a":
			if href, ok := s.Attr("href"); ok && hasSWFExt(href) {
				refs = append(refs, href)
			}
		}
	})

	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if u := resolveURL(base, r); u != "" {
			out = append(out, u)
		}
	}
	return normList(out), nil
}

func hasSWFExt(ref string) bool {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".swf")
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ru, err := url.Parse(href)
	if err != nil {
		return ""
	}
	out := bu.ResolveReference(ru)
	if out.Scheme != "http" && out.Scheme != "https" {
		return ""
	}
	return out.String()
}

func normList(in []string) []string {
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
