package extract

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/swfx/internal/swf"
)

// DefaultConcurrency 是 Images 未指定并发度时的上限。
const DefaultConcurrency = 4

// Options 控制一次批量提取。
type Options struct {
	// Concurrency 是同时进行的转换数（<=0 取 DefaultConcurrency）。
	Concurrency int
}

// Result 是一个图片 tag 的提取结果：Err 为 nil 时 Asset 有效。
// Warnings 只包含该 tag 转换期间产生的告警（按发生顺序）；
// 文件级的 JPEGTables 告警只挂在第一个 DefineBits 的结果上。
type Result struct {
	Index       int // 在 File.Tags 中的位置
	Code        swf.TagCode
	CharacterID uint16
	Asset       ImageAsset
	Warnings    []swf.Warning
	Err         error
}

// Images 对文件中的每个图片 tag 各起一个转换任务，全部完成后按 tag 顺序返回。
//
// 约束：
// - 单个转换失败只记录在它自己的 Result 中，不取消、不影响其他转换
// - JPEGTables 在分发前计算一次，之后只读共享，无需加锁
// - 缺表/多表告警每个文件只发一次
// - ctx 被取消后，尚未开始的转换以 ctx.Err() 结束
func Images(ctx context.Context, f *swf.File, opts Options) []Result {
	n := opts.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}

	base := NewContext(f.Tags, nil)

	var idx []int
	for i, t := range f.Tags {
		if t.Code.IsImage() {
			idx = append(idx, i)
		}
	}
	results := make([]Result, len(idx))

	for k, i := range idx {
		if f.Tags[i].Code == swf.TagDefineBits {
			base.WithWarnings(func(w swf.Warning) { results[k].Warnings = append(results[k].Warnings, w) }).warnTables()
			break
		}
	}

	var g errgroup.Group
	g.SetLimit(n)
	for k, i := range idx {
		raw := f.Tags[i]
		r := &results[k]
		r.Index = i
		r.Code = raw.Code

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				r.Err = err
				return nil
			}
			c := base.WithWarnings(func(w swf.Warning) { r.Warnings = append(r.Warnings, w) })
			convertOne(c, raw, r)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func convertOne(c Context, raw swf.RawTag, r *Result) {
	tag, err := swf.Decode(raw)
	if err != nil {
		r.Err = err
		return
	}
	r.CharacterID = characterID(tag)

	asset, err := Convert(c, tag)
	if err != nil {
		r.Err = err
		return
	}
	r.Asset = asset
}

func characterID(t swf.Tag) uint16 {
	switch t := t.(type) {
	case swf.DefineBits:
		return t.CharacterID
	case swf.DefineBitsJPEG2:
		return t.CharacterID
	case swf.DefineBitsJPEG3:
		return t.CharacterID
	case swf.DefineBitsLossless:
		return t.CharacterID
	default:
		return 0
	}
}
