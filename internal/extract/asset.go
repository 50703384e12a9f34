// Package extract 把图片类 tag 转换为标准编码的图片资源。
//
// 约束：
// - JPEG/GIF 只会以“原样透传”的形式输出；凡是需要重新编码的情况一律输出 PNG
// - 输出的 ImageAsset.Data 总是独立拷贝，生命周期与 swf.File 无关
// - 告警（缺表、alpha 长度不符、调色板越界…）不会中断转换，按约定兜底继续
package extract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/John-Robertt/swfx/internal/swf"
)

// ImageType 是输出图片的编码。
type ImageType string

const (
	JPEG ImageType = "jpeg"
	PNG  ImageType = "png"
	GIF  ImageType = "gif"
)

// Ext 返回带点的文件扩展名。
func (t ImageType) Ext() string {
	switch t {
	case PNG:
		return ".png"
	case GIF:
		return ".gif"
	default:
		return ".jpg"
	}
}

var (
	pngMagic   = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	gif89Magic = []byte("GIF89a")
	gif87Magic = []byte("GIF87a")

	// SWF 8 之前的编码器会在 JPEG 前面多写一对 EOI/SOI。
	erroneousHeader = []byte{0xFF, 0xD9, 0xFF, 0xD8}
)

// Sniff 按魔数判断图片编码：PNG / GIF 显式识别，其余一律按 JPEG 处理。
func Sniff(b []byte) ImageType {
	switch {
	case bytes.HasPrefix(b, pngMagic):
		return PNG
	case bytes.HasPrefix(b, gif89Magic), bytes.HasPrefix(b, gif87Magic):
		return GIF
	default:
		return JPEG
	}
}

// ImageAsset 是一个图片 tag 的转换结果。
type ImageAsset struct {
	Code        swf.TagCode
	CharacterID uint16
	Type        ImageType
	Data        []byte
}

// ErrNotImage 表示传入的 tag 不属于图片家族。
var ErrNotImage = errors.New("extract: not an image tag")

// ErrTruncated 表示解压后的像素数据比宽高声明的短。
var ErrTruncated = errors.New("extract: bitmap data truncated")

// UnsupportedBitmapError 表示无损位图使用了该版本不支持的像素格式。
type UnsupportedBitmapError struct {
	Version int // 1 或 2
	Format  uint8
}

func (e *UnsupportedBitmapError) Error() string {
	return fmt.Sprintf("extract: DefineBitsLossless v%d 不支持的位图格式 %d", e.Version, e.Format)
}

// IsUnsupportedBitmap 判断 err 链上是否有 *UnsupportedBitmapError。
func IsUnsupportedBitmap(err error) bool {
	var e *UnsupportedBitmapError
	return errors.As(err, &e)
}

func owned(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func stripErroneousHeader(b []byte) []byte {
	if bytes.HasPrefix(b, erroneousHeader) {
		return b[len(erroneousHeader):]
	}
	return b
}
