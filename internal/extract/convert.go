package extract

import (
	"fmt"

	"github.com/John-Robertt/swfx/internal/infra/imgx"
	"github.com/John-Robertt/swfx/internal/infra/zipx"
	"github.com/John-Robertt/swfx/internal/swf"
)

// Convert 把一个已解码的图片 tag 转换为 ImageAsset。
// 非图片 tag（含 JPEGTables）返回 ErrNotImage。
func Convert(c Context, tag swf.Tag) (ImageAsset, error) {
	switch t := tag.(type) {
	case swf.DefineBits:
		return convertDefineBits(c, t), nil
	case swf.DefineBitsJPEG2:
		return ImageAsset{
			Code:        swf.TagDefineBitsJPEG2,
			CharacterID: t.CharacterID,
			Type:        Sniff(t.ImageData),
			Data:        owned(t.ImageData),
		}, nil
	case swf.DefineBitsJPEG3:
		return convertJPEG3(c, t)
	case swf.DefineBitsLossless:
		if t.Version == 2 {
			return convertLossless2(c, t)
		}
		return convertLossless(c, t)
	default:
		return ImageAsset{}, fmt.Errorf("%w: %s", ErrNotImage, tag.TagCode())
	}
}

func convertDefineBits(c Context, t swf.DefineBits) ImageAsset {
	tables := c.jpegTables()
	data := make([]byte, 0, len(tables)+len(t.JPEGData))
	data = append(data, tables...)
	data = append(data, t.JPEGData...)
	return ImageAsset{
		Code:        swf.TagDefineBits,
		CharacterID: t.CharacterID,
		Type:        JPEG,
		Data:        data,
	}
}

// convertJPEG3 合成 JPEG 的 RGB 与独立压缩的 alpha 平面，输出 RGBA PNG。
// 图像数据不是 JPEG 时 alpha 平面没有意义，原样透传。
func convertJPEG3(c Context, t swf.DefineBitsJPEG3) (ImageAsset, error) {
	code := t.TagCode()
	asset := ImageAsset{Code: code, CharacterID: t.CharacterID}

	if typ := Sniff(t.ImageData); typ != JPEG {
		if len(t.BitmapAlphaData) > 0 {
			c.warnf(swf.WarnAlphaIgnored, code, "%s %d：图像为 %s，忽略 alpha 平面", code, t.CharacterID, typ)
		}
		asset.Type = typ
		asset.Data = owned(t.ImageData)
		return asset, nil
	}

	// 空输入解压为空：视为没有 alpha，全部不透明。
	alpha, err := zipx.Inflate(t.BitmapAlphaData, 0)
	if err != nil {
		return ImageAsset{}, fmt.Errorf("%s %d：alpha 平面解压失败：%w", code, t.CharacterID, err)
	}

	w, h, rgb, err := imgx.DecodeJPEGRGB(stripErroneousHeader(t.ImageData))
	if err != nil {
		return ImageAsset{}, fmt.Errorf("%s %d：JPEG 解码失败：%w", code, t.CharacterID, err)
	}

	n := w * h
	if len(alpha) > 0 && len(alpha) != n {
		c.warnf(swf.WarnAlphaMismatch, code, "%s %d：alpha 长度 %d 与像素数 %d 不符，缺失部分按不透明处理", code, t.CharacterID, len(alpha), n)
	}

	rgba := make([]byte, n*4)
	for i := 0; i < n; i++ {
		copy(rgba[i*4:i*4+3], rgb[i*3:i*3+3])
		a := byte(0xFF)
		if i < len(alpha) {
			a = alpha[i]
		}
		rgba[i*4+3] = a
	}

	out, err := imgx.EncodePNG(w, h, 4, rgba)
	if err != nil {
		return ImageAsset{}, fmt.Errorf("%s %d：PNG 编码失败：%w", code, t.CharacterID, err)
	}
	asset.Type = PNG
	asset.Data = out
	return asset, nil
}
