package extract

import (
	"fmt"

	"github.com/John-Robertt/swfx/internal/infra/imgx"
	"github.com/John-Robertt/swfx/internal/infra/zipx"
	"github.com/John-Robertt/swfx/internal/swf"
)

// 8 位调色板与 15 位格式的每一行按 4 字节对齐。
func stride(rowBytes int) int { return (rowBytes + 3) &^ 3 }

// need 校验解压后的数据至少有 n 字节。最后一行允许缺少对齐填充。
func need(t swf.DefineBitsLossless, data []byte, n int) error {
	if len(data) < n {
		return fmt.Errorf("%w: %s %d 需要 %d 字节，实际 %d", ErrTruncated, t.TagCode(), t.CharacterID, n, len(data))
	}
	return nil
}

func inflateBitmap(t swf.DefineBitsLossless, hint int) ([]byte, error) {
	if t.Width == 0 || t.Height == 0 {
		return nil, fmt.Errorf("%s %d：位图尺寸为 %dx%d", t.TagCode(), t.CharacterID, t.Width, t.Height)
	}
	data, err := zipx.Inflate(t.ZlibBitmapData, hint)
	if err != nil {
		return nil, fmt.Errorf("%s %d：位图数据解压失败：%w", t.TagCode(), t.CharacterID, err)
	}
	return data, nil
}

// convertLossless 处理 DefineBitsLossless（v1），输出 RGB PNG。
func convertLossless(c Context, t swf.DefineBitsLossless) (ImageAsset, error) {
	w, h := int(t.Width), int(t.Height)
	var pix []byte

	switch t.BitmapFormat {
	case swf.BitmapColormapped8:
		entries := int(t.ColorTableSize) + 1
		data, err := inflateBitmap(t, entries*3+stride(w)*h)
		if err != nil {
			return ImageAsset{}, err
		}
		pal := entries * 3
		if err := need(t, data, pal+stride(w)*(h-1)+w); err != nil {
			return ImageAsset{}, err
		}
		pix = make([]byte, 0, w*h*3)
		miss := 0
		for y := 0; y < h; y++ {
			row := data[pal+y*stride(w):]
			for x := 0; x < w; x++ {
				idx := int(row[x])
				if idx >= entries {
					miss++
					pix = append(pix, 0, 0, 0)
					continue
				}
				pix = append(pix, data[idx*3:idx*3+3]...)
			}
		}
		warnColormap(c, t, miss)

	case swf.BitmapRGB15:
		data, err := inflateBitmap(t, stride(w*2)*h)
		if err != nil {
			return ImageAsset{}, err
		}
		if err := need(t, data, stride(w*2)*(h-1)+w*2); err != nil {
			return ImageAsset{}, err
		}
		pix = make([]byte, 0, w*h*3)
		for y := 0; y < h; y++ {
			row := data[y*stride(w*2):]
			for x := 0; x < w; x++ {
				// 大端 0RRRRRGGGGGBBBBB
				v := uint16(row[x*2])<<8 | uint16(row[x*2+1])
				pix = append(pix, expand5(v>>10), expand5(v>>5), expand5(v))
			}
		}

	case swf.BitmapRGB24:
		data, err := inflateBitmap(t, w*h*4)
		if err != nil {
			return ImageAsset{}, err
		}
		if err := need(t, data, w*h*4); err != nil {
			return ImageAsset{}, err
		}
		pix = make([]byte, 0, w*h*3)
		for i := 0; i < w*h; i++ {
			// {保留字节, R, G, B}
			pix = append(pix, data[i*4+1], data[i*4+2], data[i*4+3])
		}

	default:
		return ImageAsset{}, &UnsupportedBitmapError{Version: 1, Format: t.BitmapFormat}
	}

	return encodeLossless(t, 3, pix)
}

// convertLossless2 处理 DefineBitsLossless2（v2），输出 RGBA PNG。
// 格式 5 的 ARGB 原样搬运，不做反预乘。
func convertLossless2(c Context, t swf.DefineBitsLossless) (ImageAsset, error) {
	w, h := int(t.Width), int(t.Height)
	var pix []byte

	switch t.BitmapFormat {
	case swf.BitmapColormapped8:
		entries := int(t.ColorTableSize) + 1
		data, err := inflateBitmap(t, entries*4+stride(w)*h)
		if err != nil {
			return ImageAsset{}, err
		}
		pal := entries * 4
		if err := need(t, data, pal+stride(w)*(h-1)+w); err != nil {
			return ImageAsset{}, err
		}
		pix = make([]byte, 0, w*h*4)
		miss := 0
		for y := 0; y < h; y++ {
			row := data[pal+y*stride(w):]
			for x := 0; x < w; x++ {
				idx := int(row[x])
				if idx >= entries {
					miss++
					pix = append(pix, 0, 0, 0, 0)
					continue
				}
				pix = append(pix, data[idx*4:idx*4+4]...)
			}
		}
		warnColormap(c, t, miss)

	case swf.BitmapRGB24:
		data, err := inflateBitmap(t, w*h*4)
		if err != nil {
			return ImageAsset{}, err
		}
		if err := need(t, data, w*h*4); err != nil {
			return ImageAsset{}, err
		}
		pix = make([]byte, 0, w*h*4)
		for i := 0; i < w*h; i++ {
			p := data[i*4 : i*4+4]
			pix = append(pix, p[1], p[2], p[3], p[0])
		}

	default:
		return ImageAsset{}, &UnsupportedBitmapError{Version: 2, Format: t.BitmapFormat}
	}

	return encodeLossless(t, 4, pix)
}

func encodeLossless(t swf.DefineBitsLossless, channels int, pix []byte) (ImageAsset, error) {
	out, err := imgx.EncodePNG(int(t.Width), int(t.Height), channels, pix)
	if err != nil {
		return ImageAsset{}, fmt.Errorf("%s %d：PNG 编码失败：%w", t.TagCode(), t.CharacterID, err)
	}
	return ImageAsset{
		Code:        t.TagCode(),
		CharacterID: t.CharacterID,
		Type:        PNG,
		Data:        out,
	}, nil
}

func warnColormap(c Context, t swf.DefineBitsLossless, miss int) {
	if miss == 0 {
		return
	}
	c.warnf(swf.WarnColormapRange, t.TagCode(), "%s %d：%d 个像素的调色板索引越界（表长 %d）",
		t.TagCode(), t.CharacterID, miss, int(t.ColorTableSize)+1)
}

// expand5 把 5 位通道扩展到 8 位（高位复制到低位）。
func expand5(v uint16) byte {
	v &= 0x1f
	return byte(v<<3 | v>>2)
}
