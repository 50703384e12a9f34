// Package imgx 封装位图转换需要的两个编解码协作者：JPEG → 交错 RGB，交错像素 → PNG。
//
// 约束：
// - 只依赖标准库解码器/编码器（image/jpeg、image/png）
// - 像素缓冲区按行优先、无行填充排列，通道数为 3（RGB）或 4（RGBA，非预乘）
package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// DecodeJPEGRGB 解码 JPEG，返回宽、高与交错 RGB 像素（len = w*h*3）。
func DecodeJPEGRGB(b []byte) (w, h int, pix []byte, err error) {
	if len(b) == 0 {
		return 0, 0, nil, errors.New("jpeg 数据为空")
	}
	img, err := jpeg.Decode(bytes.NewReader(b))
	if err != nil {
		return 0, 0, nil, err
	}

	r := img.Bounds()
	w, h = r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return 0, 0, nil, errors.New("图片尺寸无效")
	}
	pix = make([]byte, 0, w*h*3)

	switch m := img.(type) {
	case *image.Gray:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := m.Pix[m.PixOffset(r.Min.X, y):]
			for x := 0; x < w; x++ {
				v := row[x]
				pix = append(pix, v, v, v)
			}
		}
	case *image.YCbCr:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				yi, ci := m.YOffset(x, y), m.COffset(x, y)
				cr, cg, cb := color.YCbCrToRGB(m.Y[yi], m.Cb[ci], m.Cr[ci])
				pix = append(pix, cr, cg, cb)
			}
		}
	default:
		// CMYK 等走通用颜色模型转换。
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				pix = append(pix, c.R, c.G, c.B)
			}
		}
	}
	return w, h, pix, nil
}

// EncodePNG 把交错像素编码为 PNG。channels 为 3 时输出不透明 RGB，为 4 时输出 RGBA（非预乘）。
func EncodePNG(w, h, channels int, pix []byte) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("png: 尺寸无效：%dx%d", w, h)
	}
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("png: 不支持的通道数：%d", channels)
	}
	if len(pix) != w*h*channels {
		return nil, fmt.Errorf("png: 像素长度 %d 与 %dx%dx%d 不符", len(pix), w, h, channels)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if channels == 4 {
		copy(img.Pix, pix)
	} else {
		for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
			img.Pix[j+0] = pix[i+0]
			img.Pix[j+1] = pix[i+1]
			img.Pix[j+2] = pix[i+2]
			img.Pix[j+3] = 0xFF
		}
	}

	var out bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&out, img); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
