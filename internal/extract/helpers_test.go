package extract

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/John-Robertt/swfx/internal/swf"
)

func le16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

func cat(parts ...[]byte) []byte { return bytes.Join(parts, nil) }

func deflate(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		t.Fatalf("zlib 写入失败：%v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib 关闭失败：%v", err)
	}
	return buf.Bytes()
}

// solidJPEG 生成一张纯色 JPEG。
func solidJPEG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	return buf.Bytes()
}

func decodePNG(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode png 失败：%v", err)
	}
	return img
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func tagRecord(code swf.TagCode, payload []byte) []byte {
	out := le16(uint16(code)<<6 | 0x3f)
	out = append(out, le32(uint32(len(payload)))...)
	return append(out, payload...)
}

// buildFWS 构造一个帧尺寸为 0 的最小未压缩容器。
func buildFWS(tags ...[]byte) []byte {
	out := []byte{'F', 'W', 'S', 10, 0, 0, 0, 0}
	out = append(out, 0x00)           // RECT，NBits=0
	out = append(out, le16(12<<8)...) // 12 fps
	out = append(out, le16(1)...)     // 1 帧
	for _, t := range tags {
		out = append(out, t...)
	}
	out = append(out, le16(0)...) // End
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)))
	return out
}

func mustDecode(t *testing.T, code swf.TagCode, payload []byte) swf.Tag {
	t.Helper()
	tag, err := swf.Decode(swf.RawTag{Code: code, Length: uint32(len(payload)), Payload: payload})
	if err != nil {
		t.Fatalf("decode %s 失败：%v", code, err)
	}
	return tag
}

type warnings []swf.Warning

func (w *warnings) add(x swf.Warning) { *w = append(*w, x) }

func (w warnings) has(kind string) bool {
	for _, x := range w {
		if x.Kind == kind {
			return true
		}
	}
	return false
}
