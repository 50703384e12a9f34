package extract

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/John-Robertt/swfx/internal/swf"
)

func lossless(t *testing.T, code swf.TagCode, format uint8, w, h uint16, ctSize int, raw []byte) swf.Tag {
	t.Helper()
	p := cat(le16(42), []byte{format}, le16(w), le16(h))
	if ctSize >= 0 {
		p = append(p, byte(ctSize))
	}
	return mustDecode(t, code, cat(p, deflate(t, raw)))
}

func TestLossless2_ColormapOutOfRangeIsTransparent(t *testing.T) {
	// 1 个调色板条目；第二个像素的索引 5 越界。行宽 2，填充到 4。
	raw := cat([]byte{10, 20, 30, 255}, []byte{0, 5, 0, 0})
	var ws warnings
	a, err := Convert(NewContext(nil, ws.add), lossless(t, swf.TagDefineBitsLossless2, 3, 2, 1, 0, raw))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if a.Type != PNG || a.CharacterID != 42 || a.Code != swf.TagDefineBitsLossless2 {
		t.Fatalf("asset 元数据不符合预期：%+v", a)
	}
	img := decodePNG(t, a.Data)
	if c := nrgbaAt(img, 0, 0); c != (color.NRGBA{10, 20, 30, 255}) {
		t.Fatalf("像素 0 不符合预期：%v", c)
	}
	if c := nrgbaAt(img, 1, 0); c != (color.NRGBA{0, 0, 0, 0}) {
		t.Fatalf("越界索引应为 (0,0,0,0)，实际：%v", c)
	}
	if !ws.has(swf.WarnColormapRange) {
		t.Fatalf("期望调色板越界告警：%+v", ws)
	}
}

func TestLossless_ColormapStrideAndBlack(t *testing.T) {
	// 3x2，两种颜色；行宽 3 填充到 4。
	raw := cat(
		[]byte{255, 0, 0, 0, 0, 255},
		[]byte{0, 1, 0, 0xEE},
		[]byte{1, 9, 1},
	)
	a, err := Convert(NewContext(nil, nil), lossless(t, swf.TagDefineBitsLossless, 3, 3, 2, 1, raw))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	img := decodePNG(t, a.Data)
	want := [][]color.NRGBA{
		{{255, 0, 0, 255}, {0, 0, 255, 255}, {255, 0, 0, 255}},
		{{0, 0, 255, 255}, {0, 0, 0, 255}, {0, 0, 255, 255}},
	}
	for y, row := range want {
		for x, w := range row {
			if c := nrgbaAt(img, x, y); c != w {
				t.Fatalf("像素 (%d,%d)=%v，期望 %v", x, y, c, w)
			}
		}
	}
}

func TestLossless_RGB15(t *testing.T) {
	// 大端 0RRRRRGGGGGBBBBB：纯红 0x7C00、纯绿 0x03E0、中灰 0x4210；行宽 3*2=6 填充到 8。
	raw := []byte{0x7C, 0x00, 0x03, 0xE0, 0x42, 0x10, 0, 0}
	a, err := Convert(NewContext(nil, nil), lossless(t, swf.TagDefineBitsLossless, 4, 3, 1, -1, raw))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	img := decodePNG(t, a.Data)
	want := []color.NRGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {132, 132, 132, 255}}
	for x, w := range want {
		if c := nrgbaAt(img, x, 0); c != w {
			t.Fatalf("像素 %d=%v，期望 %v", x, c, w)
		}
	}
}

func TestLossless_RGB24(t *testing.T) {
	raw := []byte{0xFF, 1, 2, 3, 0x00, 4, 5, 6}
	a, err := Convert(NewContext(nil, nil), lossless(t, swf.TagDefineBitsLossless, 5, 2, 1, -1, raw))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	img := decodePNG(t, a.Data)
	if c := nrgbaAt(img, 0, 0); c != (color.NRGBA{1, 2, 3, 255}) {
		t.Fatalf("像素 0=%v", c)
	}
	if c := nrgbaAt(img, 1, 0); c != (color.NRGBA{4, 5, 6, 255}) {
		t.Fatalf("像素 1=%v", c)
	}
}

func TestLossless2_ARGB(t *testing.T) {
	raw := []byte{0x80, 10, 20, 30, 0x00, 40, 50, 60}
	a, err := Convert(NewContext(nil, nil), lossless(t, swf.TagDefineBitsLossless2, 5, 2, 1, -1, raw))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	n, ok := decodePNG(t, a.Data).(*image.NRGBA)
	if !ok {
		t.Fatalf("期望 NRGBA 输出")
	}
	if want := []byte{10, 20, 30, 0x80, 40, 50, 60, 0}; !bytes.Equal(n.Pix, want) {
		t.Fatalf("像素不符合预期：got=%v want=%v", n.Pix, want)
	}
}

func TestLossless_Unsupported(t *testing.T) {
	_, err := Convert(NewContext(nil, nil), lossless(t, swf.TagDefineBitsLossless, 7, 1, 1, -1, []byte{0, 0, 0, 0}))
	var ue *UnsupportedBitmapError
	if !errors.As(err, &ue) || ue.Version != 1 || ue.Format != 7 {
		t.Fatalf("期望 UnsupportedBitmapError，实际：%v", err)
	}

	_, err = Convert(NewContext(nil, nil), lossless(t, swf.TagDefineBitsLossless2, 4, 1, 1, -1, []byte{0, 0, 0, 0}))
	if !IsUnsupportedBitmap(err) {
		t.Fatalf("v2 不支持 15 位格式，实际：%v", err)
	}
}

func TestLossless_Truncated(t *testing.T) {
	_, err := Convert(NewContext(nil, nil), lossless(t, swf.TagDefineBitsLossless, 5, 4, 4, -1, []byte{0, 1, 2, 3}))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("期望 ErrTruncated，实际：%v", err)
	}
}
