package run

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/John-Robertt/swfx/internal/swf"
)

func tagRecord(code swf.TagCode, payload []byte) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, uint16(code)<<6|0x3f)
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
	return b.Bytes()
}

// buildSWF 构造一个最小的未压缩容器：空 RECT（NBits=0）、24fps、1 帧，末尾自动补 End。
func buildSWF(version byte, tags ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteByte(0x00)
	_ = binary.Write(&body, binary.LittleEndian, uint16(24<<8))
	_ = binary.Write(&body, binary.LittleEndian, uint16(1))
	for _, t := range tags {
		body.Write(t)
	}
	body.Write(tagRecord(swf.TagEnd, nil))

	out := []byte{'F', 'W', 'S', version, 0, 0, 0, 0}
	out = append(out, body.Bytes()...)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)))
	return out
}

func mustPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		t.Fatalf("编码 PNG 失败：%v", err)
	}
	return b.Bytes()
}

func jpeg2Tag(id uint16, data []byte) []byte {
	p := binary.LittleEndian.AppendUint16(nil, id)
	return tagRecord(swf.TagDefineBitsJPEG2, append(p, data...))
}

// losslessRGB24Tag 构造 1x1 的 DefineBitsLossless（format 5，pad/R/G/B）。
func losslessRGB24Tag(t *testing.T, id uint16, format uint8) []byte {
	t.Helper()
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	_, _ = zw.Write([]byte{0x00, 0x10, 0x20, 0x30})
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib 压缩失败：%v", err)
	}

	p := binary.LittleEndian.AppendUint16(nil, id)
	p = append(p, format)
	p = binary.LittleEndian.AppendUint16(p, 1)
	p = binary.LittleEndian.AppendUint16(p, 1)
	return tagRecord(swf.TagDefineBitsLossless, append(p, z.Bytes()...))
}

// mp3SoundTag 构造 MP3 格式的 DefineSound；SoundData 以 2 字节 SeekSamples 开头。
func mp3SoundTag(id uint16, frames []byte) []byte {
	p := binary.LittleEndian.AppendUint16(nil, id)
	p = append(p, swf.SoundFormatMP3<<4|0x0f)
	p = binary.LittleEndian.AppendUint32(p, 1152)
	p = append(p, 0x00, 0x00)
	return tagRecord(swf.TagDefineSound, append(p, frames...))
}

func exportTag(id uint16, name string) []byte {
	p := binary.LittleEndian.AppendUint16(nil, 1)
	p = binary.LittleEndian.AppendUint16(p, id)
	p = append(p, name...)
	return tagRecord(swf.TagExportAssets, append(p, 0))
}

func writeFile(t *testing.T, p string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
