package swf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz/lzma"
)

// bitWriter 按 MSB 优先写位，用于构造 RECT。
type bitWriter struct {
	out  []byte
	cur  byte
	used uint
}

func (w *bitWriter) write(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.cur = w.cur<<1 | byte(v>>uint(i)&1)
		w.used++
		if w.used == 8 {
			w.out = append(w.out, w.cur)
			w.cur, w.used = 0, 0
		}
	}
}

func (w *bitWriter) bytes() []byte {
	if w.used > 0 {
		w.out = append(w.out, w.cur<<(8-w.used))
		w.cur, w.used = 0, 0
	}
	return w.out
}

func encodeRect(nbits int, xmin, xmax, ymin, ymax int32) []byte {
	var w bitWriter
	w.write(uint32(nbits), 5)
	for _, v := range []int32{xmin, xmax, ymin, ymax} {
		w.write(uint32(v)&(1<<nbits-1), nbits)
	}
	return w.bytes()
}

func encodeU32(v uint32) []byte {
	var out []byte
	for i := 0; i < 5; i++ {
		if i == 4 {
			out = append(out, byte(v))
			break
		}
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
	return out
}

// tagRecord 编码一条 tag；long=true 时强制使用长格式。
func tagRecord(code TagCode, payload []byte, long bool) []byte {
	var b bytes.Buffer
	if long || len(payload) >= longTagLength {
		_ = binary.Write(&b, binary.LittleEndian, uint16(code)<<6|longTagLength)
		_ = binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	} else {
		_ = binary.Write(&b, binary.LittleEndian, uint16(code)<<6|uint16(len(payload)))
	}
	b.Write(payload)
	return b.Bytes()
}

// buildFWS 构造一个 550x400、24fps、1 帧的未压缩容器。
func buildFWS(version byte, tags ...[]byte) []byte {
	var body bytes.Buffer
	body.Write(encodeRect(15, 0, 11000, 0, 8000))
	_ = binary.Write(&body, binary.LittleEndian, uint16(24<<8))
	_ = binary.Write(&body, binary.LittleEndian, uint16(1))
	for _, t := range tags {
		body.Write(t)
	}

	out := []byte{'F', 'W', 'S', version, 0, 0, 0, 0}
	out = append(out, body.Bytes()...)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)))
	return out
}

func toCWS(t *testing.T, fws []byte) []byte {
	t.Helper()
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(fws[PreambleLen:]); err != nil {
		t.Fatalf("zlib 写入失败：%v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib 关闭失败：%v", err)
	}
	out := append([]byte{}, fws[:PreambleLen]...)
	out[0] = SigZlib
	return append(out, z.Bytes()...)
}

func toZWS(t *testing.T, fws []byte) []byte {
	t.Helper()
	body := fws[PreambleLen:]
	var l bytes.Buffer
	cfg := lzma.WriterConfig{SizeInHeader: true, Size: int64(len(body)), EOSMarker: false}
	lw, err := cfg.NewWriter(&l)
	if err != nil {
		t.Fatalf("lzma writer 失败：%v", err)
	}
	if _, err := lw.Write(body); err != nil {
		t.Fatalf("lzma 写入失败：%v", err)
	}
	if err := lw.Close(); err != nil {
		t.Fatalf("lzma 关闭失败：%v", err)
	}
	enc := l.Bytes() // {5 字节属性}{8 字节长度}{流}
	props, stream := enc[:5], enc[13:]

	out := append([]byte{}, fws[:PreambleLen]...)
	out[0] = SigLZMA
	out = binary.LittleEndian.AppendUint32(out, uint32(len(stream)))
	out = append(out, props...)
	return append(out, stream...)
}
