package zipx

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz/lzma"
)

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

func TestInflate_Empty(t *testing.T) {
	out, err := Inflate(nil, 0)
	if err != nil || out == nil || len(out) != 0 {
		t.Fatalf("空输入应得到空输出：out=%v err=%v", out, err)
	}
}

func TestInflate_RoundTripAndTruncated(t *testing.T) {
	src := bytes.Repeat([]byte("swf-body-"), 200)
	z := deflate(t, src)

	out, err := Inflate(z, len(src))
	if err != nil || !bytes.Equal(out, src) {
		t.Fatalf("round-trip 失败：err=%v", err)
	}

	out, err = Inflate(z[:len(z)-4], 0)
	if err != nil || !bytes.Equal(out, src) {
		t.Fatalf("缺少校验和时应返回完整数据：err=%v len=%d", err, len(out))
	}

	out, err = Inflate(z[:len(z)/2], 0)
	if err != nil {
		t.Fatalf("截断流不应报错：%v", err)
	}
	if !bytes.HasPrefix(src, out) {
		t.Fatalf("截断流的输出应是原数据的前缀")
	}
}

func TestInflate_Corrupt(t *testing.T) {
	if _, err := Inflate([]byte{0x00, 0x01, 0x02}, 0); err == nil {
		t.Fatalf("期望损坏的流头返回错误")
	}
}

func TestLZMA_RoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("lzma-body-"), 300)

	var buf bytes.Buffer
	cfg := lzma.WriterConfig{SizeInHeader: true, Size: int64(len(src))}
	lw, err := cfg.NewWriter(&buf)
	if err != nil {
		t.Fatalf("lzma writer 失败：%v", err)
	}
	if _, err := lw.Write(src); err != nil {
		t.Fatalf("lzma 写入失败：%v", err)
	}
	if err := lw.Close(); err != nil {
		t.Fatalf("lzma 关闭失败：%v", err)
	}
	enc := buf.Bytes()
	props, stream := enc[:LZMAPropsLen], enc[LZMAPropsLen+8:]

	out, err := LZMA(props, stream, int64(len(src)))
	if err != nil || !bytes.Equal(out, src) {
		t.Fatalf("round-trip 失败：err=%v len=%d", err, len(out))
	}
}

func TestLZMA_BadProps(t *testing.T) {
	if _, err := LZMA([]byte{1, 2}, nil, -1); err == nil {
		t.Fatalf("期望属性块长度错误")
	}
}

func TestLZMA_Truncated(t *testing.T) {
	src := make([]byte, 64<<10)
	for i := range src {
		src[i] = byte(i*7 + i/13)
	}

	var buf bytes.Buffer
	cfg := lzma.WriterConfig{SizeInHeader: true, Size: int64(len(src))}
	lw, err := cfg.NewWriter(&buf)
	if err != nil {
		t.Fatalf("lzma writer 失败：%v", err)
	}
	if _, err := lw.Write(src); err != nil {
		t.Fatalf("lzma 写入失败：%v", err)
	}
	if err := lw.Close(); err != nil {
		t.Fatalf("lzma 关闭失败：%v", err)
	}
	enc := buf.Bytes()
	props, stream := enc[:LZMAPropsLen], enc[LZMAPropsLen+8:]

	for _, keep := range []int{0, 3, 9, len(stream) / 2} {
		out, err := LZMA(props, stream[:keep], int64(len(src)))
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("keep=%d：期望 ErrTruncated，实际：%v", keep, err)
		}
		if len(out) >= len(src) || !bytes.Equal(out, src[:len(out)]) {
			t.Fatalf("keep=%d：部分输出应为原文前缀且短于原文（len=%d）", keep, len(out))
		}
	}
}
