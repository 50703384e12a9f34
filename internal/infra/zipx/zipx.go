// Package zipx 封装 SWF 用到的两种通用解压：zlib（CWS 主体、alpha 平面、无损位图）与 LZMA（ZWS 主体）。
//
// 约束：
// - 空输入不是错误：解压空流得到空输出
// - 流提前结束（没有显式结束标记/被截断）时返回已解出的部分，而不是报错
// - 例外：LZMA 截断后一个字节也没解出来，或者不足声明长度时，返回已解出的部分并附带 ErrTruncated
package zipx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz/lzma"
)

// ErrTruncated 表示压缩流在解出足够数据之前就结束了。
var ErrTruncated = errors.New("zipx: 压缩流被截断")

// LZMAPropsLen 是 LZMA 属性块长度（1 字节 lc/lp/pb + 4 字节字典大小）。
const LZMAPropsLen = 5

// 长度字段来自不可信输入，只作为预分配提示。
const maxPrealloc = 64 << 20

// Inflate 解压一段 zlib 数据。sizeHint > 0 时用于预分配输出。
func Inflate(src []byte, sizeHint int) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("zlib: 读取流头失败：%w", err)
	}
	defer zr.Close()

	var out bytes.Buffer
	if sizeHint > 0 {
		out.Grow(min(sizeHint, maxPrealloc))
	}
	if _, err := io.Copy(&out, zr); err != nil && !truncated(err) {
		return nil, fmt.Errorf("zlib: 解压失败：%w", err)
	}
	return out.Bytes(), nil
}

// LZMA 解压 SWF 风格的 LZMA 流：props 为 5 字节属性块，stream 为紧随其后的压缩数据，
// size 为期望的解压长度（未知时传 -1）。
//
// SWF 省略了 .lzma 文件头中的 8 字节长度字段，这里把它补回去再交给解码器。
func LZMA(props []byte, stream []byte, size int64) ([]byte, error) {
	if len(props) != LZMAPropsLen {
		return nil, fmt.Errorf("lzma: 属性块长度应为 %d，实际 %d", LZMAPropsLen, len(props))
	}

	hdr := make([]byte, LZMAPropsLen+8)
	copy(hdr, props)
	if size < 0 {
		binary.LittleEndian.PutUint64(hdr[LZMAPropsLen:], ^uint64(0))
	} else {
		binary.LittleEndian.PutUint64(hdr[LZMAPropsLen:], uint64(size))
	}

	lr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(hdr), bytes.NewReader(stream)))
	if err != nil {
		if truncated(err) {
			return []byte{}, fmt.Errorf("lzma: 范围解码器初始化时 %w", ErrTruncated)
		}
		return nil, fmt.Errorf("lzma: 初始化解码器失败：%w", err)
	}

	var out bytes.Buffer
	if size > 0 {
		out.Grow(int(min(size, maxPrealloc)))
	}
	_, err = io.Copy(&out, lr)
	if err == nil {
		return out.Bytes(), nil
	}
	if !truncated(err) {
		return nil, fmt.Errorf("lzma: 解压失败：%w", err)
	}
	// 解码器按字典缓冲整块吐出数据，中途截断时整块都会丢失，解出量可能远小于实际可用的部分。
	if out.Len() == 0 || (size >= 0 && int64(out.Len()) < size) {
		return out.Bytes(), fmt.Errorf("lzma: %w（解出 %d 字节，声明 %d 字节）", ErrTruncated, out.Len(), size)
	}
	return out.Bytes(), nil
}

func truncated(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
