package swf

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/John-Robertt/swfx/internal/infra/zipx"
)

// PreambleLen 是所有 SWF 共有的前导长度：3 字节签名 + 1 字节版本 + 4 字节解压后总长度。
const PreambleLen = 8

const (
	SigRaw  = 'F' // FWS：未压缩
	SigZlib = 'C' // CWS：zlib
	SigLZMA = 'Z' // ZWS：LZMA
)

// Decompress 按签名首字节把三种磁盘编码统一成“规范 buffer”：原 8 字节前导 + 解压后的主体。
// 下游解析因此与压缩方式无关。
//
// 未知签名返回 *FormatError，不返回部分结果。
func Decompress(b []byte) ([]byte, error) {
	if len(b) < PreambleLen {
		return nil, &BoundsError{What: "preamble", Offset: 0, Want: PreambleLen, Len: len(b)}
	}
	declared := binary.LittleEndian.Uint32(b[4:8])

	switch b[0] {
	case SigRaw:
		return b, nil

	case SigZlib:
		body, err := zipx.Inflate(b[PreambleLen:], int(max(declared, PreambleLen)-PreambleLen))
		if err != nil {
			return nil, fmt.Errorf("swf: CWS 主体解压失败：%w", err)
		}
		return join(b[:PreambleLen], body), nil

	case SigLZMA:
		// {8 字节前导}{u32 压缩长度}{5 字节 LZMA 属性}{压缩流}
		const propsAt = PreambleLen + 4
		if len(b) < propsAt+zipx.LZMAPropsLen {
			return nil, &BoundsError{What: "lzma header", Offset: PreambleLen, Want: 4 + zipx.LZMAPropsLen, Len: len(b)}
		}
		props := b[propsAt : propsAt+zipx.LZMAPropsLen]
		stream := b[propsAt+zipx.LZMAPropsLen:]

		size := int64(-1)
		if declared >= PreambleLen {
			size = int64(declared) - PreambleLen
		}
		body, err := zipx.LZMA(props, stream, size)
		if err != nil && size >= 0 && !errors.Is(err, zipx.ErrTruncated) {
			// 有的编码器写了 EOS 标记且与声明长度不一致：退回“长度未知、以 EOS/流尾结束”再试一次。
			body, err = zipx.LZMA(props, stream, -1)
		}
		if errors.Is(err, zipx.ErrTruncated) && len(body) > 0 {
			// 截断但有部分主体：保留已解出的部分，交给 tag 扫描按越界规则截停。
			err = nil
		}
		if err != nil {
			return nil, fmt.Errorf("swf: ZWS 主体解压失败：%w", err)
		}
		return join(b[:PreambleLen], body), nil

	default:
		return nil, &FormatError{Signature: b[0]}
	}
}

func join(preamble, body []byte) []byte {
	out := make([]byte, 0, len(preamble)+len(body))
	out = append(out, preamble...)
	return append(out, body...)
}
