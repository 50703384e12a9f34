package swf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding"
)

// Cursor 是对一段字节的有界读取器：按字节对齐读取基础类型，也能按位（MSB 优先）读取。
//
// 不变量：
// - 任何越过末尾的读取都返回 *BoundsError，游标位置保持不变
// - 位读取使用一个单字节窗口；任何按字节读取都会丢弃窗口中剩余的位（等价于先 Align）
type Cursor struct {
	buf []byte
	pos int

	bits     byte // 当前位窗口
	bitsLeft uint // 窗口中尚未消费的位数（0 表示需要刷新）

	legacy encoding.Encoding // 非 nil 时 String() 用它解码（SWF 5 及更早的文本不是 UTF-8）
}

// NewCursor 构造一个从 b[0] 开始读取的游标。游标只借用 b，不复制。
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// SetLegacyCharset 指定 String() 使用的旧式字符集；nil 表示按 UTF-8 处理。
func (c *Cursor) SetLegacyCharset(enc encoding.Encoding) { c.legacy = enc }

func (c *Cursor) Pos() int       { return c.pos }
func (c *Cursor) Len() int       { return len(c.buf) }
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Seek 把游标移动到绝对位置 pos（允许等于 Len，表示读完）。
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return &BoundsError{What: "seek", Offset: pos, Want: 0, Len: len(c.buf)}
	}
	c.pos = pos
	c.bitsLeft = 0
	return nil
}

// Align 丢弃位窗口中剩余的位，使下一次读取从字节边界开始。
func (c *Cursor) Align() { c.bitsLeft = 0 }

func (c *Cursor) need(what string, n int) error {
	c.bitsLeft = 0
	if n < 0 || n > len(c.buf)-c.pos {
		return &BoundsError{What: what, Offset: c.pos, Want: n, Len: len(c.buf)}
	}
	return nil
}

func (c *Cursor) U8() (uint8, error) {
	if err := c.need("u8", 1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *Cursor) U16() (uint16, error) {
	if err := c.need("u16", 2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *Cursor) U32() (uint32, error) {
	if err := c.need("u32", 4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// EncodedU32 读取 1–5 字节的变长无符号整数。
// 每字节低 7 位依次拼接（低位在前），bit7 表示后面还有字节；第 5 个字节不再看续位标志。
func (c *Cursor) EncodedU32() (uint32, error) {
	start := c.pos
	var v uint32
	for i := 0; i < 5; i++ {
		b, err := c.U8()
		if err != nil {
			c.pos = start
			return 0, err
		}
		if i == 4 {
			v |= uint32(b) << 28
			break
		}
		v |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			break
		}
	}
	return v, nil
}

// Bytes 返回接下来 n 个字节的借用视图（容量被截断，append 不会覆盖后续数据）。
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.need("bytes", n); err != nil {
		return nil, err
	}
	v := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return v, nil
}

// Rest 返回剩余全部字节的借用视图，并把游标移到末尾。
func (c *Cursor) Rest() []byte {
	c.bitsLeft = 0
	v := c.buf[c.pos:len(c.buf):len(c.buf)]
	c.pos = len(c.buf)
	return v
}

// String 读取以 NUL 结尾的字符串（不含 NUL）。
func (c *Cursor) String() (string, error) {
	c.bitsLeft = 0
	i := bytes.IndexByte(c.buf[c.pos:], 0)
	if i < 0 {
		return "", &BoundsError{What: "string terminator", Offset: c.pos, Want: len(c.buf) - c.pos + 1, Len: len(c.buf)}
	}
	raw := c.buf[c.pos : c.pos+i]
	c.pos += i + 1

	if c.legacy == nil || isASCII(raw) {
		return string(raw), nil
	}
	s, err := c.legacy.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("swf: 字符串解码失败：%w", err)
	}
	return string(s), nil
}

func isASCII(b []byte) bool {
	for _, x := range b {
		if x >= 0x80 {
			return false
		}
	}
	return true
}

// RGB 是 SWF 的 3 字节颜色记录。
type RGB struct{ R, G, B uint8 }

// RGBA 是 SWF 的 4 字节颜色记录。
type RGBA struct{ R, G, B, A uint8 }

func (c *Cursor) RGB() (RGB, error) {
	b, err := c.Bytes(3)
	if err != nil {
		return RGB{}, err
	}
	return RGB{b[0], b[1], b[2]}, nil
}

func (c *Cursor) RGBA() (RGBA, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return RGBA{}, err
	}
	return RGBA{b[0], b[1], b[2], b[3]}, nil
}

// Bits 读取 n 位（0..32，MSB 优先）。signed=true 时按二进制补码做符号扩展。
func (c *Cursor) Bits(n int, signed bool) (int32, error) {
	if n < 0 || n > 32 {
		return 0, fmt.Errorf("swf: 非法的位数：%d", n)
	}
	if n == 0 {
		return 0, nil
	}

	pos, bits, left := c.pos, c.bits, c.bitsLeft
	var v uint32
	for i := 0; i < n; i++ {
		if c.bitsLeft == 0 {
			if c.pos >= len(c.buf) {
				err := &BoundsError{What: "bits", Offset: c.pos, Want: 1, Len: len(c.buf)}
				c.pos, c.bits, c.bitsLeft = pos, bits, left
				return 0, err
			}
			c.bits = c.buf[c.pos]
			c.pos++
			c.bitsLeft = 8
		}
		c.bitsLeft--
		v = v<<1 | uint32(c.bits>>c.bitsLeft)&1
	}

	if signed && n < 32 && v&(1<<(n-1)) != 0 {
		v |= ^uint32(0) << n
	}
	return int32(v), nil
}

// Rect 是像素单位的矩形（源数据为 twips，1px = 20 twips）。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect 读取位压缩的 RECT：5 位 NBits，随后 4 个 NBits 宽的有符号字段 Xmin/Xmax/Ymin/Ymax。
// min/max 反向时宽高取绝对值。
func (c *Cursor) Rect() (Rect, error) {
	c.Align()
	start := c.pos

	nbits, err := c.Bits(5, false)
	if err != nil {
		return Rect{}, err
	}
	var f [4]int32
	for i := range f {
		v, err := c.Bits(int(nbits), true)
		if err != nil {
			c.pos = start
			c.bitsLeft = 0
			return Rect{}, err
		}
		f[i] = v
	}
	c.Align()

	xmin, xmax, ymin, ymax := float64(f[0])/20, float64(f[1])/20, float64(f[2])/20, float64(f[3])/20
	return Rect{
		X:      xmin,
		Y:      ymin,
		Width:  absDiff(xmax, xmin),
		Height: absDiff(ymax, ymin),
	}, nil
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
