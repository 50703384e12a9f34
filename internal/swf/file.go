package swf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding"
)

const longTagLength = 0x3f

// Header 是容器头（前导 8 字节 + 帧尺寸/帧率/帧数）。
type Header struct {
	Signature [3]byte `json:"-"`
	Version   uint8   `json:"version"`
	// FileLength 是头中声明的解压后总长度（含 8 字节前导）。
	FileLength uint32 `json:"file_length"`
	// CompressedLength 是输入（磁盘上）的原始长度。
	CompressedLength int `json:"compressed_length"`

	FrameSize      Rect    `json:"frame_size"`
	FrameRateFixed uint16  `json:"frame_rate_fixed"` // 8.8 定点
	FrameRate      float64 `json:"frame_rate"`
	FrameCount     uint16  `json:"frame_count"`
}

// SignatureString 返回 "FWS" / "CWS" / "ZWS"。
func (h Header) SignatureString() string { return string(h.Signature[:]) }

// RawTag 是一条未解码的 tag 记录。
//
// Payload 借用自 File 持有的规范 buffer（容量已截断），不得在 File 之外长期持有；
// 需要独立生命周期时请自行复制。
type RawTag struct {
	Code    TagCode
	Length  uint32
	Offset  int // payload 在规范 buffer 中的起点（用于诊断）
	Payload []byte
}

// File 持有规范（已解压）buffer，以及按磁盘顺序排列的 tag 记录。
type File struct {
	Header Header
	Tags   []RawTag

	data   []byte
	legacy encoding.Encoding
}

// Warning 是非致命的解析/转换告警：处理会按约定的兜底继续。
type Warning struct {
	Kind string  // 例如 "end_tag_not_last"
	Code TagCode // 相关 tag（没有时为 TagEnd）
	Msg  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Msg)
}

const (
	WarnEndTagNotLast    = "end_tag_not_last"
	WarnJPEGTablesMiss   = "jpeg_tables_missing"
	WarnJPEGTablesDup    = "jpeg_tables_duplicate"
	WarnAlphaMismatch    = "alpha_length_mismatch"
	WarnAlphaIgnored     = "alpha_ignored"
	WarnColormapRange    = "colormap_index_out_of_range"
	WarnSoundUnsupported = "sound_format_skipped"
)

type options struct {
	warn   func(Warning)
	legacy encoding.Encoding
}

// Option 调整 Parse 的行为。
type Option func(*options)

// WithWarnings 指定告警接收者。fn 可能在多个 goroutine 中被调用（由调用方保证并发安全）。
func WithWarnings(fn func(Warning)) Option {
	return func(o *options) { o.warn = fn }
}

// WithLegacyCharset 指定 SWF 5 及更早版本中字符串所用的字符集。
func WithLegacyCharset(enc encoding.Encoding) Option {
	return func(o *options) { o.legacy = enc }
}

// Parse 解压并解析整个容器：头字段 + 全部 tag 记录。
// 任何越界都会让整次解析失败（部分结构不可恢复）。
func Parse(b []byte, opts ...Option) (*File, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	data, err := Decompress(b)
	if err != nil {
		return nil, err
	}
	if data[0] == SigRaw {
		// FWS 原样透传：复制一份，File 必须独占规范 buffer。
		data = bytes.Clone(data)
	}

	f := &File{data: data, legacy: o.legacy}
	copy(f.Header.Signature[:], data[:3])
	f.Header.CompressedLength = len(b)

	c := NewCursor(data)
	if err := c.Seek(3); err != nil {
		return nil, err
	}
	if err := readHeader(c, &f.Header); err != nil {
		return nil, err
	}

	f.Tags, err = readTags(c)
	if err != nil {
		return nil, err
	}

	if len(f.Tags) == 0 || f.Tags[len(f.Tags)-1].Code != TagEnd {
		emit(o.warn, Warning{Kind: WarnEndTagNotLast, Msg: "End tag 不是最后一个 tag"})
	}
	return f, nil
}

func readHeader(c *Cursor, h *Header) error {
	var err error
	if h.Version, err = c.U8(); err != nil {
		return err
	}
	if h.FileLength, err = c.U32(); err != nil {
		return err
	}
	if h.FrameSize, err = c.Rect(); err != nil {
		return err
	}
	if h.FrameRateFixed, err = c.U16(); err != nil {
		return err
	}
	h.FrameRate = float64(h.FrameRateFixed) / 256
	if h.FrameCount, err = c.U16(); err != nil {
		return err
	}
	return nil
}

func readTags(c *Cursor) ([]RawTag, error) {
	tags := make([]RawTag, 0, 64)
	for c.Remaining() > 0 {
		t, err := readTag(c)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// readTag 读取一条记录头并切出 payload：高 10 位是 code，低 6 位是长度；
// 低 6 位为 0x3F 时长度改由随后的 u32 给出。
func readTag(c *Cursor) (RawTag, error) {
	start := c.Pos()
	v, err := c.U16()
	if err != nil {
		return RawTag{}, err
	}
	t := RawTag{
		Code:   TagCode(v >> 6),
		Length: uint32(v & longTagLength),
	}
	if t.Length == longTagLength {
		if t.Length, err = c.U32(); err != nil {
			return RawTag{}, err
		}
	}

	t.Offset = c.Pos()
	if uint64(t.Length) > uint64(c.Remaining()) {
		return RawTag{}, &BoundsError{
			What:   fmt.Sprintf("tag %s payload (record at %d)", t.Code, start),
			Offset: t.Offset,
			Want:   int(t.Length),
			Len:    c.Len(),
		}
	}
	if t.Payload, err = c.Bytes(int(t.Length)); err != nil {
		return RawTag{}, err
	}
	return t, nil
}

func emit(fn func(Warning), w Warning) {
	if fn != nil {
		fn(w)
	}
}

// Canonical 返回未压缩（FWS）形式的完整容器字节：签名改为 'F'，其余与规范 buffer 相同。
// 长度字段写为实际长度（被截断的压缩流会让声明长度失真）。
func (f *File) Canonical() []byte {
	out := make([]byte, len(f.data))
	copy(out, f.data)
	out[0] = SigRaw
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)))
	return out
}

// TagsOf 按磁盘顺序返回 code 匹配的记录。
func (f *File) TagsOf(code TagCode) []RawTag {
	var out []RawTag
	for _, t := range f.Tags {
		if t.Code == code {
			out = append(out, t)
		}
	}
	return out
}
