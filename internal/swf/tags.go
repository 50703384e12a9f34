package swf

// Tag 是已解码 tag 的封闭联合：只有本包内的类型能实现它。
// 调用方用 type switch 分派；未覆盖的变体在 switch 的 default 分支里可见。
type Tag interface {
	TagCode() TagCode
	isTag()
}

// DefineBits 只含 JPEG 图像数据，编码表由同文件唯一的 JPEGTables 提供。
type DefineBits struct {
	CharacterID uint16
	JPEGData    []byte
}

// JPEGTables 携带 DefineBits 共享的 JPEG 编码表（可能为空）。
type JPEGTables struct {
	JPEGData []byte
}

// DefineBitsJPEG2 是自包含的图像数据（JPEG，也可能是 PNG/GIF，靠魔数区分）。
type DefineBitsJPEG2 struct {
	CharacterID uint16
	ImageData   []byte
}

// DefineBitsJPEG3 在 JPEG2 基础上附带一个 zlib 压缩的 8 位 alpha 平面。
// 版本 4 多一个去块参数（DeblockParam），其余布局相同，用 Version 区分。
type DefineBitsJPEG3 struct {
	Version         int // 3 或 4
	CharacterID     uint16
	AlphaDataOffset uint32
	DeblockParam    uint16 // 仅版本 4；原样携带，不做解释
	ImageData       []byte
	BitmapAlphaData []byte
}

// 无损位图格式。
const (
	BitmapColormapped8 = 3 // 8 位调色板
	BitmapRGB15        = 4 // 15 位 RGB（仅 DefineBitsLossless）
	BitmapRGB24        = 5 // v1：24 位 RGB；v2：32 位 ARGB
)

// DefineBitsLossless 覆盖 v1（DefineBitsLossless）与 v2（DefineBitsLossless2）。
type DefineBitsLossless struct {
	Version        int // 1 或 2
	CharacterID    uint16
	BitmapFormat   uint8
	Width          uint16
	Height         uint16
	ColorTableSize uint8 // 仅 BitmapFormat==3 时有效；实际条目数为 ColorTableSize+1
	ZlibBitmapData []byte
}

// DefineSound 的状态字节：format 4 位 / rate 2 位 / size 1 位 / type 1 位。
type DefineSound struct {
	SoundID     uint16
	Format      uint8
	Rate        uint8
	Size16Bit   bool
	Stereo      bool
	SampleCount uint32
	SoundData   []byte
}

// MP3 格式码。
const SoundFormatMP3 = 2

func (DefineBits) TagCode() TagCode      { return TagDefineBits }
func (JPEGTables) TagCode() TagCode      { return TagJPEGTables }
func (DefineBitsJPEG2) TagCode() TagCode { return TagDefineBitsJPEG2 }
func (DefineSound) TagCode() TagCode     { return TagDefineSound }

func (t DefineBitsJPEG3) TagCode() TagCode {
	if t.Version == 4 {
		return TagDefineBitsJPEG4
	}
	return TagDefineBitsJPEG3
}

func (t DefineBitsLossless) TagCode() TagCode {
	if t.Version == 2 {
		return TagDefineBitsLossless2
	}
	return TagDefineBitsLossless
}

func (DefineBits) isTag()         {}
func (JPEGTables) isTag()         {}
func (DefineBitsJPEG2) isTag()    {}
func (DefineBitsJPEG3) isTag()    {}
func (DefineBitsLossless) isTag() {}
func (DefineSound) isTag()        {}

// Decode 把一条原始记录解码为结构化 tag。payload 中的字节切片仍借用自 File 的 buffer。
// 没有解码器的 code 返回 *NotSupportedError。
func Decode(raw RawTag) (Tag, error) {
	c := NewCursor(raw.Payload)
	switch raw.Code {
	case TagDefineBits:
		id, err := c.U16()
		if err != nil {
			return nil, err
		}
		return DefineBits{CharacterID: id, JPEGData: c.Rest()}, nil

	case TagJPEGTables:
		return JPEGTables{JPEGData: c.Rest()}, nil

	case TagDefineBitsJPEG2:
		id, err := c.U16()
		if err != nil {
			return nil, err
		}
		return DefineBitsJPEG2{CharacterID: id, ImageData: c.Rest()}, nil

	case TagDefineBitsJPEG3:
		return decodeJPEG3(c, 3)

	case TagDefineBitsJPEG4:
		return decodeJPEG3(c, 4)

	case TagDefineBitsLossless:
		return decodeLossless(c, 1)

	case TagDefineBitsLossless2:
		return decodeLossless(c, 2)

	case TagDefineSound:
		return decodeSound(c)

	default:
		return nil, &NotSupportedError{Code: raw.Code}
	}
}

func decodeJPEG3(c *Cursor, version int) (Tag, error) {
	t := DefineBitsJPEG3{Version: version}
	var err error
	if t.CharacterID, err = c.U16(); err != nil {
		return nil, err
	}
	if t.AlphaDataOffset, err = c.U32(); err != nil {
		return nil, err
	}
	if version == 4 {
		if t.DeblockParam, err = c.U16(); err != nil {
			return nil, err
		}
	}
	if uint64(t.AlphaDataOffset) > uint64(c.Remaining()) {
		return nil, &BoundsError{What: "alphaDataOffset", Offset: c.Pos(), Want: int(t.AlphaDataOffset), Len: c.Len()}
	}
	if t.ImageData, err = c.Bytes(int(t.AlphaDataOffset)); err != nil {
		return nil, err
	}
	t.BitmapAlphaData = c.Rest()
	return t, nil
}

func decodeLossless(c *Cursor, version int) (Tag, error) {
	t := DefineBitsLossless{Version: version}
	var err error
	if t.CharacterID, err = c.U16(); err != nil {
		return nil, err
	}
	if t.BitmapFormat, err = c.U8(); err != nil {
		return nil, err
	}
	if t.Width, err = c.U16(); err != nil {
		return nil, err
	}
	if t.Height, err = c.U16(); err != nil {
		return nil, err
	}
	if t.BitmapFormat == BitmapColormapped8 {
		if t.ColorTableSize, err = c.U8(); err != nil {
			return nil, err
		}
	}
	t.ZlibBitmapData = c.Rest()
	return t, nil
}

func decodeSound(c *Cursor) (Tag, error) {
	var t DefineSound
	var err error
	if t.SoundID, err = c.U16(); err != nil {
		return nil, err
	}
	info, err := c.U8()
	if err != nil {
		return nil, err
	}
	t.Format = info >> 4 & 0x0f
	t.Rate = info >> 2 & 0x03
	t.Size16Bit = info>>1&0x01 == 1
	t.Stereo = info&0x01 == 1
	if t.SampleCount, err = c.U32(); err != nil {
		return nil, err
	}
	t.SoundData = c.Rest()
	return t, nil
}
