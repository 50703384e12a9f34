package swf

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat 匹配所有 *FormatError（容器签名无法识别）。
	ErrFormat = errors.New("swf: unknown format")
	// ErrOutOfBounds 匹配所有 *BoundsError（读取越界）。
	ErrOutOfBounds = errors.New("swf: out of bounds")
	// ErrNotSupported 匹配所有 *NotSupportedError（该 tag code 没有解码器）。
	ErrNotSupported = errors.New("swf: tag not supported")
)

// FormatError 表示签名首字节不是 'F' / 'C' / 'Z'。致命：整个解析中止。
type FormatError struct {
	Signature byte
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("swf: 未知的压缩类型签名 0x%02X（%q）", e.Signature, rune(e.Signature))
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// BoundsError 表示一次读取会越过当前 buffer/view 的末尾。
// 部分结构不可恢复：上层应放弃整个结构（整文件解析时即整次解析）。
type BoundsError struct {
	What   string // 正在读取的字段，例如 "u32" / "tag payload"
	Offset int    // 读取起点
	Want   int    // 需要的字节数
	Len    int    // buffer 总长度
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("swf: 读取越界：%s 需要 [%d,%d) 但 buffer 长度为 %d", e.What, e.Offset, e.Offset+e.Want, e.Len)
}

func (e *BoundsError) Is(target error) bool { return target == ErrOutOfBounds }

// IsBounds 判断 err 链上是否有越界错误。
func IsBounds(err error) bool {
	var e *BoundsError
	return errors.As(err, &e)
}

// NotSupportedError 表示对一个没有注册解码器的 tag code 请求了解码。
type NotSupportedError struct {
	Code TagCode
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("swf: 不支持解码 tag %s", e.Code)
}

func (e *NotSupportedError) Is(target error) bool { return target == ErrNotSupported }
