package extract

import (
	"fmt"
	"sync"

	"github.com/John-Robertt/swfx/internal/swf"
)

type tablesState int

const (
	tablesOne tablesState = iota
	tablesMissing
	tablesDuplicate
)

// Context 是一个文件的转换上下文：JPEGTables 在构造时一次性算好，之后只读，
// 因此可以被并发的转换共享（按值传递）。
// 缺表/多表告警每个文件只发一次：同一 NewContext 派生出的副本共享这一状态。
type Context struct {
	tables      []byte
	tablesState tablesState
	tablesCount int
	tablesWarn  *sync.Once

	warn func(swf.Warning)
}

// NewContext 从完整的原始 tag 序列计算上下文。warn 可为 nil。
func NewContext(tags []swf.RawTag, warn func(swf.Warning)) Context {
	c := Context{warn: warn, tablesWarn: new(sync.Once)}
	for _, t := range tags {
		if t.Code != swf.TagJPEGTables {
			continue
		}
		c.tablesCount++
		c.tables = t.Payload
	}
	switch c.tablesCount {
	case 0:
		c.tablesState = tablesMissing
		c.tables = nil
	case 1:
		c.tablesState = tablesOne
	default:
		c.tablesState = tablesDuplicate
		c.tables = nil
	}
	return c
}

// WithWarnings 返回一个告警改投到 fn 的副本。
func (c Context) WithWarnings(fn func(swf.Warning)) Context {
	c.warn = fn
	return c
}

// jpegTables 返回 DefineBits 需要前置的编码表；nil 表示不加前缀。
func (c Context) jpegTables() []byte {
	if c.tablesState != tablesOne {
		c.warnTables()
		return nil
	}
	if len(c.tables) == 0 {
		return nil
	}
	return c.tables
}

// warnTables 在缺表或多表时发出告警，同一文件只发第一次。
func (c Context) warnTables() {
	if c.tablesState == tablesOne || c.tablesWarn == nil {
		return
	}
	c.tablesWarn.Do(func() {
		if c.tablesState == tablesMissing {
			c.warnf(swf.WarnJPEGTablesMiss, swf.TagDefineBits, "文件中没有 JPEGTables，DefineBits 按无编码表处理")
			return
		}
		c.warnf(swf.WarnJPEGTablesDup, swf.TagDefineBits, "文件中有 %d 个 JPEGTables，DefineBits 按无编码表处理", c.tablesCount)
	})
}

func (c Context) warnf(kind string, code swf.TagCode, format string, args ...any) {
	if c.warn == nil {
		return
	}
	c.warn(swf.Warning{Kind: kind, Code: code, Msg: fmt.Sprintf(format, args...)})
}
