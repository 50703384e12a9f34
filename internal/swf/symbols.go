package swf

// SymbolNames 汇总 ExportAssets 与 SymbolClass 给字符 ID 起的名字（后出现的覆盖先出现的）。
// 解析失败的记录直接忽略：名字只用于给产物起名，不影响提取。
//
// SWF 5 及更早版本的字符串不是 UTF-8，此时按 WithLegacyCharset 指定的字符集解码。
func (f *File) SymbolNames() map[uint16]string {
	names := make(map[uint16]string)
	for _, t := range f.Tags {
		if t.Code != TagExportAssets && t.Code != TagSymbolClass {
			continue
		}
		c := NewCursor(t.Payload)
		if f.Header.Version <= 5 {
			c.SetLegacyCharset(f.legacy)
		}
		n, err := c.U16()
		if err != nil {
			continue
		}
		for i := 0; i < int(n); i++ {
			id, err := c.U16()
			if err != nil {
				break
			}
			name, err := c.String()
			if err != nil {
				break
			}
			if name != "" {
				names[id] = name
			}
		}
	}
	return names
}
