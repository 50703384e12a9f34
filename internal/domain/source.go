package domain

// SourceFile 描述一次扫描/解析输入得到的 SWF 文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - RelPath 相对运行根目录，用作产物子目录与报告中的稳定键
type SourceFile struct {
	AbsPath string
	RelPath string
	Base    string // 不含扩展名的文件名
	Size    int64
	ModUnix int64

	// URL 非空表示该文件来自远程下载（AbsPath 指向 cache/remote/ 下的副本）。
	URL string
}
