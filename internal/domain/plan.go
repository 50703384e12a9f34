package domain

// AssetKind 区分产物来源。
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetSound AssetKind = "sound"
)

// AssetPlan 规划一个产物的落盘位置（只描述 dst；真正写入由 run 执行）。
type AssetPlan struct {
	Kind        AssetKind
	Tag         string // tag 名，例如 "DefineBitsLossless2"
	CharacterID uint16
	Ext         string // ".png"

	DstAbs string
	// Exists 为 true 表示目标已存在：apply 模式下跳过，不覆盖。
	Exists bool
}

// ItemPlan 是对一个 SWF 文件的产物计划。
type ItemPlan struct {
	Source SourceFile
	OutDir string
	Assets []AssetPlan
}
