package swf

import "strconv"

// TagCode 是 tag 记录头中的 10 位类型码（0–1023）。
//
// 这里列出完整目录，仅用于命名（info 输出、告警文本）；
// 可解码的子集见 Decodable / Decode。
type TagCode uint16

const (
	TagEnd                          TagCode = 0
	TagShowFrame                    TagCode = 1
	TagDefineShape                  TagCode = 2
	TagPlaceObject                  TagCode = 4
	TagRemoveObject                 TagCode = 5
	TagDefineBits                   TagCode = 6
	TagDefineButton                 TagCode = 7
	TagJPEGTables                   TagCode = 8
	TagSetBackgroundColor           TagCode = 9
	TagDefineFont                   TagCode = 10
	TagDefineText                   TagCode = 11
	TagDoAction                     TagCode = 12
	TagDefineFontInfo               TagCode = 13
	TagDefineSound                  TagCode = 14
	TagStartSound                   TagCode = 15
	TagDefineButtonSound            TagCode = 17
	TagSoundStreamHead              TagCode = 18
	TagSoundStreamBlock             TagCode = 19
	TagDefineBitsLossless           TagCode = 20
	TagDefineBitsJPEG2              TagCode = 21
	TagDefineShape2                 TagCode = 22
	TagDefineButtonCxform           TagCode = 23
	TagProtect                      TagCode = 24
	TagPlaceObject2                 TagCode = 26
	TagRemoveObject2                TagCode = 28
	TagDefineShape3                 TagCode = 32
	TagDefineText2                  TagCode = 33
	TagDefineButton2                TagCode = 34
	TagDefineBitsJPEG3              TagCode = 35
	TagDefineBitsLossless2          TagCode = 36
	TagDefineEditText               TagCode = 37
	TagDefineSprite                 TagCode = 39
	TagFrameLabel                   TagCode = 43
	TagSoundStreamHead2             TagCode = 45
	TagDefineMorphShape             TagCode = 46
	TagDefineFont2                  TagCode = 48
	TagExportAssets                 TagCode = 56
	TagImportAssets                 TagCode = 57
	TagEnableDebugger               TagCode = 58
	TagDoInitAction                 TagCode = 59
	TagDefineVideoStream            TagCode = 60
	TagVideoFrame                   TagCode = 61
	TagDefineFontInfo2              TagCode = 62
	TagEnableDebugger2              TagCode = 64
	TagScriptLimits                 TagCode = 65
	TagSetTabIndex                  TagCode = 66
	TagFileAttributes               TagCode = 69
	TagPlaceObject3                 TagCode = 70
	TagImportAssets2                TagCode = 71
	TagDefineFontAlignZones         TagCode = 73
	TagCSMTextSettings              TagCode = 74
	TagDefineFont3                  TagCode = 75
	TagSymbolClass                  TagCode = 76
	TagMetadata                     TagCode = 77
	TagDefineScalingGrid            TagCode = 78
	TagDoABC                        TagCode = 82
	TagDefineShape4                 TagCode = 83
	TagDefineMorphShape2            TagCode = 84
	TagDefineSceneAndFrameLabelData TagCode = 86
	TagDefineBinaryData             TagCode = 87
	TagDefineFontName               TagCode = 88
	TagStartSound2                  TagCode = 89
	TagDefineBitsJPEG4              TagCode = 90
	TagDefineFont4                  TagCode = 91
	TagEnableTelemetry              TagCode = 93
)

var tagNames = map[TagCode]string{
	TagEnd:                          "End",
	TagShowFrame:                    "ShowFrame",
	TagDefineShape:                  "DefineShape",
	TagPlaceObject:                  "PlaceObject",
	TagRemoveObject:                 "RemoveObject",
	TagDefineBits:                   "DefineBits",
	TagDefineButton:                 "DefineButton",
	TagJPEGTables:                   "JPEGTables",
	TagSetBackgroundColor:           "SetBackgroundColor",
	TagDefineFont:                   "DefineFont",
	TagDefineText:                   "DefineText",
	TagDoAction:                     "DoAction",
	TagDefineFontInfo:               "DefineFontInfo",
	TagDefineSound:                  "DefineSound",
	TagStartSound:                   "StartSound",
	TagDefineButtonSound:            "DefineButtonSound",
	TagSoundStreamHead:              "SoundStreamHead",
	TagSoundStreamBlock:             "SoundStreamBlock",
	TagDefineBitsLossless:           "DefineBitsLossless",
	TagDefineBitsJPEG2:              "DefineBitsJPEG2",
	TagDefineShape2:                 "DefineShape2",
	TagDefineButtonCxform:           "DefineButtonCxform",
	TagProtect:                      "Protect",
	TagPlaceObject2:                 "PlaceObject2",
	TagRemoveObject2:                "RemoveObject2",
	TagDefineShape3:                 "DefineShape3",
	TagDefineText2:                  "DefineText2",
	TagDefineButton2:                "DefineButton2",
	TagDefineBitsJPEG3:              "DefineBitsJPEG3",
	TagDefineBitsLossless2:          "DefineBitsLossless2",
	TagDefineEditText:               "DefineEditText",
	TagDefineSprite:                 "DefineSprite",
	TagFrameLabel:                   "FrameLabel",
	TagSoundStreamHead2:             "SoundStreamHead2",
	TagDefineMorphShape:             "DefineMorphShape",
	TagDefineFont2:                  "DefineFont2",
	TagExportAssets:                 "ExportAssets",
	TagImportAssets:                 "ImportAssets",
	TagEnableDebugger:               "EnableDebugger",
	TagDoInitAction:                 "DoInitAction",
	TagDefineVideoStream:            "DefineVideoStream",
	TagVideoFrame:                   "VideoFrame",
	TagDefineFontInfo2:              "DefineFontInfo2",
	TagEnableDebugger2:              "EnableDebugger2",
	TagScriptLimits:                 "ScriptLimits",
	TagSetTabIndex:                  "SetTabIndex",
	TagFileAttributes:               "FileAttributes",
	TagPlaceObject3:                 "PlaceObject3",
	TagImportAssets2:                "ImportAssets2",
	TagDefineFontAlignZones:         "DefineFontAlignZones",
	TagCSMTextSettings:              "CSMTextSettings",
	TagDefineFont3:                  "DefineFont3",
	TagSymbolClass:                  "SymbolClass",
	TagMetadata:                     "Metadata",
	TagDefineScalingGrid:            "DefineScalingGrid",
	TagDoABC:                        "DoABC",
	TagDefineShape4:                 "DefineShape4",
	TagDefineMorphShape2:            "DefineMorphShape2",
	TagDefineSceneAndFrameLabelData: "DefineSceneAndFrameLabelData",
	TagDefineBinaryData:             "DefineBinaryData",
	TagDefineFontName:               "DefineFontName",
	TagStartSound2:                  "StartSound2",
	TagDefineBitsJPEG4:              "DefineBitsJPEG4",
	TagDefineFont4:                  "DefineFont4",
	TagEnableTelemetry:              "EnableTelemetry",
}

// String 返回 tag 名；目录之外的码返回 "Unknown(<n>)"。
func (c TagCode) String() string {
	if n, ok := tagNames[c]; ok {
		return n
	}
	return "Unknown(" + strconv.Itoa(int(c)) + ")"
}

// Known 报告 c 是否在 SWF tag 目录中。
func (c TagCode) Known() bool {
	_, ok := tagNames[c]
	return ok
}

// Decodable 报告 Decode 是否能处理 c（图片与声音家族）。
func (c TagCode) Decodable() bool {
	switch c {
	case TagDefineBits, TagJPEGTables, TagDefineBitsJPEG2, TagDefineBitsJPEG3, TagDefineBitsJPEG4,
		TagDefineBitsLossless, TagDefineBitsLossless2, TagDefineSound:
		return true
	default:
		return false
	}
}

// IsImage 报告 c 是否是会产出图片资源的 tag（JPEGTables 只提供编码表，不算）。
func (c TagCode) IsImage() bool {
	switch c {
	case TagDefineBits, TagDefineBitsJPEG2, TagDefineBitsJPEG3, TagDefineBitsJPEG4,
		TagDefineBitsLossless, TagDefineBitsLossless2:
		return true
	default:
		return false
	}
}
