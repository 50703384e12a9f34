package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

const (
	AssetStatusPlanned = "planned"
	AssetStatusWritten = "written"
	AssetStatusSkipped = "skipped"
	AssetStatusFailed  = "failed"
)

const (
	ErrCodeFetchFailed       = "fetch_failed"
	ErrCodeParseFailed       = "parse_failed"
	ErrCodeFormatInvalid     = "format_invalid"
	ErrCodeConvertFailed     = "convert_failed"
	ErrCodeTargetConflict    = "target_conflict"
	ErrCodeIOFailed          = "io_failed"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	Path   string `json:"path"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	Images        int `json:"images"`
	Sounds        int `json:"sounds"`
	AssetsFailed  int `json:"assets_failed"`
	AssetsSkipped int `json:"assets_skipped"`
	Warnings      int `json:"warnings"`
}

// ItemResult 是一个 SWF 文件的处理结果。Source 为相对路径（远程输入为 URL）。
type ItemResult struct {
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Header   *HeaderSummary `json:"header,omitempty"`
	Warnings []WarningEntry `json:"warnings"`
	Assets   []AssetResult  `json:"assets"`
}

// HeaderSummary 是容器头的精简视图。
type HeaderSummary struct {
	Signature  string  `json:"signature"`
	Version    int     `json:"version"`
	FileLength uint32  `json:"file_length"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	FrameRate  float64 `json:"frame_rate"`
	FrameCount int     `json:"frame_count"`
	TagCount   int     `json:"tag_count"`
}

type WarningEntry struct {
	Kind string `json:"kind"`
	Tag  string `json:"tag,omitempty"`
	Msg  string `json:"msg"`
}

type AssetResult struct {
	Kind        AssetKind `json:"kind"`
	Tag         string    `json:"tag"`
	CharacterID uint16    `json:"character_id"`
	Name        string    `json:"name,omitempty"` // 导出/符号名（若有）
	Type        string    `json:"type,omitempty"` // jpeg/png/gif/mp3
	Bytes       int       `json:"bytes"`
	Dst         string    `json:"dst,omitempty"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 source 字典序；source=="" 的条目（config 等合成项）排在最后
// 3) summary 由 items 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Source
		b := r.Items[j].Source
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusProcessed:
			s.Processed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		s.Warnings += len(it.Warnings)
		for _, a := range it.Assets {
			switch a.Status {
			case AssetStatusFailed:
				s.AssetsFailed++
				continue
			case AssetStatusSkipped:
				s.AssetsSkipped++
			}
			switch a.Kind {
			case AssetImage:
				s.Images++
			case AssetSound:
				s.Sounds++
			}
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
