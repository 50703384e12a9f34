package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		Path:       "/abs/path",
		DryRun:     true,
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Items: []ItemResult{
			{Source: "b/intro.swf", Status: StatusSkipped},
			{Source: "", Status: StatusFailed}, // config 等合成项
			{
				Source:   "a/menu.swf",
				Status:   StatusProcessed,
				Warnings: []WarningEntry{{Kind: "end_tag_not_last"}},
				Assets: []AssetResult{
					{Kind: AssetImage, Status: AssetStatusPlanned},
					{Kind: AssetImage, Status: AssetStatusSkipped},
					{Kind: AssetImage, Status: AssetStatusFailed},
					{Kind: AssetSound, Status: AssetStatusWritten},
				},
			},
		},
	}

	r.Finalize()

	// source=="" 必须排在最后。
	if r.Items[0].Source != "a/menu.swf" || r.Items[1].Source != "b/intro.swf" || r.Items[2].Source != "" {
		t.Fatalf("items 排序不符合契约：%v", []string{r.Items[0].Source, r.Items[1].Source, r.Items[2].Source})
	}
	s := r.Summary
	if s.Processed != 1 || s.Skipped != 1 || s.Failed != 1 {
		t.Fatalf("summary 统计不正确：%+v", s)
	}
	if s.Images != 2 || s.Sounds != 1 || s.AssetsFailed != 1 || s.AssetsSkipped != 1 || s.Warnings != 1 {
		t.Fatalf("asset 统计不正确：%+v", s)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}
