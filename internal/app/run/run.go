package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/swfx/internal/app/planner"
	"github.com/John-Robertt/swfx/internal/config"
	"github.com/John-Robertt/swfx/internal/domain"
	"github.com/John-Robertt/swfx/internal/extract"
	"github.com/John-Robertt/swfx/internal/infra/cache"
	"github.com/John-Robertt/swfx/internal/infra/fsx"
	"github.com/John-Robertt/swfx/internal/swf"
)

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 该函数尽量把错误“降级”为 item 级或 asset 级失败（单条失败不影响其他）。
func Execute(ctx context.Context, eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Path:      eff.Root,
		DryRun:    !eff.Apply,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 64),
	}

	store := cache.New(eff.Root, !eff.Apply)

	scanStarted := time.Now()
	inputs, failed := collectInputs(ctx, eff, store)
	rr.Items = append(rr.Items, failed...)
	scanDur := time.Since(scanStarted)

	if obs != nil {
		remote := 0
		for i := range inputs {
			if inputs[i].src.URL != "" {
				remote++
			}
		}
		obs.OnPhaseDone("scan", map[string]any{
			"files":  len(inputs),
			"remote": remote,
			"failed": len(failed),
		}, scanDur)
	}

	// 执行阶段：按 SWF 并发，SWF 内部的图片转换再按剩余并发度扇出。
	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}
	perItem := 1
	if len(inputs) == 1 {
		perItem = workers
	}

	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{
			"workers":     workers,
			"total_items": len(inputs),
		}, 0)
	}

	type execResult struct {
		source string
		res    domain.ItemResult
		dur    time.Duration
	}

	results := make(chan execResult, len(inputs))

	go func() {
		var g errgroup.Group
		g.SetLimit(workers)
		for _, in := range inputs {
			in := in
			g.Go(func() error {
				oneStarted := time.Now()
				r := execOne(ctx, eff, in, perItem)
				results <- execResult{
					source: in.src.RelPath,
					res:    r,
					dur:    time.Since(oneStarted),
				}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	done := 0
	for it := range results {
		done++
		rr.Items = append(rr.Items, it.res)
		if obs != nil {
			obs.OnItemDone(done, len(inputs), it.source, it.res, it.dur)
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func syntheticFailed(source, url, code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Source:    source,
		URL:       url,
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
		Warnings:  []domain.WarningEntry{},
		Assets:    []domain.AssetResult{},
	}
}

// pending 是一个已规划、等待落盘的产物。
type pending struct {
	key  planner.AssetKey
	typ  string
	data []byte
}

func execOne(ctx context.Context, eff config.EffectiveConfig, in input, concurrency int) domain.ItemResult {
	item := domain.ItemResult{
		Source:   in.src.RelPath,
		URL:      in.src.URL,
		Status:   domain.StatusProcessed, // 失败时覆盖
		Warnings: []domain.WarningEntry{},
		Assets:   []domain.AssetResult{},
	}

	data := in.data
	if data == nil {
		b, err := os.ReadFile(in.src.AbsPath)
		if err != nil {
			item.Status = domain.StatusFailed
			item.ErrorCode = domain.ErrCodeIOFailed
			item.ErrorMsg = fmt.Sprintf("读取 SWF 失败：%v", err)
			return item
		}
		data = b
	}

	addWarning := func(w swf.Warning) {
		item.Warnings = append(item.Warnings, warningEntry(w))
	}

	f, err := swf.Parse(data, swf.WithWarnings(addWarning), swf.WithLegacyCharset(eff.LegacyCharset))
	if err != nil {
		item.Status = domain.StatusFailed
		if errors.Is(err, swf.ErrFormat) {
			item.ErrorCode = domain.ErrCodeFormatInvalid
		} else {
			item.ErrorCode = domain.ErrCodeParseFailed
		}
		item.ErrorMsg = err.Error()
		return item
	}
	item.Header = headerSummary(f)
	names := f.SymbolNames()

	// 转换失败的产物直接记入结果；成功的进入规划。
	var work []pending
	for _, r := range extract.Images(ctx, f, extract.Options{Concurrency: concurrency}) {
		for _, w := range r.Warnings {
			addWarning(w)
		}
		if r.Err != nil {
			item.Assets = append(item.Assets, domain.AssetResult{
				Kind:        domain.AssetImage,
				Tag:         r.Code.String(),
				CharacterID: r.CharacterID,
				Name:        names[r.CharacterID],
				Status:      domain.AssetStatusFailed,
				ErrorCode:   domain.ErrCodeConvertFailed,
				ErrorMsg:    r.Err.Error(),
			})
			continue
		}
		work = append(work, pending{
			key: planner.AssetKey{
				Kind:        domain.AssetImage,
				Tag:         r.Code.String(),
				CharacterID: r.CharacterID,
				Ext:         r.Asset.Type.Ext(),
			},
			typ:  string(r.Asset.Type),
			data: r.Asset.Data,
		})
	}

	if eff.Sounds {
		for _, s := range swf.Sounds(f.Tags, addWarning) {
			work = append(work, pending{
				key: planner.AssetKey{
					Kind:        domain.AssetSound,
					Tag:         swf.TagDefineSound.String(),
					CharacterID: s.ID,
					Ext:         ".mp3",
				},
				typ:  "mp3",
				data: s.Data,
			})
		}
	}

	outDir := planner.OutDir(eff.Root, in.src)
	st, err := planner.ReadOutState(outDir)
	if err != nil {
		item.Status = domain.StatusFailed
		if fsx.IsPathTypeConflict(err) {
			item.ErrorCode = domain.ErrCodeTargetConflict
			item.ErrorMsg = err.Error()
		} else {
			item.ErrorCode = domain.ErrCodeIOFailed
			item.ErrorMsg = fmt.Sprintf("读取 out 状态失败：%v", err)
		}
		return item
	}

	keys := make([]planner.AssetKey, len(work))
	for i := range work {
		keys[i] = work[i].key
	}
	plan := planner.PlanItem(in.src, st, keys)

	planned := make([]domain.AssetResult, len(plan.Assets))
	for i, ap := range plan.Assets {
		planned[i] = domain.AssetResult{
			Kind:        ap.Kind,
			Tag:         ap.Tag,
			CharacterID: ap.CharacterID,
			Name:        names[ap.CharacterID],
			Type:        work[i].typ,
			Bytes:       len(work[i].data),
			Dst:         relOrAbs(eff.Root, ap.DstAbs),
			Status:      domain.AssetStatusPlanned,
		}
		if ap.Exists {
			planned[i].Status = domain.AssetStatusSkipped
		}
	}

	if eff.Apply && hasStatus(planned, domain.AssetStatusPlanned) {
		if err := fsx.EnsureDir(plan.OutDir); err != nil {
			item.Status = domain.StatusFailed
			if fsx.IsPathTypeConflict(err) {
				item.ErrorCode = domain.ErrCodeTargetConflict
			} else {
				item.ErrorCode = domain.ErrCodeIOFailed
			}
			item.ErrorMsg = err.Error()
			for i := range planned {
				if planned[i].Status == domain.AssetStatusPlanned {
					planned[i].Status = domain.AssetStatusFailed
				}
			}
			item.Assets = append(item.Assets, planned...)
			return item
		}

		for i, ap := range plan.Assets {
			if planned[i].Status != domain.AssetStatusPlanned {
				continue
			}
			writeAsset(&planned[i], plan.OutDir, filepath.Base(ap.DstAbs), work[i].data)
		}
	}

	item.Assets = append(item.Assets, planned...)
	if len(item.Assets) == 0 || allStatus(item.Assets, domain.AssetStatusSkipped) {
		item.Status = domain.StatusSkipped
	}
	return item
}

// writeAsset 以“原子 + 不覆盖”写入一个产物；已存在视为满足（skipped）。
func writeAsset(a *domain.AssetResult, dir, name string, data []byte) {
	err := fsx.WriteFileAtomicNoOverwrite(dir, name, data)
	switch {
	case err == nil:
		a.Status = domain.AssetStatusWritten
	case errors.Is(err, os.ErrExist):
		a.Status = domain.AssetStatusSkipped
	case fsx.IsPathTypeConflict(err):
		a.Status = domain.AssetStatusFailed
		a.ErrorCode = domain.ErrCodeTargetConflict
		a.ErrorMsg = err.Error()
	default:
		a.Status = domain.AssetStatusFailed
		a.ErrorCode = domain.ErrCodeIOFailed
		a.ErrorMsg = fmt.Sprintf("写入失败：%v", err)
	}
}

func warningEntry(w swf.Warning) domain.WarningEntry {
	e := domain.WarningEntry{Kind: w.Kind, Msg: w.Msg}
	if w.Code != swf.TagEnd {
		e.Tag = w.Code.String()
	}
	return e
}

func headerSummary(f *swf.File) *domain.HeaderSummary {
	h := f.Header
	return &domain.HeaderSummary{
		Signature:  h.SignatureString(),
		Version:    int(h.Version),
		FileLength: h.FileLength,
		Width:      h.FrameSize.Width,
		Height:     h.FrameSize.Height,
		FrameRate:  h.FrameRate,
		FrameCount: int(h.FrameCount),
		TagCount:   len(f.Tags),
	}
}

func hasStatus(as []domain.AssetResult, status string) bool {
	for i := range as {
		if as[i].Status == status {
			return true
		}
	}
	return false
}

func allStatus(as []domain.AssetResult, status string) bool {
	for i := range as {
		if as[i].Status != status {
			return false
		}
	}
	return true
}

func relOrAbs(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil {
		return rel
	}
	return p
}
