package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/swfx/internal/domain"
	"github.com/John-Robertt/swfx/internal/infra/fsx"
)

// OutDir 返回一个 SWF 的产物目录：<root>/out/<rel-path 去掉扩展名>。
func OutDir(root string, src domain.SourceFile) string {
	rel := strings.TrimSuffix(src.RelPath, filepath.Ext(src.RelPath))
	return filepath.Join(root, "out", rel)
}

// ReadOutState 读取产物目录的现状（只做 ReadDir，不读文件内容）。
// 若 outDir 不存在，返回空状态且不报错；被普通文件占用时返回 *fsx.PathTypeConflictError。
func ReadOutState(outDir string) (domain.OutState, error) {
	st := domain.OutState{
		OutDir:        outDir,
		ExistingNames: map[string]struct{}{},
	}

	fi, err := os.Stat(outDir)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return domain.OutState{}, err
	}
	if !fi.IsDir() {
		return domain.OutState{}, &fsx.PathTypeConflictError{Path: outDir, Want: "dir", Got: "file"}
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return domain.OutState{}, err
	}
	for _, e := range entries {
		st.ExistingNames[e.Name()] = struct{}{}
	}
	return st, nil
}

// AssetKey 是待命名的产物。
type AssetKey struct {
	Kind        domain.AssetKind
	Tag         string
	CharacterID uint16
	Ext         string // 带点
}

// Name 返回产物的基础文件名：<Tag>_<CharacterID><Ext>。
func (k AssetKey) Name() string {
	return fmt.Sprintf("%s_%d%s", k.Tag, k.CharacterID, k.Ext)
}

// PlanItem 为一个 SWF 的全部产物生成确定性的落盘计划（不做任何写入）。
//
// 规则：
// - 同一次计划内重名的产物依次追加 __2、__3…
// - 目标文件已存在时标记 Exists（apply 时跳过），重复运行得到相同的计划
func PlanItem(src domain.SourceFile, st domain.OutState, keys []AssetKey) domain.ItemPlan {
	planned := make(map[string]struct{}, len(keys))
	assets := make([]domain.AssetPlan, 0, len(keys))

	for _, k := range keys {
		name, exists := allocName(k.Name(), planned, st.ExistingNames)
		planned[name] = struct{}{}

		assets = append(assets, domain.AssetPlan{
			Kind:        k.Kind,
			Tag:         k.Tag,
			CharacterID: k.CharacterID,
			Ext:         k.Ext,
			DstAbs:      filepath.Join(st.OutDir, name),
			Exists:      exists,
		})
	}

	return domain.ItemPlan{
		Source: src,
		OutDir: st.OutDir,
		Assets: assets,
	}
}

func allocName(name string, planned, existing map[string]struct{}) (string, bool) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	cand := name
	for n := 2; ; n++ {
		if _, ok := planned[cand]; !ok {
			_, ex := existing[cand]
			return cand, ex
		}
		cand = fmt.Sprintf("%s__%d%s", base, n, ext)
	}
}
