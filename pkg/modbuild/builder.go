// Package modbuild runs bone realignment over a folder of mods.
//
// Each mod is a folder under the mods directory. Skeletons are found by
// file name suffix, remapped against a mapping kept in the mod's folder
// under the mapping directory, and written back in place together with
// the animations that index into them. Failures are isolated per
// skeleton and reported in a Summary.
package modbuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goopsie/bonefix/pkg/backup"
	"github.com/goopsie/bonefix/pkg/config"
	"github.com/goopsie/bonefix/pkg/mapping"
	"github.com/goopsie/bonefix/pkg/remap"
	"github.com/goopsie/bonefix/pkg/skeleton"
	"github.com/goopsie/bonefix/pkg/uasset"
)

// Builder realigns skeletons for a configured set of mods.
type Builder struct {
	cfg        *config.Config
	log        *slog.Logger
	assetOpts  []uasset.Option
	now        func() time.Time
	onSkeleton func(SkeletonReport)
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used for progress and warnings.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = l
	}
}

// WithAssetOptions appends options passed to every asset read and write.
func WithAssetOptions(opts ...uasset.Option) BuilderOption {
	return func(b *Builder) {
		b.assetOpts = append(b.assetOpts, opts...)
	}
}

// WithProgress registers a callback invoked after each skeleton.
func WithProgress(fn func(SkeletonReport)) BuilderOption {
	return func(b *Builder) {
		b.onSkeleton = fn
	}
}

// NewBuilder returns a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...BuilderOption) *Builder {
	b := &Builder{
		cfg:       cfg,
		log:       slog.Default(),
		assetOpts: []uasset.Option{uasset.WithByteOrder(cfg.ByteOrder())},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build processes every mod under the configured mods directory. Errors
// inside a mod are recorded in the summary; the returned error is only
// set when the batch itself could not run or ctx was cancelled.
func (b *Builder) Build(ctx context.Context) (*Summary, error) {
	start := b.now()
	summary := &Summary{}

	mods, err := ScanMods(b.cfg.ModsDir)
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		b.log.Warn("no mods found", "dir", b.cfg.ModsDir)
	}

	for _, mod := range mods {
		if err := ctx.Err(); err != nil {
			summary.Duration = b.now().Sub(start)
			return summary, err
		}
		rep, err := b.BuildMod(ctx, mod)
		summary.Mods = append(summary.Mods, rep)
		if err != nil {
			summary.Duration = b.now().Sub(start)
			return summary, err
		}
	}

	summary.Duration = b.now().Sub(start)
	return summary, nil
}

// BuildMod processes one mod folder. Only context cancellation is
// returned as an error.
func (b *Builder) BuildMod(ctx context.Context, mod string) (ModReport, error) {
	rep := ModReport{Name: mod}
	log := b.log.With("mod", mod)
	modDir := filepath.Join(b.cfg.ModsDir, mod)

	files, err := ScanFiles(modDir)
	if err != nil {
		rep.Err = err
		log.Error("scan failed", "err", err)
		return rep, nil
	}

	if b.cfg.CookContentFolder != "" {
		n, err := b.copyCooked(mod, files)
		if err != nil {
			rep.Err = err
			log.Error("copy cooked files failed", "err", err)
			return rep, nil
		}
		rep.CookedFiles = n
		if n > 0 {
			log.Info("copied cooked files", "count", n)
			if files, err = ScanFiles(modDir); err != nil {
				rep.Err = err
				return rep, nil
			}
		}
	}

	if !b.cfg.BoneFix {
		return rep, nil
	}

	skels, err := b.Realign(ctx, mod, files)
	rep.Skeletons = skels
	return rep, err
}

func (b *Builder) copyCooked(mod string, files []string) (int, error) {
	cook := b.cfg.CookContentFolder
	if _, err := os.Stat(cook); err != nil {
		b.log.Warn("cook content folder unavailable", "path", cook, "err", err)
		return 0, nil
	}

	mappingModDir := filepath.Join(b.cfg.MappingDir, mod)
	existing, err := ReadModConfig(mappingModDir)
	if err != nil {
		return 0, err
	}
	mc, err := UpdateModConfig(existing, mappingModDir, files)
	if err != nil {
		return 0, err
	}
	return CopyCookedFiles(mc, cook)
}

// Realign remaps every skeleton among files and patches the animations
// found alongside it. An animation is patched at most once per call.
func (b *Builder) Realign(ctx context.Context, mod string, files []string) ([]SkeletonReport, error) {
	skels := b.skeletonHeaders(files)
	if len(skels) == 0 {
		return nil, nil
	}
	if len(skels) > 1 {
		b.log.Warn("multiple skeletons in one mod; each animation is patched with the first skeleton that succeeds",
			"mod", mod, "count", len(skels))
	}

	skeletonData := make(map[string]bool, len(skels))
	for _, h := range skels {
		_, d := uasset.PairPaths(h)
		skeletonData[d] = true
	}
	var anims []string
	for _, f := range files {
		if !skeletonData[f] && b.cfg.IsAnimation(filepath.Base(f)) {
			anims = append(anims, f)
		}
	}

	patched := make(map[string]bool)
	var reports []SkeletonReport
	for _, h := range skels {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep := b.realignSkeleton(mod, h, anims, patched)
		b.logReport(rep)
		if b.onSkeleton != nil {
			b.onSkeleton(rep)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (b *Builder) skeletonHeaders(files []string) []string {
	suffix := b.cfg.SkeletonSuffix + uasset.HeaderExt
	var out []string
	for _, f := range files {
		if strings.HasSuffix(filepath.Base(f), suffix) {
			out = append(out, f)
		}
	}
	return out
}

func (b *Builder) realignSkeleton(mod, headerPath string, anims []string, patched map[string]bool) SkeletonReport {
	rep := SkeletonReport{Mod: mod, Path: headerPath}
	stem := strings.TrimSuffix(filepath.Base(headerPath), uasset.HeaderExt)
	_, dataPath := uasset.PairPaths(headerPath)

	fail := func(err error) SkeletonReport {
		rep.Status = StatusFailed
		rep.Err = err
		rep.Hint = hintFor(err)
		return rep
	}

	m, err := b.resolveMapping(mod, stem)
	if err != nil {
		if errors.Is(err, skeleton.ErrNotFound) {
			rep.Status = StatusSkipped
			rep.Err = err
			rep.Hint = fmt.Sprintf("place the unmodified %s%s and %s%s in %s",
				stem, uasset.HeaderExt, stem, uasset.DataExt, filepath.Join(b.cfg.MappingDir, mod))
			return rep
		}
		return fail(err)
	}

	names, order, err := uasset.ReadSkeleton(headerPath, dataPath, b.assetOpts...)
	if err != nil {
		return fail(err)
	}

	res, err := remap.Remap(m, order, names)
	if err != nil {
		return fail(err)
	}
	for _, w := range res.Warnings {
		rep.Warnings = append(rep.Warnings, w.Error())
	}
	rep.Bones = len(res.Order)
	rep.Extras = len(res.Extras)
	rep.Gaps = len(res.Gaps)

	if err := b.snapshot(dataPath); err != nil {
		return fail(err)
	}
	if err := uasset.WriteBoneOrder(dataPath, res.Order, b.assetOpts...); err != nil {
		return fail(fmt.Errorf("write %s: %w", dataPath, err))
	}

	for _, anim := range anims {
		if patched[anim] {
			continue
		}
		a := AnimationReport{Path: anim}
		if a.Err = b.checkAnimation(anim, res.Translation); a.Err == nil {
			if a.Err = b.snapshot(anim); a.Err == nil {
				a.Slots, a.Err = uasset.WriteAnimationBoneIndices(anim, res.Translation, b.assetOpts...)
			}
		}
		if a.Err == nil {
			patched[anim] = true
		}
		rep.Animations = append(rep.Animations, a)
	}

	rep.Status = StatusPatched

	if !b.cfg.KeepSkeleton {
		if err := removePair(headerPath, dataPath); err != nil {
			rep.Warnings = append(rep.Warnings, err.Error())
		} else {
			rep.Removed = true
		}
	}
	return rep
}

// resolveMapping loads the stored mapping for stem, deriving it from an
// original pair in the mod's mapping folder when none is stored.
func (b *Builder) resolveMapping(mod, stem string) (*mapping.Mapping, error) {
	dir := filepath.Join(b.cfg.MappingDir, mod)
	path := filepath.Join(dir, mapping.FileName(stem))

	m, err := mapping.Load(path)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, skeleton.ErrNotFound) {
		return nil, err
	}

	b.log.Info("deriving mapping", "mod", mod, "skeleton", stem, "path", path)
	return mapping.Derive(dir, stem, path, b.assetOpts...)
}

// checkAnimation patches a copy of anim in memory so files that cannot be
// patched are reported without leaving a backup behind.
func (b *Builder) checkAnimation(anim string, t skeleton.IndexTranslation) error {
	data, err := os.ReadFile(anim)
	if err != nil {
		return fmt.Errorf("read %s: %w", anim, err)
	}
	_, err = uasset.PatchAnimationBoneIndices(data, t, b.assetOpts...)
	return err
}

func (b *Builder) snapshot(path string) error {
	if !b.cfg.Backup {
		return nil
	}
	created, err := backup.Snapshot(path)
	if err != nil {
		return err
	}
	if created {
		b.log.Debug("backup written", "path", backup.Path(path))
	}
	return nil
}

func (b *Builder) logReport(rep SkeletonReport) {
	log := b.log.With("mod", rep.Mod, "skeleton", rep.Path)
	for _, w := range rep.Warnings {
		log.Warn(w)
	}
	switch rep.Status {
	case StatusPatched:
		log.Info("skeleton realigned", "bones", rep.Bones, "extras", rep.Extras, "animations", len(rep.Animations))
	case StatusSkipped:
		log.Warn("skeleton skipped", "err", rep.Err, "hint", rep.Hint)
	case StatusFailed:
		log.Error("skeleton failed", "err", rep.Err, "hint", rep.Hint)
	}
	for _, a := range rep.Animations {
		if a.Err != nil {
			log.Warn("animation not patched", "file", a.Path, "err", a.Err, "hint", hintFor(a.Err))
		} else {
			log.Debug("animation patched", "file", a.Path, "slots", a.Slots)
		}
	}
}

// hintFor suggests a remedy for a failed skeleton or animation.
func hintFor(err error) string {
	switch {
	case errors.Is(err, uasset.ErrPatternNotFound):
		return "the file has no bone index table; narrow anim_search_pattern to skip it"
	case errors.Is(err, uasset.ErrCountChange):
		return "the mapping and skeleton disagree on bone count; regenerate the mapping from a matching original"
	case errors.Is(err, skeleton.ErrInvariant):
		return "the first bone must be named root; check the mapping and the skeleton"
	case errors.Is(err, skeleton.ErrFormat):
		return "the file layout was not recognised; check the engine version and byte_order"
	case errors.Is(err, skeleton.ErrNotFound):
		return "check that both the .uasset and .uexp halves exist"
	default:
		return ""
	}
}

func removePair(headerPath, dataPath string) error {
	for _, p := range []string{headerPath, dataPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove skeleton: %w", err)
		}
	}
	return nil
}
