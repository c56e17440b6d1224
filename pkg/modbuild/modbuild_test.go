package modbuild

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goopsie/bonefix/pkg/backup"
	"github.com/goopsie/bonefix/pkg/config"
	"github.com/goopsie/bonefix/pkg/mapping"
	"github.com/goopsie/bonefix/pkg/skeleton"
	"github.com/goopsie/bonefix/pkg/uasset"
	"github.com/goopsie/bonefix/pkg/uasset/uassettest"
)

var (
	originalBones = []uassettest.Bone{{Name: "root", Parent: -1}, {Name: "spine", Parent: 0}, {Name: "tail", Parent: 1}}
	moddedBones   = []uassettest.Bone{{Name: "root", Parent: -1}, {Name: "tail", Parent: 2}, {Name: "spine", Parent: 0}}
)

type workspace struct {
	root     string
	cfg      *config.Config
	skelDir  string
	skelData string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.ModsDir = filepath.Join(root, "mods")
	cfg.MappingDir = filepath.Join(root, "mapping")
	cfg.AnimSearchPattern = "A_.*"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	w := &workspace{root: root, cfg: cfg}
	w.skelDir = filepath.Join(cfg.ModsDir, "Hero", "Content", "Characters", "Hero")
	uassettest.WriteSkeleton(t, filepath.Join(cfg.MappingDir, "Hero"), "Hero_Skeleton", originalBones)
	_, w.skelData = uassettest.WriteSkeleton(t, w.skelDir, "Hero_Skeleton", moddedBones)
	return w
}

func (w *workspace) build(t *testing.T) *Summary {
	t.Helper()
	b := NewBuilder(w.cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	summary, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return summary
}

func TestBuildRealignsSkeletonAndAnimations(t *testing.T) {
	w := newWorkspace(t)
	run := uassettest.WriteFile(t, w.skelDir, "A_Run.uexp", uassettest.AnimationData(3))
	broken := uassettest.WriteFile(t, w.skelDir, "A_Broken.uexp", []byte("no bone table here"))
	mesh := uassettest.WriteFile(t, w.skelDir, "Hero_Mesh.uexp", uassettest.AnimationData(3))

	summary := w.build(t)

	if len(summary.Mods) != 1 || len(summary.Mods[0].Skeletons) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	rep := summary.Mods[0].Skeletons[0]
	if rep.Status != StatusPatched {
		t.Fatalf("status %v: %v", rep.Status, rep.Err)
	}

	names, order, err := uasset.ReadSkeleton(uasset.PairPaths(w.skelData))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	got, _ := order.Names(names)
	if want := []string{"root", "spine", "tail"}; !reflect.DeepEqual(got, want) {
		t.Errorf("bone names: got %v, want %v", got, want)
	}
	var parents []int
	for _, b := range order {
		parents = append(parents, b.ParentIndex)
	}
	if want := []int{-1, 0, 1}; !reflect.DeepEqual(parents, want) {
		t.Errorf("parents: got %v, want %v", parents, want)
	}

	data, _ := os.ReadFile(run)
	if got, want := uassettest.AnimationIndices(data), []int{0, 2, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("animation indices: got %v, want %v", got, want)
	}
	data, _ = os.ReadFile(mesh)
	if got, want := uassettest.AnimationIndices(data), []int{0, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("non-matching file was patched: %v", got)
	}

	var brokenErr error
	for _, a := range rep.Animations {
		if a.Path == broken {
			brokenErr = a.Err
		}
	}
	if !errors.Is(brokenErr, uasset.ErrPatternNotFound) {
		t.Errorf("broken animation: got %v, want ErrPatternNotFound", brokenErr)
	}

	totals := summary.Totals()
	if totals.SkeletonsPatched != 1 || totals.AnimationsPatched != 1 || totals.AnimationsFailed != 1 {
		t.Errorf("unexpected totals: %+v", totals)
	}

	for _, p := range []string{w.skelData, run} {
		if _, err := os.Stat(backup.Path(p)); err != nil {
			t.Errorf("missing backup for %s: %v", p, err)
		}
	}
	for _, p := range []string{broken, mesh} {
		if _, err := os.Stat(backup.Path(p)); !os.IsNotExist(err) {
			t.Errorf("unexpected backup for unpatched %s", p)
		}
	}
	if _, err := mapping.Load(filepath.Join(w.cfg.MappingDir, "Hero", mapping.FileName("Hero_Skeleton"))); err != nil {
		t.Errorf("derived mapping not stored: %v", err)
	}
}

func TestBuildSecondRunIsStable(t *testing.T) {
	w := newWorkspace(t)
	w.build(t)
	first, _ := os.ReadFile(w.skelData)

	summary := w.build(t)
	if rep := summary.Mods[0].Skeletons[0]; rep.Status != StatusPatched {
		t.Fatalf("second run status %v: %v", rep.Status, rep.Err)
	}
	second, _ := os.ReadFile(w.skelData)
	if !bytes.Equal(first, second) {
		t.Error("second run changed an already aligned skeleton")
	}
}

func TestBuildSkipsWithoutMapping(t *testing.T) {
	w := newWorkspace(t)
	villainDir := filepath.Join(w.cfg.ModsDir, "Villain")
	_, data := uassettest.WriteSkeleton(t, villainDir, "Villain_Skeleton", moddedBones)
	before, _ := os.ReadFile(data)

	summary := w.build(t)

	var villain *ModReport
	for i := range summary.Mods {
		if summary.Mods[i].Name == "Villain" {
			villain = &summary.Mods[i]
		}
	}
	if villain == nil || len(villain.Skeletons) != 1 {
		t.Fatalf("villain not reported: %+v", summary.Mods)
	}
	rep := villain.Skeletons[0]
	if rep.Status != StatusSkipped || !errors.Is(rep.Err, skeleton.ErrNotFound) || rep.Hint == "" {
		t.Errorf("unexpected report: %+v", rep)
	}
	after, _ := os.ReadFile(data)
	if !bytes.Equal(before, after) {
		t.Error("skipped skeleton was modified")
	}

	totals := summary.Totals()
	if totals.SkeletonsPatched != 1 || totals.SkeletonsSkipped != 1 {
		t.Errorf("unexpected totals: %+v", totals)
	}
	if summary.Failed() {
		t.Error("a skipped skeleton is not a failure")
	}
}

func TestBuildRecordsFailure(t *testing.T) {
	t.Run("RootInvariant", func(t *testing.T) {
		w := newWorkspace(t)
		_, w.skelData = uassettest.WriteSkeleton(t, w.skelDir, "Hero_Skeleton", []uassettest.Bone{
			{Name: "pelvis", Parent: -1}, {Name: "spine", Parent: 0}, {Name: "tail", Parent: 1},
		})
		assertFailed(t, w, skeleton.ErrInvariant)
	})

	t.Run("CountChange", func(t *testing.T) {
		w := newWorkspace(t)
		// root is unknown to this mapping, so it becomes an extra bone and
		// the new order no longer fits the file.
		m := &mapping.Mapping{BoneCount: 3, Bones: []mapping.Entry{
			{BoneName: "pelvis", BoneIndex: 0},
			{BoneName: "spine", BoneIndex: 1},
			{BoneName: "tail", BoneIndex: 2},
		}}
		if err := mapping.Write(filepath.Join(w.cfg.MappingDir, "Hero", mapping.FileName("Hero_Skeleton")), m); err != nil {
			t.Fatal(err)
		}
		assertFailed(t, w, uasset.ErrCountChange)
	})
}

func assertFailed(t *testing.T, w *workspace, target error) {
	t.Helper()
	before, _ := os.ReadFile(w.skelData)

	summary := w.build(t)
	rep := summary.Mods[0].Skeletons[0]
	if rep.Status != StatusFailed || !errors.Is(rep.Err, target) || rep.Hint == "" {
		t.Errorf("unexpected report: %+v", rep)
	}
	if !summary.Failed() {
		t.Error("summary should report failure")
	}
	after, _ := os.ReadFile(w.skelData)
	if !bytes.Equal(before, after) {
		t.Error("failed skeleton was modified")
	}
}

func TestBuildRemovesSkeleton(t *testing.T) {
	w := newWorkspace(t)
	w.cfg.KeepSkeleton = false
	w.cfg.Backup = false

	summary := w.build(t)
	rep := summary.Mods[0].Skeletons[0]
	if rep.Status != StatusPatched || !rep.Removed {
		t.Fatalf("unexpected report: %+v", rep)
	}
	header, data := uasset.PairPaths(w.skelData)
	for _, p := range []string{header, data} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still present", p)
		}
	}
	if _, err := os.Stat(backup.Path(w.skelData)); !os.IsNotExist(err) {
		t.Error("backup written with backups disabled")
	}
}

func TestBuildBoneFixDisabled(t *testing.T) {
	w := newWorkspace(t)
	w.cfg.BoneFix = false
	before, _ := os.ReadFile(w.skelData)

	summary := w.build(t)
	if len(summary.Mods[0].Skeletons) != 0 {
		t.Errorf("skeletons processed with bone fix disabled")
	}
	after, _ := os.ReadFile(w.skelData)
	if !bytes.Equal(before, after) {
		t.Error("skeleton modified with bone fix disabled")
	}
}

func TestBuildCancelled(t *testing.T) {
	w := newWorkspace(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(w.cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if _, err := b.Build(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestScanMods(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"Hero", ".git", "Villain"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	uassettest.WriteFile(t, dir, "notes.txt", []byte("x"))

	mods, err := ScanMods(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if want := []string{"Hero", "Villain"}; !reflect.DeepEqual(mods, want) {
		t.Errorf("got %v, want %v", mods, want)
	}

	if _, err := ScanMods(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing mods dir")
	}
}

func TestModConfig(t *testing.T) {
	root := t.TempDir()
	modDir := filepath.Join(root, "mods", "Hero", "Content")
	cookDir := filepath.Join(root, "cook", "Content")
	mappingModDir := filepath.Join(root, "mapping", "Hero")

	skel := uassettest.WriteFile(t, modDir, "Characters/Hero_Skeleton.uasset", []byte("old"))
	uassettest.WriteFile(t, cookDir, "Characters/Hero_Skeleton.uasset", []byte("cooked"))

	mc, err := ReadModConfig(mappingModDir)
	if err != nil || mc != nil {
		t.Fatalf("expected no record, got %+v, %v", mc, err)
	}

	mc, err = UpdateModConfig(nil, mappingModDir, []string{skel})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if want := filepath.ToSlash(modDir) + "/"; mc.ModContentPath != want {
		t.Errorf("content path: got %q, want %q", mc.ModContentPath, want)
	}
	if want := []string{"Characters/Hero_Skeleton.uasset"}; !reflect.DeepEqual(mc.ModFiles, want) {
		t.Errorf("mod files: got %v, want %v", mc.ModFiles, want)
	}

	stored, err := ReadModConfig(mappingModDir)
	if err != nil || !reflect.DeepEqual(stored, mc) {
		t.Fatalf("stored record: %+v, %v", stored, err)
	}

	n, err := CopyCookedFiles(stored, cookDir)
	if err != nil || n != 1 {
		t.Fatalf("copy: %d, %v", n, err)
	}
	got, _ := os.ReadFile(skel)
	if string(got) != "cooked" {
		t.Errorf("copied content: got %q", got)
	}

	t.Run("KeepsExisting", func(t *testing.T) {
		existing := &ModConfig{ModContentPath: "elsewhere/Content/", ModFiles: []string{"a.uasset"}}
		mc, err := UpdateModConfig(existing, mappingModDir, []string{skel})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(mc, existing) {
			t.Errorf("got %+v, want %+v", mc, existing)
		}
	})

	t.Run("MissingCookedFile", func(t *testing.T) {
		mc := &ModConfig{ModContentPath: filepath.ToSlash(modDir) + "/", ModFiles: []string{"nope.uasset"}}
		if _, err := CopyCookedFiles(mc, cookDir); err == nil {
			t.Error("expected error for missing cooked file")
		}
	})
}
