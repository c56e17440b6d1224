package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goopsie/bonefix/pkg/uasset"
	"github.com/goopsie/bonefix/pkg/uasset/uassettest"
)

var (
	originalBones = []uassettest.Bone{{Name: "root", Parent: -1}, {Name: "spine", Parent: 0}, {Name: "tail", Parent: 1}}
	moddedBones   = []uassettest.Bone{{Name: "root", Parent: -1}, {Name: "tail", Parent: 2}, {Name: "spine", Parent: 0}}
)

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "bonefix.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func boneNames(t *testing.T, dataPath string) []string {
	t.Helper()
	names, order, err := uasset.ReadSkeleton(uasset.PairPaths(dataPath))
	if err != nil {
		t.Fatalf("read %s: %v", dataPath, err)
	}
	got, err := order.Names(names)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestVersion(t *testing.T) {
	out, err := execute(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "bonefix test\n" {
		t.Errorf("got %q", out)
	}
}

func TestMapInspectReplaceRestore(t *testing.T) {
	dir := t.TempDir()
	origHeader, _ := uassettest.WriteSkeleton(t, filepath.Join(dir, "original"), "Hero_Skeleton", originalBones)
	modHeader, modData := uassettest.WriteSkeleton(t, filepath.Join(dir, "mod"), "Hero_Skeleton", moddedBones)
	anim := uassettest.WriteFile(t, filepath.Join(dir, "mod"), "A_Run.uexp", uassettest.AnimationData(3))
	pristine, _ := os.ReadFile(modData)
	mapPath := filepath.Join(dir, "Hero_Skeleton-map.json")

	out, err := execute(t, dir, "map", origHeader, "-o", mapPath)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if !strings.Contains(out, "3 bones") {
		t.Errorf("map output: %q", out)
	}

	out, err = execute(t, dir, "inspect", modHeader)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"Hero_Skeleton: ", "3 bones", "tail", "spine"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, dir, "replace", modHeader, modData, mapPath, "--dry-run")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, "translation: [0 2 1]") {
		t.Errorf("dry run output:\n%s", out)
	}
	if got, _ := os.ReadFile(modData); !bytes.Equal(got, pristine) {
		t.Fatal("dry run modified the skeleton")
	}

	if _, err := execute(t, dir, "replace", modHeader, modData, mapPath, "--anim", anim); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got, want := boneNames(t, modData), []string{"root", "spine", "tail"}; !reflect.DeepEqual(got, want) {
		t.Errorf("bone names: got %v, want %v", got, want)
	}
	data, _ := os.ReadFile(anim)
	if got, want := uassettest.AnimationIndices(data), []int{0, 2, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("animation indices: got %v, want %v", got, want)
	}

	out, err = execute(t, dir, "restore", filepath.Join(dir, "mod"))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !strings.Contains(out, "restored 2 files") {
		t.Errorf("restore output: %q", out)
	}
	if got, _ := os.ReadFile(modData); !bytes.Equal(got, pristine) {
		t.Error("skeleton not restored")
	}
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	mods := filepath.Join(dir, "mods")
	maps := filepath.Join(dir, "mapping")
	uassettest.WriteSkeleton(t, filepath.Join(maps, "Hero"), "Hero_Skeleton", originalBones)
	_, data := uassettest.WriteSkeleton(t, filepath.Join(mods, "Hero", "Content"), "Hero_Skeleton", moddedBones)

	out, err := execute(t, dir, "build", "--mods", mods, "--mapping", maps, "--no-backup")
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	if !strings.Contains(out, "patched=1") {
		t.Errorf("summary missing patched count:\n%s", out)
	}
	if got, want := boneNames(t, data), []string{"root", "spine", "tail"}; !reflect.DeepEqual(got, want) {
		t.Errorf("bone names: got %v, want %v", got, want)
	}

	t.Run("Failure", func(t *testing.T) {
		uassettest.WriteSkeleton(t, filepath.Join(mods, "Hero", "Content"), "Hero_Skeleton", []uassettest.Bone{
			{Name: "pelvis", Parent: -1}, {Name: "spine", Parent: 0}, {Name: "tail", Parent: 1},
		})
		out, err := execute(t, dir, "build", "--mods", mods, "--mapping", maps, "--no-backup")
		if !errors.Is(err, errSkeletonsFailed) {
			t.Fatalf("got %v, want errSkeletonsFailed", err)
		}
		if !strings.Contains(out, "hint:") {
			t.Errorf("summary missing hint:\n%s", out)
		}
	})
}

func TestBuildConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bonefix.yaml"), []byte("byte_order: sideways\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, dir, "build"); err == nil {
		t.Error("expected config error")
	}
}

func TestResolvePair(t *testing.T) {
	dir := t.TempDir()
	header, data := uassettest.WriteSkeleton(t, dir, "Hero_Skeleton", originalBones)

	cases := map[string][]string{
		"Folder":  {dir},
		"Header":  {header},
		"Data":    {data},
		"Both":    {header, data},
		"Swapped": {data, header},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			h, d, err := resolvePair(args)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if h != header || d != data {
				t.Errorf("got %s, %s", h, d)
			}
		})
	}

	t.Run("EmptyFolder", func(t *testing.T) {
		if _, _, err := resolvePair([]string{t.TempDir()}); err == nil {
			t.Error("expected error for folder without a pair")
		}
	})
}
