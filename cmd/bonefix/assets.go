package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goopsie/bonefix/pkg/backup"
	"github.com/goopsie/bonefix/pkg/mapping"
	"github.com/goopsie/bonefix/pkg/remap"
	"github.com/goopsie/bonefix/pkg/skeleton"
	"github.com/goopsie/bonefix/pkg/uasset"
)

// resolvePair turns command arguments into a header and data path. One
// argument may name either half of a pair or a folder holding one pair.
func resolvePair(args []string) (headerPath, dataPath string, err error) {
	if len(args) == 2 {
		headerPath, dataPath = args[0], args[1]
		if strings.HasSuffix(headerPath, uasset.DataExt) && strings.HasSuffix(dataPath, uasset.HeaderExt) {
			headerPath, dataPath = dataPath, headerPath
		}
		return headerPath, dataPath, nil
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return "", "", skeleton.NotFoundf("%s", args[0])
	}
	if !info.IsDir() {
		headerPath, dataPath = uasset.PairPaths(args[0])
		return headerPath, dataPath, nil
	}

	headerPath, dataPath, err = uasset.LocateAssetPair(args[0], "")
	if err != nil {
		return "", "", err
	}
	if headerPath == "" || dataPath == "" {
		return "", "", skeleton.NotFoundf("no %s/%s pair in %s", uasset.HeaderExt, uasset.DataExt, args[0])
	}
	return headerPath, dataPath, nil
}

func stemOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (a *app) runMap(cmd *cobra.Command, args []string) error {
	opts, err := a.assetOptions()
	if err != nil {
		return err
	}
	headerPath, dataPath, err := resolvePair(args)
	if err != nil {
		return err
	}
	output, err := optionalStringFlag(cmd, "output")
	if err != nil {
		return err
	}
	if output == "" {
		output = mapping.FileName(stemOf(headerPath))
	}

	names, order, err := uasset.ReadSkeleton(headerPath, dataPath, opts...)
	if err != nil {
		return err
	}
	if err := mapping.Save(output, order, names); err != nil {
		return err
	}

	a.log.Debug("mapping written", "skeleton", headerPath, "bones", len(order))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bones)\n", output, len(order))
	return nil
}

func (a *app) runReplace(cmd *cobra.Command, args []string) error {
	opts, err := a.assetOptions()
	if err != nil {
		return err
	}
	headerPath, dataPath, err := resolvePair(args[:2])
	if err != nil {
		return err
	}
	anims, err := cmd.Flags().GetStringSlice("anim")
	if err != nil {
		return fmt.Errorf("failed to read --anim flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to read --dry-run flag: %w", err)
	}
	noBackup, err := cmd.Flags().GetBool("no-backup")
	if err != nil {
		return fmt.Errorf("failed to read --no-backup flag: %w", err)
	}

	m, err := mapping.Load(args[2])
	if err != nil {
		return err
	}
	names, order, err := uasset.ReadSkeleton(headerPath, dataPath, opts...)
	if err != nil {
		return err
	}
	res, err := remap.Remap(m, order, names)
	if err != nil {
		return fmt.Errorf("remap %s: %w", dataPath, err)
	}
	for _, w := range res.Warnings {
		a.log.Warn(w.Error(), "skeleton", dataPath)
	}

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprint(out, res.Order.Format(names))
		fmt.Fprintf(out, "translation: %v\n", []int(res.Translation))
		return nil
	}

	snapshot := func(path string) error {
		if noBackup {
			return nil
		}
		_, err := backup.Snapshot(path)
		return err
	}

	if err := snapshot(dataPath); err != nil {
		return err
	}
	if err := uasset.WriteBoneOrder(dataPath, res.Order, opts...); err != nil {
		return fmt.Errorf("write %s: %w", dataPath, err)
	}
	fmt.Fprintf(out, "patched %s (%d bones, %d extra)\n", dataPath, len(res.Order), len(res.Extras))

	var failed int
	for _, anim := range anims {
		if err := snapshot(anim); err != nil {
			return err
		}
		n, err := uasset.WriteAnimationBoneIndices(anim, res.Translation, opts...)
		if err != nil {
			failed++
			a.log.Warn("animation not patched", "file", anim, "err", err)
			continue
		}
		fmt.Fprintf(out, "patched %s (%d slots)\n", anim, n)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d animations not patched", failed, len(anims))
	}
	return nil
}

func (a *app) runInspect(cmd *cobra.Command, args []string) error {
	opts, err := a.assetOptions()
	if err != nil {
		return err
	}
	headerPath, dataPath, err := resolvePair(args)
	if err != nil {
		return err
	}
	names, order, err := uasset.ReadSkeleton(headerPath, dataPath, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d names, %d bones\n", stemOf(headerPath), len(names), len(order))
	fmt.Fprint(out, order.Format(names))
	return nil
}

func (a *app) runRestore(cmd *cobra.Command, args []string) error {
	target := args[0]
	info, err := os.Stat(target)

	var files []string
	switch {
	case err == nil && info.IsDir():
		if files, err = backup.Find(target); err != nil {
			return err
		}
	default:
		// A patched file that was later deleted can still be restored.
		files = []string{strings.TrimSuffix(target, backup.Ext)}
	}

	out := cmd.OutOrStdout()
	for _, f := range files {
		if err := backup.Restore(f); err != nil {
			return fmt.Errorf("restore %s: %w", f, err)
		}
		a.log.Debug("restored", "file", f)
	}
	fmt.Fprintf(out, "restored %d files\n", len(files))
	return nil
}
