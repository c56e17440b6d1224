package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ant-libs-go/util"
	"github.com/spf13/cobra"

	"github.com/goopsie/bonefix/pkg/config"
	"github.com/goopsie/bonefix/pkg/modbuild"
)

var errSkeletonsFailed = errors.New("one or more skeletons failed")

func (a *app) runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if err := applyBuildFlags(cmd, cfg); err != nil {
		return err
	}
	cfg.Verbose = cfg.Verbose || a.verbose

	out := cmd.OutOrStdout()
	b := modbuild.NewBuilder(cfg,
		modbuild.WithLogger(a.log),
		modbuild.WithProgress(func(rep modbuild.SkeletonReport) {
			util.IfDo(cfg.Verbose, func() { fmt.Fprintln(out, renderSkeletonLine(rep)) })
		}),
	)

	summary, err := b.Build(cmd.Context())
	if summary != nil {
		fmt.Fprint(out, renderSummary(summary))
	}
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if summary.Failed() {
		return errSkeletonsFailed
	}
	return nil
}

// applyBuildFlags overrides config values with the flags given on the
// command line.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config) error {
	for flag, dst := range map[string]*string{
		"mods":         &cfg.ModsDir,
		"mapping":      &cfg.MappingDir,
		"cook":         &cfg.CookContentFolder,
		"anim-pattern": &cfg.AnimSearchPattern,
	} {
		value, err := optionalStringFlag(cmd, flag)
		if err != nil {
			return err
		}
		if value != "" {
			*dst = value
		}
	}

	if cmd.Flags().Changed("keep-skeleton") {
		keep, err := cmd.Flags().GetBool("keep-skeleton")
		if err != nil {
			return fmt.Errorf("failed to read --keep-skeleton flag: %w", err)
		}
		cfg.KeepSkeleton = keep
	}
	noBackup, err := cmd.Flags().GetBool("no-backup")
	if err != nil {
		return fmt.Errorf("failed to read --no-backup flag: %w", err)
	}
	if noBackup {
		cfg.Backup = false
	}

	return cfg.Validate()
}

func optionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}
