package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/goopsie/bonefix/pkg/config"
	"github.com/goopsie/bonefix/pkg/uasset"
)

// app holds the persistent flags shared by every command.
type app struct {
	configPath string
	verbose    bool
	byteOrder  string

	log *slog.Logger
}

// NewRootCommand builds the bonefix command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "bonefix",
		Short: "Realign modded skeleton bone order to the game's original layout",
		Long: `bonefix reorders the bones of a modded skeleton so they sit at the
indices the game's original skeleton uses, rewrites parent references to
match, and patches the bone index tables of dependent animations.

Files are patched in place. A compressed backup of every patched file is
kept next to it unless backups are disabled; use 'bonefix restore' to
roll back.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Print per-file progress")
	rootCmd.PersistentFlags().StringVar(&a.byteOrder, "byte-order", "", "Byte order of asset files: little|big (default from config)")

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Realign every skeleton in the mods folder",
		Args:  cobra.NoArgs,
		RunE:  a.runBuild,
	}
	buildCmd.Flags().String("mods", "", "Mods folder (overrides mods_dir)")
	buildCmd.Flags().String("mapping", "", "Mapping folder (overrides mapping_dir)")
	buildCmd.Flags().String("cook", "", "Cooked content folder to copy mod files from")
	buildCmd.Flags().String("anim-pattern", "", "Regular expression selecting animation files")
	buildCmd.Flags().Bool("keep-skeleton", true, "Keep skeleton files after patching")
	buildCmd.Flags().Bool("no-backup", false, "Do not back up files before patching")

	mapCmd := &cobra.Command{
		Use:   "map <file.uasset> [file.uexp]",
		Short: "Write a bone mapping from an original skeleton",
		Long: `Write a bone mapping from an original skeleton.

The argument may be the header file, the data file, both, or a folder
holding a single skeleton pair.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: a.runMap,
	}
	mapCmd.Flags().StringP("output", "o", "", "Mapping file to write (default <stem>-map.json)")

	replaceCmd := &cobra.Command{
		Use:   "replace <file.uasset> <file.uexp> <mapping.json>",
		Short: "Realign one skeleton to a mapping",
		Args:  cobra.ExactArgs(3),
		RunE:  a.runReplace,
	}
	replaceCmd.Flags().StringSlice("anim", nil, "Animation data files to patch with the same translation")
	replaceCmd.Flags().Bool("dry-run", false, "Print the new order without writing")
	replaceCmd.Flags().Bool("no-backup", false, "Do not back up files before patching")

	inspectCmd := &cobra.Command{
		Use:   "inspect <file.uasset> [file.uexp]",
		Short: "Print the bone order of a skeleton",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  a.runInspect,
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <path>",
		Short: "Restore backed up files under a folder, or a single file",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runRestore,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bonefix %s\n", version)
		},
	}

	rootCmd.AddCommand(
		buildCmd,
		mapCmd,
		replaceCmd,
		inspectCmd,
		restoreCmd,
		versionCmd,
	)

	return rootCmd
}

// loadConfig reads the configuration file and applies the persistent
// byte order override.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.byteOrder != "" {
		cfg.Endian = a.byteOrder
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// assetOptions returns the reader and writer options for single-file
// commands.
func (a *app) assetOptions() ([]uasset.Option, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return []uasset.Option{uasset.WithByteOrder(cfg.ByteOrder())}, nil
}
