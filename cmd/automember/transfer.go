package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/automember/internal/ldif"
)

func newImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add the entries of an LDIF file to the store",
		Long: `Add the entries of an LDIF file to the configured store. Entries are
checked against the schema and stamped with operational attributes. Import
stops at the first entry that cannot be added.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg, appOptions{logWriter: cmd.ErrOrStderr(), skipSeed: true})
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.importFile(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", n)
			return err
		},
	}
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored entries as LDIF",
		Long: `Write the stored entries under a base as LDIF, parents first. Stored
entries are written as kept; no member or memberOf values are synthesized.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg, appOptions{logWriter: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			if base == "" {
				base = cfg.Directory.Suffix
			}
			_, err = ldif.Export(cmd.Context(), a.store, base, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVarP(&base, "base", "b", "", "Export base (default: the directory suffix)")
	return cmd
}
