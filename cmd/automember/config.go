package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KilimcininKorOglu/automember/internal/automember"
)

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file and the overlay settings",
		Long: `Validate the configuration file, load the schema files it names and
resolve the automember settings against that schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			s, err := loadSchema(cfg.Schema.Files)
			if err != nil {
				return err
			}
			oc, err := cfg.Automember.OverlayConfig()
			if err != nil {
				return err
			}
			if err := automember.Check(s, oc); err != nil {
				return err
			}
			if oc.MemberOfObjectClass != "" && oc.MemberObjectClass == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: memberOfObjectClass is set without memberObjectClass; memberOf will not be synthesized")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	})

	return cmd
}
