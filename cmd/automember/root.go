package main

import (
	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/automember/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "automember",
		Short: "Directory searches with synthesized group membership",
		Long: `automember serves searches over an LDAP directory held in a local entry
store. Groups gain member values expanded from their memberUid values and
accounts gain memberOf values naming the groups that list them.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newSearchCmd(flags),
		newImportCmd(flags),
		newExportCmd(flags),
		newConfigCmd(flags),
		newConsoleCmd(flags),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the configuration file, or the defaults when none was
// given, and validates it.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(f.configFile); err != nil {
			return nil, err
		}
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		return nil, validationFailure(errs)
	}
	return cfg, nil
}
