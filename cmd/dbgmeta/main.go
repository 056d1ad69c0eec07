package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wnxd/dbgmeta/config"
	"github.com/wnxd/dbgmeta/internal/logging"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	var flags globalFlags
	root := &cobra.Command{
		Use:           "dbgmeta",
		Short:         "Inspect debugger annotation databases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log.level", "", "override log level (debug, info, warn, error)")
	root.AddCommand(newDumpCmd(fs, &flags), newResolveCmd(fs, &flags))
	return root
}

func (f *globalFlags) load(fs afero.Fs) (config.Config, log.Logger, error) {
	cfg, err := config.Load(fs, f.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	return cfg, logger, err
}
