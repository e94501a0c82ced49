package main

import (
	"github.com/spf13/cobra"

	"github.com/forensicdb/forensicdb/internal/forensiclog"
)

// rootOptions carries the global flags shared by every subcommand.
type rootOptions struct {
	configPath string
	cfg        config
	log        forensiclog.Logger
}

func newRootCmd(log forensiclog.Logger) *cobra.Command {
	ro := &rootOptions{log: log}

	cmd := &cobra.Command{
		Use:   "forensicdb",
		Short: "Read-only forensic inspector for SQLite3 and LevelDB files",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(ro.configPath)
			if err != nil {
				return err
			}
			ro.cfg = cfg
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&ro.configPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(
		newSQLiteCmd(ro),
		newLevelDBCmd(ro),
		newDumpCmd(ro),
		newGrepCmd(ro),
	)
	return cmd
}
