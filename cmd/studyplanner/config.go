package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/study-planner/internal/common"
)

var initForce bool

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective configuration (without the API key) as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !initForce {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg, err := common.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := common.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}
