package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/radview/internal/config"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), a.cfg.String())
			return nil
		},
	})

	save := &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("output")
			if path == "" {
				path = config.NewLoader(version, a.configPath).GetConfigPath()
			}
			if path == "" {
				path = config.DefaultPath()
			}
			if path == "" {
				return errors.New("no config path: pass --output")
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Configuration saved to %s\n", path)
			return nil
		},
	}
	save.Flags().StringP("output", "o", "", "file to write (default: the loaded config file or the user config path)")
	cmd.AddCommand(save)
	return cmd
}
