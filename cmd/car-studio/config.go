package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	var write string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration or write it to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if write != "" {
				if err := cfg.SaveToFile(write); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), write)
				return nil
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&write, "write", "", "write the configuration to this file instead of printing it")
	return cmd
}
