package main

import (
	"strings"

	"github.com/spf13/cobra"

	"aftercast/internal/config"
)

func newRootCommand() *cobra.Command {
	var apiFlag string
	var configFlag string

	client := &apiClient{}

	rootCmd := &cobra.Command{
		Use:           "aftercast",
		Short:         "Control the aftercast daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipConfigLoad"] == "true" {
				return nil
			}
			bind := strings.TrimSpace(apiFlag)
			if bind == "" {
				cfg, _, _, err := config.Load(configFlag)
				if err != nil {
					return err
				}
				bind = cfg.Paths.APIBind
			}
			client.base = "http://" + bind
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Daemon API address (host:port)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newStatusCommand(client))
	rootCmd.AddCommand(newSessionsCommand(client))
	rootCmd.AddCommand(newTasksCommand(client))
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}
