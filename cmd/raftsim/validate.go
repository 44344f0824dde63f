package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbmithr/raft/internal/clusterconfig"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate a cluster config YAML file without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := clusterconfig.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"ok: %d servers, election_timeout=%s, election_timeout_range=%s, heartbeat_timeout=%s, majority=%d\n",
				config.NbOfServer, config.ElectionTimeout, config.ElectionTimeoutRange, config.HeartbeatTimeout, config.Majority(),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a cluster config YAML file (required)")
	cmd.MarkFlagRequired("config")

	return cmd
}
