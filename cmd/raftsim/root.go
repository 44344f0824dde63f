package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raftsim",
		Short: "Drive a simulated Raft cluster from a cluster config file",
	}
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newValidateCmd())
	return cmd
}
