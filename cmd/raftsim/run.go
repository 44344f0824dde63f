package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vbmithr/raft"
	"github.com/vbmithr/raft/internal/clusterconfig"
	"github.com/vbmithr/raft/kvstore"
	"github.com/vbmithr/raft/simulation"
)

func newRunCmd() *cobra.Command {
	var configPath string
	var duration time.Duration
	var tick time.Duration
	var latency time.Duration
	var proposals []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a cluster for a fixed duration, proposing any given values once a leader is elected",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, configPath, duration, tick, latency, proposals)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a cluster config YAML file (required)")
	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "how long to run the simulation")
	cmd.Flags().DurationVar(&tick, "tick", time.Millisecond, "simulated clock step between ticks")
	cmd.Flags().DurationVar(&latency, "latency", time.Millisecond, "simulated one-way message latency")
	cmd.Flags().StringSliceVar(&proposals, "propose", nil, "values to propose (as kvstore Put k=v pairs) once a leader is found")
	cmd.MarkFlagRequired("config")

	return cmd
}

func runSimulation(cmd *cobra.Command, configPath string, duration, tick, latency time.Duration, proposals []string) error {
	config, err := clusterconfig.Load(configPath)
	if err != nil {
		return err
	}

	log := zerolog.New(cmd.OutOrStdout()).With().Timestamp().Logger()
	now := time.Now()
	cluster := simulation.NewCluster(config, now, latency)
	client := kvstore.NewClient(cluster)

	pending := proposals
	var lastLeader raft.ServerID
	haveLeader := false

	elapsed := time.Duration(0)
	for elapsed < duration {
		now = now.Add(tick)
		elapsed += tick
		cluster.Tick(now)

		leaderID, ok := cluster.Leader()
		if ok && (!haveLeader || leaderID != lastLeader) {
			log.Info().Uint16("server", uint16(leaderID)).Uint64("term", cluster.State(leaderID).CurrentTerm).Msg("leader elected")
			lastLeader = leaderID
			haveLeader = true
		}

		if ok && len(pending) > 0 {
			kv := pending[0]
			pending = pending[1:]
			key, value := splitKV(kv)
			index, err := client.Put(now, key, value)
			if err != nil {
				log.Error().Err(err).Str("pair", kv).Msg("propose failed")
				continue
			}
			log.Info().Str("key", key).Str("value", value).Uint64("index", index).Msg("proposed")
		}
	}

	if !haveLeader {
		fmt.Fprintln(cmd.OutOrStdout(), "no leader elected within the simulated duration")
	}
	return nil
}

func splitKV(pair string) (key, value string) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			return pair[:i], pair[i+1:]
		}
	}
	return pair, ""
}
