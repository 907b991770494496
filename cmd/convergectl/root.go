package main

import (
	"github.com/danmuck/converge/internal/agent"
	"github.com/danmuck/converge/internal/config"
	"github.com/danmuck/converge/internal/observability"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "converge.toml"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "convergectl",
		Short:         "Drive a component graph toward its configured state",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			observability.InitLogger("convergectl")
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "agent config file (TOML)")

	root.AddCommand(
		newServeCmd(opts),
		newOnceCmd(opts),
		newValidateCmd(opts),
		newInitCmd(),
	)
	return root
}

func loadAgent(opts *rootOptions) (config.AgentConfig, *agent.Agent, error) {
	cfg, err := config.LoadAgentConfig(opts.configPath)
	if err != nil {
		return config.AgentConfig{}, nil, err
	}
	ag, err := agent.Load(cfg, nil, nil)
	if err != nil {
		return config.AgentConfig{}, nil, err
	}
	return cfg, ag, nil
}
