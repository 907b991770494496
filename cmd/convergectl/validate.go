package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the config and manifest and build the graph without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, ag, err := loadAgent(opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "agent: %s\nmanifest: %s\n", cfg.ID, cfg.Manifest)
			for _, item := range ag.Summary() {
				fmt.Fprintf(w, "  %s deps=%s\n", item.Name, joinOrNone(item.DependsOn))
			}
			fmt.Fprintf(w, "events: %s\n", joinOrNone(ag.EventsToObserve()))
			return nil
		},
	}
}
