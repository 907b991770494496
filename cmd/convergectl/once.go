package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/converge/internal/agent"
	"github.com/danmuck/converge/internal/component"
	"github.com/spf13/cobra"
)

type onceOptions struct {
	event  string
	asJSON bool
	strict bool
}

func newOnceCmd(opts *rootOptions) *cobra.Command {
	o := &onceOptions{}
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single reconcile pass and print the outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, ag, err := loadAgent(opts)
			if err != nil {
				return err
			}
			rec, runErr := ag.RunNow(cmd.Context(), component.NewEvent(o.event))
			if err := printRecord(cmd.OutOrStdout(), rec, ag, o.asJSON); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if o.strict && !rec.Status.IsActive() {
				return fmt.Errorf("graph not active: %s", rec.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&o.event, "event", "e", agent.EventInstall, "event name passed to every configure call")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print the pass record as JSON")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "exit non-zero unless the aggregate status is active")
	return cmd
}

func printRecord(w io.Writer, rec agent.Record, ag *agent.Agent, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"pass": rec, "items": ag.Summary()})
	}
	fmt.Fprintf(w, "event: %s\nstatus: %s\nexecuted: %s\nduration: %s\n",
		rec.Event, rec.Status, joinOrNone(rec.Executed), rec.Duration)
	if len(rec.Pending) > 0 {
		fmt.Fprintf(w, "pending: %s\n", strings.Join(rec.Pending, ","))
	}
	if rec.Error != "" {
		fmt.Fprintf(w, "error: %s\n", rec.Error)
	}
	for _, item := range ag.Summary() {
		fmt.Fprintf(w, "  [%s] %s state=%s deps=%s\n", item.Name, item.Status, item.State, joinOrNone(item.DependsOn))
	}
	return nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ",")
}
