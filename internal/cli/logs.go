package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/pkodzis/hcpctl/internal/resolve"
	"github.com/pkodzis/hcpctl/internal/tail"
)

func newLogsCmd(a *app) *cobra.Command {
	var (
		apply  bool
		follow bool
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "logs TARGET",
		Short: "Show the plan or apply log of a run",
		Long: `Show the plan or apply log of a run.

TARGET is one of:
  run-xxx  a run ID
  ws-xxx   a workspace ID; its current run is used
  name     a workspace name; its current run is used. Without --org every
           organization is searched.`,
		Example: `  # Plan log of a run
  hcpctl logs run-abc123

  # Follow the apply log of a workspace's current run
  hcpctl logs network --org acme --apply -f`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			run, err := a.resolver.Run(ctx, resolve.ParseTarget(args[0], resolve.RunPrefix), a.cfg.Organization)
			if err != nil {
				return err
			}

			phase := tail.Plan
			if apply {
				phase = tail.Apply
			}

			tailer := tail.NewTailer(tail.NewClientSource(a.client),
				tail.WithInterval(a.cfg.PollInterval),
				tail.WithRaw(raw),
			)

			if !follow {
				return tailer.Snapshot(ctx, run.Resource.ID, phase, a.printLine)
			}

			err = tailer.Tail(ctx, run.Resource.ID, phase, a.printLine)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&apply, "apply", "a", false, "show the apply log instead of the plan log")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow the log until the phase finishes")
	cmd.Flags().BoolVar(&raw, "raw", false, "print log lines as received, without extracting @message")

	return cmd
}
