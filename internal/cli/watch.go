package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pkodzis/hcpctl/internal/resolve"
	"github.com/pkodzis/hcpctl/internal/tail"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch resources and stream logs of new runs",
	}
	cmd.AddCommand(newWatchWorkspaceCmd(a))
	return cmd
}

func newWatchWorkspaceCmd(a *app) *cobra.Command {
	var (
		apply    bool
		raw      bool
		noPrefix bool
	)

	cmd := &cobra.Command{
		Use:     "ws TARGET...",
		Aliases: []string{"workspace"},
		Short:   "Stream the logs of every new run in one or more workspaces",
		Long: `Poll each workspace for its current run and stream the log of every run
that appears, until interrupted. Lines are labelled with their run ID.`,
		Example: `  hcpctl watch ws network --org acme
  hcpctl watch ws ws-abc123 ws-def456 --apply`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ids := make([]string, 0, len(args))
			for _, arg := range args {
				ws, err := a.resolver.Workspace(ctx, resolve.ParseTarget(arg, resolve.WorkspacePrefix), a.cfg.Organization)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "Watching workspace '%s' in organization '%s' (%s)\n",
					ws.Resource.Attributes.Name, ws.Organization, ws.Resource.ID)
				ids = append(ids, ws.Resource.ID)
			}
			fmt.Fprintln(a.errOut, "Press Ctrl+C to stop")

			phase := tail.Plan
			if apply {
				phase = tail.Apply
			}

			source := tail.NewClientSource(a.client)
			watcher := tail.NewWatcher(source, tail.NewTailer(source,
				tail.WithInterval(a.cfg.PollInterval),
				tail.WithRaw(raw),
			))
			watcher.NoPrefix = noPrefix

			err := watcher.Watch(ctx, ids, phase, newLabelWriter(a.out).emit)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&apply, "apply", "a", false, "stream apply logs instead of plan logs")
	cmd.Flags().BoolVar(&raw, "raw", false, "print log lines as received, without extracting @message")
	cmd.Flags().BoolVar(&noPrefix, "no-prefix", false, "do not label lines with their run ID")

	return cmd
}

var labelColors = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgMagenta),
	color.New(color.FgYellow),
	color.New(color.FgGreen),
	color.New(color.FgBlue),
}

// labelWriter prints lines, coloring a leading "[label]" with a color
// fixed per label. Callers serialize calls to emit.
type labelWriter struct {
	w        io.Writer
	assigned map[string]*color.Color
}

func newLabelWriter(w io.Writer) *labelWriter {
	return &labelWriter{w: w, assigned: make(map[string]*color.Color)}
}

func (l *labelWriter) emit(line string) {
	end := strings.Index(line, "] ")
	if !strings.HasPrefix(line, "[") || end < 0 {
		fmt.Fprintln(l.w, line)
		return
	}

	label := line[:end+1]
	c, ok := l.assigned[label]
	if !ok {
		c = labelColors[len(l.assigned)%len(labelColors)]
		l.assigned[label] = c
	}
	fmt.Fprintln(l.w, c.Sprint(label)+line[end+1:])
}
