package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/printers"
	"tableflip.dev/planner/pkg/timeutil"
)

func addReport(topLevel *cobra.Command) {
	var last string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Display recently completed tasks grouped by project",
		Long: `Report lists completed tasks grouped by project within the specified time window.
Parents of completed tasks are shown for context.

Examples:
  planner report
  planner report --last 3d
  planner report --last 1w2d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			window, err := timeutil.ParseWindow(last)
			if err != nil {
				return err
			}
			return run(cmd, false, func(ctx context.Context, s *session) error {
				since, until := window.Range(s.now())
				result, err := s.svc.Report(ctx, s.owner, since, until)
				if err != nil {
					return err
				}
				return s.print(result, func(pp *printers.PrettyPrint) {
					pp.Report(result, window.Label)
				})
			})
		},
	}

	cmd.Flags().StringVar(&last, "last", timeutil.DefaultWindow, "time window to include (for example 3d, 1w, 1mo)")
	topLevel.AddCommand(cmd)
}
